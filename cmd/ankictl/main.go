// Command ankictl is a batch CLI engine for Anki package (.apkg)
// collections: it loads a package's embedded SQLite database into an
// in-memory collection, runs one or more declarative operations against
// it, and (for operations with side effects) repackages the mutated
// state into a new output package. Grounded on
// original_source/anki_terminal/cli.py and the root command layout of
// _examples/cuemby-warren/cmd/warren/main.go.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ankidote/ankidote/internal/metaop"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/populator"
	"github.com/ankidote/ankidote/internal/resources"
)

var (
	flagApkg       string
	flagOutput     string
	flagFormat     string
	flagPretty     bool
	flagConfigFile string
	flagVerbose    bool
)

// env bundles everything a recipe subcommand or the script runner needs
// to build and execute a run, constructed once in main before the
// command tree dispatches.
type env struct {
	recipeRegistry *metaop.RecipeRegistry
	metaFactory    *metaop.Factory
	configManager  *resources.ConfigManager
	scriptManager  *resources.ScriptManager
}

func buildEnv() (*env, error) {
	catalog, err := resources.LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("loading built-in resource catalog: %w", err)
	}
	configManager := resources.NewConfigManager(catalog)
	scriptManager := resources.NewScriptManager(catalog)

	populatorFactory := &populator.Factory{
		Registry:   populator.NewRegistry(),
		LoadFile:   loadFileContents,
		LoadConfig: configManager.LoadConfig,
	}

	opRegistry, err := buildOperationRegistry(populatorFactory, loadFileContents)
	if err != nil {
		return nil, fmt.Errorf("building operation registry: %w", err)
	}

	recipeRegistry, err := metaop.BuildRegistry(opRegistry)
	if err != nil {
		return nil, fmt.Errorf("building recipe registry: %w", err)
	}

	metaFactory := metaop.NewFactory(recipeRegistry, configLoaderAdapter(configManager))

	return &env{
		recipeRegistry: recipeRegistry,
		metaFactory:    metaFactory,
		configManager:  configManager,
		scriptManager:  scriptManager,
	}, nil
}

func configLoaderAdapter(cm *resources.ConfigManager) operation.ConfigLoader {
	return func(path string) (map[string]any, error) {
		return cm.LoadConfig(path)
	}
}

func loadFileContents(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file %q: %w", path, err)
	}
	return string(raw), nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ankictl",
		Short: "Batch operations over Anki collection packages",
		Long: `ankictl loads an Anki package (.apkg), runs one or more declarative
operations against its collection, and writes the mutated package back
out when any operation changes state.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagApkg, "apkg", "", "path to the input .apkg package (required)")
	root.PersistentFlags().StringVar(&flagOutput, "output", "", "path to write the output .apkg package (required for write operations)")
	root.PersistentFlags().StringVar(&flagFormat, "format", "json", "result output format: json or human")
	root.PersistentFlags().BoolVar(&flagPretty, "pretty", false, "pretty-print JSON output")
	root.PersistentFlags().StringVar(&flagConfigFile, "config-file", "", "config file (built-in name or path) supplying default argument values")
	root.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable verbose logging")

	e, err := buildEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ankictl: %v\n", err)
		os.Exit(1)
	}

	for _, name := range sortedRecipeNames(e.recipeRegistry) {
		recipe, _ := e.recipeRegistry.Get(name)
		root.AddCommand(newRecipeCmd(e, recipe))
	}
	root.AddCommand(newRunScriptCmd(e))

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
