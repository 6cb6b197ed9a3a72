package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ankidote/ankidote/internal/executor"
	"github.com/ankidote/ankidote/internal/metaop"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/printer"
)

// intArguments names the arguments that take an int value but carry no
// Argument.Default to switch on (episodes_per_deck is required, so its
// type can't be inferred from a default the way batch_size/limit/
// example_count's can).
var intArguments = map[string]bool{
	"episodes_per_deck": true,
}

func sortedRecipeNames(reg *metaop.RecipeRegistry) []string {
	all := reg.All()
	names := make([]string, 0, len(all))
	for n := range all {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// newRecipeCmd builds one cobra subcommand per registered recipe, with
// flags generated from the recipe's own argument list, mirroring how
// original_source/anki_terminal/cli.py builds one argparse subcommand
// per operation.
func newRecipeCmd(e *env, recipe metaop.Recipe) *cobra.Command {
	cmd := &cobra.Command{
		Use:   recipe.Name(),
		Short: recipe.Description(),
		RunE: func(cmd *cobra.Command, args []string) error {
			opArgs, err := collectArgs(cmd, recipe)
			if err != nil {
				return err
			}
			return runRecipe(e, recipe, opArgs)
		},
	}
	addRecipeFlags(cmd, recipe)
	return cmd
}

func addRecipeFlags(cmd *cobra.Command, recipe metaop.Recipe) {
	for _, a := range recipe.Arguments() {
		desc := a.Description
		if a.Required {
			desc += " (required)"
		}
		switch def := a.Default.(type) {
		case bool:
			cmd.Flags().Bool(a.Name, def, desc)
		case int:
			cmd.Flags().Int(a.Name, def, desc)
		case string:
			cmd.Flags().String(a.Name, def, desc)
		default:
			if intArguments[a.Name] {
				cmd.Flags().Int(a.Name, 0, desc)
			} else {
				cmd.Flags().String(a.Name, "", desc)
			}
		}
		if a.Required {
			_ = cmd.MarkFlagRequired(a.Name)
		}
	}
}

// collectArgs reads every recipe argument's flag value back into a
// plain argument map, plus operation/config_file keys consumed by
// metaop.Factory.CreateFromArgs.
func collectArgs(cmd *cobra.Command, recipe metaop.Recipe) (map[string]any, error) {
	args := make(map[string]any, len(recipe.Arguments())+2)
	args["operation"] = recipe.Name()

	for _, a := range recipe.Arguments() {
		f := cmd.Flags().Lookup(a.Name)
		if f == nil {
			continue
		}
		switch f.Value.Type() {
		case "bool":
			v, err := cmd.Flags().GetBool(a.Name)
			if err != nil {
				return nil, err
			}
			args[a.Name] = v
		case "int":
			v, err := cmd.Flags().GetInt(a.Name)
			if err != nil {
				return nil, err
			}
			args[a.Name] = v
		default:
			v, err := cmd.Flags().GetString(a.Name)
			if err != nil {
				return nil, err
			}
			if v == "" && !f.Changed && !a.Required {
				continue
			}
			args[a.Name] = v
		}
	}

	if flagConfigFile != "" {
		args["config_file"] = flagConfigFile
	}

	return args, nil
}

// runRecipe opens the package, runs the resolved meta operation, prints
// every result, and releases the context (packaging any accumulated
// changes), mirroring the run lifecycle of original_source/anki_context.py.
func runRecipe(e *env, recipe metaop.Recipe, opArgs map[string]any) error {
	if flagApkg == "" {
		return fmt.Errorf("--apkg is required")
	}
	readOnly := recipe.Readonly()
	if !readOnly && flagOutput == "" {
		return fmt.Errorf("--output is required for write operation %q", recipe.Name())
	}

	p := selectPrinter()

	ctx, err := executor.Open(flagApkg, flagOutput, readOnly, p)
	if err != nil {
		return fmt.Errorf("opening package: %w", err)
	}
	defer func() {
		if releaseErr := ctx.Release(); releaseErr != nil {
			fmt.Fprintf(os.Stderr, "releasing package: %v\n", releaseErr)
		}
	}()

	m, err := e.metaFactory.CreateFromArgs(opArgs)
	if err != nil {
		return fmt.Errorf("resolving operation: %w", err)
	}

	results, err := ctx.Run(m)
	if err != nil {
		return fmt.Errorf("running operation: %w", err)
	}

	anyFailed := false
	for _, r := range results {
		printResult(p, r)
		if !r.Success {
			anyFailed = true
		}
	}
	if anyFailed {
		return fmt.Errorf("one or more operations reported failure")
	}
	return nil
}

func printResult(p printer.OperationPrinter, r operation.Result) {
	data := r.Data
	if data == nil {
		data = map[string]any{}
	}
	data["success"] = r.Success
	data["message"] = r.Message
	p.PrintResult(data)
}

func selectPrinter() printer.OperationPrinter {
	if flagFormat == "human" {
		return printer.NewHumanReadablePrinter()
	}
	return printer.NewJSONPrinter(flagPretty)
}
