package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"

	"github.com/ankidote/ankidote/internal/metaop"
)

// newRunScriptCmd builds the "run-script" subcommand, which resolves a
// built-in or filesystem script, expands its ${var}/${var:default}
// references, and runs each resulting line as its own operation
// invocation, mirroring spec.md §6's "each resulting line is parsed
// like a CLI invocation" and
// original_source/script_manager.py:ScriptManager.read_script.
func newRunScriptCmd(e *env) *cobra.Command {
	var vars []string

	cmd := &cobra.Command{
		Use:   "run-script <name>",
		Short: "Run every line of a built-in or filesystem script as an operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variables, err := parseVarFlags(vars)
			if err != nil {
				return err
			}
			lines, err := e.scriptManager.ReadScript(args[0], variables)
			if err != nil {
				return fmt.Errorf("reading script %q: %w", args[0], err)
			}
			for i, line := range lines {
				if err := runScriptLine(e, line); err != nil {
					return fmt.Errorf("line %d (%q): %w", i+1, line, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "variable substitution for the script, as name=value (repeatable)")
	return cmd
}

func parseVarFlags(vars []string) (map[string]string, error) {
	out := make(map[string]string, len(vars))
	for _, v := range vars {
		idx := strings.Index(v, "=")
		if idx < 0 {
			return nil, fmt.Errorf("invalid --var %q: expected name=value", v)
		}
		out[v[:idx]] = v[idx+1:]
	}
	return out, nil
}

// runScriptLine tokenizes a single expanded script line ("operation
// <name> --flag value ...") and dispatches it exactly as a recipe
// subcommand invocation would.
func runScriptLine(e *env, line string) error {
	tokens, err := shellwords.Parse(line)
	if err != nil {
		return fmt.Errorf("tokenizing: %w", err)
	}
	if len(tokens) < 2 || tokens[0] != "operation" {
		return fmt.Errorf("expected a line of the form 'operation <name> --flag value ...'")
	}
	recipeName := tokens[1]
	recipe, err := e.recipeRegistry.Get(recipeName)
	if err != nil {
		return err
	}

	raw, err := parseFlagTokens(tokens[2:])
	if err != nil {
		return err
	}
	opArgs, err := convertScriptArgs(recipe, raw)
	if err != nil {
		return err
	}
	return runRecipe(e, recipe, opArgs)
}

// parseFlagTokens reads a sequence of "--name value" or "--name=value"
// tokens into a flat string map.
func parseFlagTokens(tokens []string) (map[string]string, error) {
	out := make(map[string]string)
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "--") {
			return nil, fmt.Errorf("unexpected token %q, expected a --flag", tok)
		}
		name := strings.TrimPrefix(tok, "--")
		if idx := strings.Index(name, "="); idx >= 0 {
			out[name[:idx]] = name[idx+1:]
			i++
			continue
		}
		if i+1 >= len(tokens) {
			return nil, fmt.Errorf("flag --%s is missing a value", name)
		}
		out[name] = tokens[i+1]
		i += 2
	}
	return out, nil
}

// convertScriptArgs coerces the raw string flag values into the types
// each recipe argument's Default implies, same as addRecipeFlags does
// for cobra-declared flags.
func convertScriptArgs(recipe metaop.Recipe, raw map[string]string) (map[string]any, error) {
	args := make(map[string]any, len(raw)+1)
	args["operation"] = recipe.Name()
	for _, a := range recipe.Arguments() {
		v, ok := raw[a.Name]
		if !ok {
			continue
		}
		switch a.Default.(type) {
		case bool:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", a.Name, err)
			}
			args[a.Name] = b
		case int:
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", a.Name, err)
			}
			args[a.Name] = n
		default:
			if intArguments[a.Name] {
				n, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("argument %q: %w", a.Name, err)
				}
				args[a.Name] = n
				continue
			}
			args[a.Name] = v
		}
	}
	if cf, ok := raw["config-file"]; ok {
		args["config_file"] = cf
	} else if flagConfigFile != "" {
		args["config_file"] = flagConfigFile
	}
	return args, nil
}
