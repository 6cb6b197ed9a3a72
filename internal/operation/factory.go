package operation

import (
	"fmt"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/printer"
)

// FileLoader resolves a file:// path to its text contents.
type FileLoader func(path string) (string, error)

// ConfigLoader resolves a config file path to a flat argument map.
type ConfigLoader func(path string) (map[string]any, error)

// Factory builds operation instances from CLI-shaped argument bundles,
// mirroring
// original_source/anki_terminal/ops/operation_factory.py:OperationFactory.
type Factory struct {
	Registry     *Registry
	LoadFile     FileLoader
	LoadConfig   ConfigLoader
}

// CreateFromArgs resolves the operation named by args["operation"],
// merges config-file values beneath explicit CLI values, resolves
// file://-prefixed arguments, and constructs the operation.
func (f *Factory) CreateFromArgs(p printer.OperationPrinter, args map[string]any) (Operation, error) {
	name, _ := args["operation"].(string)
	if name == "" {
		return nil, fmt.Errorf("creating operation: %w: operation name is required", ankerr.ErrInvalidInput)
	}
	e, err := f.Registry.Get(name)
	if err != nil {
		return nil, err
	}
	return f.CreateFromEntry(e, p, args)
}

// CreateFromEntry builds an operation from an already-resolved registry
// entry, applying config-file merge and file:// substitution.
func (f *Factory) CreateFromEntry(e Entry, p printer.OperationPrinter, args map[string]any) (Operation, error) {
	opArgs := make(map[string]any, len(args))
	for k, v := range args {
		opArgs[k] = v
	}

	if cf, ok := opArgs["config_file"].(string); ok && cf != "" && f.LoadConfig != nil {
		config, err := f.LoadConfig(cf)
		if err != nil {
			return nil, fmt.Errorf("loading config file %q: %w", cf, err)
		}
		for k, v := range config {
			if existing, present := opArgs[k]; !present || existing == nil {
				opArgs[k] = v
			}
		}
	}

	opArgs, err := f.resolveFileArgs(opArgs)
	if err != nil {
		return nil, err
	}

	return e.New(p, opArgs)
}

func (f *Factory) resolveFileArgs(args map[string]any) (map[string]any, error) {
	if f.LoadFile == nil {
		return args, nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok && len(s) > len("file://") && s[:7] == "file://" {
			contents, err := f.LoadFile(s[7:])
			if err != nil {
				out[k] = v
				continue
			}
			out[k] = contents
			continue
		}
		out[k] = v
	}
	return out, nil
}
