// Package printer renders operation results, grounded on
// original_source/anki_terminal/ops/printer.py.
package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// OperationPrinter formats operation results and errors to an output
// stream.
type OperationPrinter interface {
	PrintResult(result map[string]any)
	PrintError(message string)
}

// JSONPrinter prints results as JSON, optionally pretty-printed.
type JSONPrinter struct {
	Output io.Writer
	Pretty bool
}

// NewJSONPrinter returns a JSONPrinter writing to stdout.
func NewJSONPrinter(pretty bool) *JSONPrinter {
	return &JSONPrinter{Output: os.Stdout, Pretty: pretty}
}

func (p *JSONPrinter) encode(v any) {
	var (
		b   []byte
		err error
	)
	if p.Pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		fmt.Fprintf(p.Output, "{\"success\":false,\"error\":%q}\n", err.Error())
		return
	}
	fmt.Fprintln(p.Output, string(b))
}

func (p *JSONPrinter) PrintResult(result map[string]any) { p.encode(result) }

func (p *JSONPrinter) PrintError(message string) {
	p.encode(map[string]any{"success": false, "error": message})
}

// HumanReadablePrinter prints results in an indented key: value format.
type HumanReadablePrinter struct {
	Output io.Writer
}

// NewHumanReadablePrinter returns a HumanReadablePrinter writing to stdout.
func NewHumanReadablePrinter() *HumanReadablePrinter {
	return &HumanReadablePrinter{Output: os.Stdout}
}

func (p *HumanReadablePrinter) formatValue(value any, indent int) string {
	indentStr := ""
	for i := 0; i < indent; i++ {
		indentStr += "  "
	}

	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := ""
		for i, k := range keys {
			if i > 0 {
				out += "\n"
			}
			val := v[k]
			switch val.(type) {
			case map[string]any, []any, []string:
				out += fmt.Sprintf("%s%s:\n%s", indentStr, k, p.formatValue(val, indent+1))
			default:
				out += fmt.Sprintf("%s%s: %v", indentStr, k, val)
			}
		}
		return out
	case []string:
		if len(v) == 0 {
			return indentStr + "(empty list)"
		}
		out := ""
		for i, item := range v {
			if i > 0 {
				out += "\n"
			}
			out += fmt.Sprintf("%s- %v", indentStr, item)
		}
		return out
	case []any:
		if len(v) == 0 {
			return indentStr + "(empty list)"
		}
		out := ""
		for i, item := range v {
			if i > 0 {
				out += "\n" + indentStr + "---\n"
			}
			switch item.(type) {
			case map[string]any:
				out += p.formatValue(item, indent)
			default:
				out += fmt.Sprintf("%s- %v", indentStr, item)
			}
		}
		return out
	default:
		return fmt.Sprintf("%s%v", indentStr, v)
	}
}

func (p *HumanReadablePrinter) PrintResult(result map[string]any) {
	keys := make([]string, 0, len(result))
	for k := range result {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(p.Output, "%s:\n", k)
		fmt.Fprintln(p.Output, p.formatValue(result[k], 1))
	}
}

func (p *HumanReadablePrinter) PrintError(message string) {
	fmt.Fprintf(p.Output, "Error: %s\n", message)
}

// MockPrinter captures output for tests instead of printing it.
type MockPrinter struct {
	Results []map[string]any
	Errors  []string
}

func NewMockPrinter() *MockPrinter { return &MockPrinter{} }

func (p *MockPrinter) PrintResult(result map[string]any) {
	p.Results = append(p.Results, result)
}

func (p *MockPrinter) PrintError(message string) {
	p.Errors = append(p.Errors, message)
}

func (p *MockPrinter) Clear() {
	p.Results = nil
	p.Errors = nil
}
