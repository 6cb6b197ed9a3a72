package resources

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ankidote/ankidote/internal/ankerr"
)

var (
	scriptVarPattern  = regexp.MustCompile(`\$\{([^}]+)\}`)
	scriptVarNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// ScriptManager resolves and reads script files, expanding
// ${variable}/${variable:default} references, grounded on
// original_source/script_manager.py:ScriptManager.
type ScriptManager struct {
	catalog *Catalog
}

// NewScriptManager constructs a ScriptManager backed by the built-in
// catalog.
func NewScriptManager(catalog *Catalog) *ScriptManager {
	return &ScriptManager{catalog: catalog}
}

func (m *ScriptManager) resolveScript(name string) (string, error) {
	if p, ok := m.catalog.builtinScriptPath(name); ok {
		return readEmbedded(p)
	}
	if _, err := os.Stat(name); err == nil {
		raw, err := os.ReadFile(name)
		if err != nil {
			return "", fmt.Errorf("reading script %q: %w", name, err)
		}
		return string(raw), nil
	}
	return "", fmt.Errorf("script not found: %s: %w (available built-ins: %s)",
		name, ankerr.ErrNotFound, strings.Join(m.catalog.listScripts(), ", "))
}

// ExpandVariables substitutes every ${name} or ${name:default} reference
// in line with the corresponding value from variables, erroring on an
// invalid variable name or a missing required variable with no default.
func (m *ScriptManager) ExpandVariables(line string, variables map[string]string) (string, error) {
	var expandErr error
	result := scriptVarPattern.ReplaceAllStringFunc(line, func(match string) string {
		spec := match[2 : len(match)-1]
		name, def, hasDefault := spec, "", false
		if idx := strings.Index(spec, ":"); idx >= 0 {
			name, def, hasDefault = spec[:idx], spec[idx+1:], true
		}
		if !scriptVarNamePattern.MatchString(name) {
			expandErr = fmt.Errorf("invalid variable name: %s: %w", name, ankerr.ErrInvalidInput)
			return match
		}
		if v, ok := variables[name]; ok {
			return v
		}
		if hasDefault {
			return def
		}
		expandErr = fmt.Errorf("no value provided for variable: %s: %w", name, ankerr.ErrInvalidInput)
		return match
	})
	if expandErr != nil {
		return "", expandErr
	}
	return result, nil
}

// ReadScript resolves scriptName, then returns its non-empty,
// non-comment lines with variables expanded.
func (m *ScriptManager) ReadScript(scriptName string, variables map[string]string) ([]string, error) {
	raw, err := m.resolveScript(scriptName)
	if err != nil {
		return nil, err
	}

	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		expanded, err := m.ExpandVariables(line, variables)
		if err != nil {
			return nil, fmt.Errorf("reading script %q: %w", scriptName, err)
		}
		lines = append(lines, expanded)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading script %q: %w", scriptName, err)
	}
	return lines, nil
}
