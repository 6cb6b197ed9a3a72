// Package resources loads configuration files, script files, and
// templates, resolving built-in names before falling back to the
// filesystem, grounded on original_source/config_manager.py,
// original_source/script_manager.py, and original_source/template_manager.py.
package resources

import (
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ankidote/ankidote/internal/ankerr"
)

//go:embed builtin
var builtinFS embed.FS

// catalog is the manifest of every name a Catalog can resolve without
// touching the filesystem, keyed by resource kind. Parsed once from
// builtin/catalog.yaml with yaml.v3, distinct from the JSON content of
// individual config files.
type catalog struct {
	Configs   map[string]string `yaml:"configs"`
	Scripts   map[string]string `yaml:"scripts"`
	Templates map[string]string `yaml:"templates"`
}

// Catalog indexes the embedded built-in resources and serves their
// contents by name.
type Catalog struct {
	c catalog
}

// LoadCatalog parses builtin/catalog.yaml out of the embedded resource
// tree.
func LoadCatalog() (*Catalog, error) {
	raw, err := builtinFS.ReadFile("builtin/catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("loading built-in catalog: %w", err)
	}
	var c catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing built-in catalog: %w", err)
	}
	return &Catalog{c: c}, nil
}

// builtinConfigPath returns the embedded path for a built-in config
// name, if registered.
func (cat *Catalog) builtinConfigPath(name string) (string, bool) {
	p, ok := cat.c.Configs[name]
	return p, ok
}

func (cat *Catalog) builtinScriptPath(name string) (string, bool) {
	p, ok := cat.c.Scripts[name]
	return p, ok
}

func (cat *Catalog) builtinTemplatePath(name string) (string, bool) {
	p, ok := cat.c.Templates[name]
	return p, ok
}

func (cat *Catalog) listConfigs() []string   { return sortedKeys(cat.c.Configs) }
func (cat *Catalog) listScripts() []string   { return sortedKeys(cat.c.Scripts) }
func (cat *Catalog) listTemplates() []string { return sortedKeys(cat.c.Templates) }

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func readEmbedded(path string) (string, error) {
	raw, err := builtinFS.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading built-in resource %q: %w: %v", path, ankerr.ErrNotFound, err)
	}
	return string(raw), nil
}
