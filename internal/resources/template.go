package resources

import (
	"fmt"
	"os"
	"strings"

	"github.com/ankidote/ankidote/internal/ankerr"
)

// TemplateManager resolves and loads template files (question/answer
// formats and CSS), checking the built-in catalog before the
// filesystem, grounded on
// original_source/template_manager.py:TemplateManager.
type TemplateManager struct {
	catalog *Catalog
}

// NewTemplateManager constructs a TemplateManager backed by the
// built-in catalog.
func NewTemplateManager(catalog *Catalog) *TemplateManager {
	return &TemplateManager{catalog: catalog}
}

// LoadTemplate loads and returns the trimmed contents of a template
// (built-in or filesystem).
func (m *TemplateManager) LoadTemplate(name string) (string, error) {
	if p, ok := m.catalog.builtinTemplatePath(name); ok {
		contents, err := readEmbedded(p)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(contents), nil
	}
	if _, err := os.Stat(name); err == nil {
		raw, err := os.ReadFile(name)
		if err != nil {
			return "", fmt.Errorf("reading template %q: %w", name, err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	return "", fmt.Errorf("template file not found: %s: %w", name, ankerr.ErrNotFound)
}

// ListBuiltinTemplates returns the names of every registered built-in
// template.
func (m *TemplateManager) ListBuiltinTemplates() []string {
	return m.catalog.listTemplates()
}
