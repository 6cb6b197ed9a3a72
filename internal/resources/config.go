package resources

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ankidote/ankidote/internal/ankerr"
)

// ConfigManager resolves and loads operation config files, checking the
// built-in catalog before the filesystem, grounded on
// original_source/config_manager.py:ConfigManager.
type ConfigManager struct {
	catalog   *Catalog
	templates *TemplateManager
}

// NewConfigManager constructs a ConfigManager backed by the built-in
// catalog.
func NewConfigManager(catalog *Catalog) *ConfigManager {
	return &ConfigManager{catalog: catalog, templates: NewTemplateManager(catalog)}
}

// resolveConfig resolves a config name or filesystem path to the file's
// contents, checking the built-in catalog first. The bool reports whether
// the config came from the built-in catalog.
func (m *ConfigManager) resolveConfig(name string) (string, bool, error) {
	if p, ok := m.catalog.builtinConfigPath(normalizeConfigName(name)); ok {
		contents, err := readEmbedded(p)
		return contents, true, err
	}
	if _, err := os.Stat(name); err == nil {
		raw, err := os.ReadFile(name)
		if err != nil {
			return "", false, fmt.Errorf("reading config %q: %w", name, err)
		}
		return string(raw), false, nil
	}
	return "", false, fmt.Errorf("configuration not found: %s: %w (available built-ins: %s)",
		name, ankerr.ErrNotFound, strings.Join(m.catalog.listConfigs(), ", "))
}

func normalizeConfigName(name string) string {
	return strings.TrimSuffix(name, ".json")
}

// LoadConfig loads and parses a config file (built-in or filesystem),
// re-resolving any question_format_file/answer_format_file/css_file keys
// into question_format/answer_format/css via the template manager.
func (m *ConfigManager) LoadConfig(name string) (map[string]any, error) {
	raw, _, err := m.resolveConfig(name)
	if err != nil {
		return nil, err
	}
	var config map[string]any
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		return nil, fmt.Errorf("invalid JSON in configuration file %s: %w: %v", name, ankerr.ErrInvalidInput, err)
	}

	if qf, ok := config["question_format_file"].(string); ok && qf != "" {
		tpl, err := m.templates.LoadTemplate(qf)
		if err != nil {
			return nil, err
		}
		config["question_format"] = tpl
	}
	if af, ok := config["answer_format_file"].(string); ok && af != "" {
		tpl, err := m.templates.LoadTemplate(af)
		if err != nil {
			return nil, err
		}
		config["answer_format"] = tpl
	}
	if cf, ok := config["css_file"].(string); ok && cf != "" {
		tpl, err := m.templates.LoadTemplate(cf)
		if err != nil {
			return nil, err
		}
		config["css"] = tpl
	}

	return config, nil
}
