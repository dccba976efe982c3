package completion

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LocalSelector routes a request to the self-hosted endpoint.
const LocalSelector = "local"

//go:embed providers.yaml
var defaultCatalog []byte

// ModelEntry maps a UI model selector to a cloud provider name.
type ModelEntry struct {
	Selector string `yaml:"selector" json:"selector"`
	Provider string `yaml:"provider" json:"provider"`
	Label    string `yaml:"label" json:"label"`
}

// Catalog lists the selectable cloud models.
type Catalog struct {
	Default  string       `yaml:"default"`
	Currency string       `yaml:"currency"`
	Models   []ModelEntry `yaml:"models"`
}

// LoadCatalog parses the catalog at path, or the built-in one when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read provider catalog %s: %w", path, err)
		}
		data = raw
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse provider catalog: %w", err)
	}
	if len(cat.Models) == 0 {
		return nil, fmt.Errorf("provider catalog has no models")
	}
	for i, m := range cat.Models {
		if m.Selector == "" || m.Provider == "" {
			return nil, fmt.Errorf("provider catalog entry %d needs selector and provider", i)
		}
	}
	if cat.Default == "" {
		cat.Default = cat.Models[0].Selector
	}
	if cat.Currency == "" {
		cat.Currency = "EUR"
	}
	return &cat, nil
}

// ProviderFor returns the cloud provider for a selector; unknown selectors use the default entry.
func (c *Catalog) ProviderFor(selector string) string {
	selector = strings.ToLower(strings.TrimSpace(selector))
	for _, m := range c.Models {
		if m.Selector == selector {
			return m.Provider
		}
	}
	for _, m := range c.Models {
		if m.Selector == c.Default {
			return m.Provider
		}
	}
	return c.Models[0].Provider
}
