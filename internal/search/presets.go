package search

import (
	"embed"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/presets.yaml
var presetsYAML embed.FS

// QuickSearch is a preset query shown in the idle state.
type QuickSearch struct {
	Label string `yaml:"label" json:"label"`
	Query string `yaml:"query" json:"query"`
}

// Catalog holds the filter option lists and quick-start queries the
// discovery UI offers.
type Catalog struct {
	QuickSearches []QuickSearch `yaml:"quick_searches" json:"quick_searches"`
	Countries     []string      `yaml:"countries" json:"countries"`
	Sectors       []string      `yaml:"sectors" json:"sectors"`
	DonorTypes    []string      `yaml:"donor_types" json:"donor_types"`
}

// LoadCatalog reads the embedded presets.yaml. The path parameter is a
// filesystem fallback for local development.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := presetsYAML.ReadFile("config/presets.yaml")
	if err != nil {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}

	return &catalog, nil
}
