package experiment

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the optional experiments YAML file:
//
//	groups:
//	  - name: control
//	    lower: 0
//	    upper: 50
//	  - name: test
//	    lower: 50
//	    upper: 100
type fileConfig struct {
	Groups []struct {
		Name  string `yaml:"name"`
		Lower int    `yaml:"lower"`
		Upper int    `yaml:"upper"`
	} `yaml:"groups"`
}

// NewSplitterFromFile builds a splitter with group ranges read from a
// YAML file.
func NewSplitterFromFile(salt, path string) (*Splitter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("experiment: failed to read config %s: %w", path, err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("experiment: failed to parse config %s: %w", path, err)
	}

	ranges := make([]Range, 0, len(cfg.Groups))
	for _, g := range cfg.Groups {
		ranges = append(ranges, Range{Group: Group(g.Name), Lower: g.Lower, Upper: g.Upper})
	}

	return NewSplitterWithRanges(salt, ranges)
}
