package repository

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/padraicbc/racetiming/timing"
)

// configurationFile is the on-disk layout:
//
//	competitions:
//	  - id: spring-cup
//	    tracks:
//	      "0": {overlap_limit: 2, record_type: heat}
type configurationFile struct {
	Competitions []timing.CompetitionConfiguration `yaml:"competitions"`
}

// ParseConfigurations decodes and validates a YAML configuration document.
func ParseConfigurations(data []byte) ([]timing.CompetitionConfiguration, error) {
	var f configurationFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("yaml decode: %w", err)
	}
	seen := make(map[timing.ConfigurationID]bool, len(f.Competitions))
	for _, cfg := range f.Competitions {
		if err := validate(cfg); err != nil {
			return nil, err
		}
		if seen[cfg.ID] {
			return nil, fmt.Errorf("configuration %q defined twice", cfg.ID)
		}
		seen[cfg.ID] = true
	}
	return f.Competitions, nil
}

// YAMLFile serves configurations read once from a YAML file.
type YAMLFile struct {
	path string
	mem  *Memory
}

// NewYAMLFile reads and validates path.
func NewYAMLFile(path string) (*YAMLFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfgs, err := ParseConfigurations(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &YAMLFile{path: path, mem: NewMemory(cfgs...)}, nil
}

func (y *YAMLFile) CompetitionConfiguration(ctx context.Context, id timing.ConfigurationID) (timing.CompetitionConfiguration, bool, error) {
	return y.mem.CompetitionConfiguration(ctx, id)
}
