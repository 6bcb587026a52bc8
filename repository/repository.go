// Package repository looks up competition configurations. Every store
// implements ConfigurationRepository; the server picks one at startup.
package repository

import (
	"context"
	"fmt"

	"github.com/padraicbc/racetiming/timing"
)

// ConfigurationRepository finds the configuration a competition is built from.
// A missing configuration is reported with ok == false and a nil error.
type ConfigurationRepository interface {
	CompetitionConfiguration(ctx context.Context, id timing.ConfigurationID) (cfg timing.CompetitionConfiguration, ok bool, err error)
}

// ConfigurationStore is a repository that can also persist configurations.
type ConfigurationStore interface {
	ConfigurationRepository
	SaveCompetitionConfiguration(ctx context.Context, cfg timing.CompetitionConfiguration) error
}

func validate(cfg timing.CompetitionConfiguration) error {
	if cfg.ID == "" {
		return fmt.Errorf("configuration id is required")
	}
	if len(cfg.Tracks) == 0 {
		return fmt.Errorf("configuration %q: at least one track is required", cfg.ID)
	}
	for id, tc := range cfg.Tracks {
		if id == "" {
			return fmt.Errorf("configuration %q: empty track id", cfg.ID)
		}
		if tc.OverlapLimit < 1 {
			return fmt.Errorf("configuration %q: track %q: overlap limit must be at least 1", cfg.ID, id)
		}
	}
	return nil
}
