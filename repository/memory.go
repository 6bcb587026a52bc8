package repository

import (
	"context"
	"maps"
	"sync"

	"github.com/padraicbc/racetiming/timing"
)

// Memory keeps configurations in a map.
type Memory struct {
	mu      sync.RWMutex
	configs map[timing.ConfigurationID]timing.CompetitionConfiguration
}

func NewMemory(cfgs ...timing.CompetitionConfiguration) *Memory {
	m := &Memory{configs: make(map[timing.ConfigurationID]timing.CompetitionConfiguration)}
	for _, cfg := range cfgs {
		m.configs[cfg.ID] = cfg
	}
	return m
}

// Fixed answers every lookup with the same configuration, whatever id is asked for.
type Fixed struct {
	Configuration timing.CompetitionConfiguration
}

func (f Fixed) CompetitionConfiguration(_ context.Context, id timing.ConfigurationID) (timing.CompetitionConfiguration, bool, error) {
	cfg := f.Configuration
	cfg.ID = id
	cfg.Tracks = maps.Clone(f.Configuration.Tracks)
	return cfg, true, nil
}

func (m *Memory) CompetitionConfiguration(_ context.Context, id timing.ConfigurationID) (timing.CompetitionConfiguration, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[id]
	if !ok {
		return timing.CompetitionConfiguration{}, false, nil
	}
	cfg.Tracks = maps.Clone(cfg.Tracks)
	return cfg, true, nil
}

func (m *Memory) SaveCompetitionConfiguration(_ context.Context, cfg timing.CompetitionConfiguration) error {
	if err := validate(cfg); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg.Tracks = maps.Clone(cfg.Tracks)
	m.configs[cfg.ID] = cfg
	return nil
}
