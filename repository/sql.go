package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/padraicbc/racetiming/models"
	"github.com/padraicbc/racetiming/timing"
)

// SQL stores configurations in the competition_configurations and
// configuration_tracks tables through bun.
type SQL struct {
	db *bun.DB
}

func NewSQL(db *bun.DB) *SQL {
	return &SQL{db: db}
}

func (s *SQL) CompetitionConfiguration(ctx context.Context, id timing.ConfigurationID) (timing.CompetitionConfiguration, bool, error) {
	var row models.CompetitionConfiguration
	err := s.db.NewSelect().
		Model(&row).
		Relation("Tracks").
		Where("cc.id = ?", string(id)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return timing.CompetitionConfiguration{}, false, nil
	}
	if err != nil {
		return timing.CompetitionConfiguration{}, false, fmt.Errorf("select configuration %q: %w", id, err)
	}
	return fromModel(&row), true, nil
}

// SaveCompetitionConfiguration replaces the configuration and all of its tracks.
func (s *SQL) SaveCompetitionConfiguration(ctx context.Context, cfg timing.CompetitionConfiguration) error {
	if err := validate(cfg); err != nil {
		return err
	}
	row := toModel(cfg)
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(row).
			On("CONFLICT (id) DO UPDATE").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx); err != nil {
			return fmt.Errorf("upsert configuration %q: %w", cfg.ID, err)
		}
		if _, err := tx.NewDelete().Model((*models.ConfigurationTrack)(nil)).
			Where("configuration_id = ?", row.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("clear tracks of %q: %w", cfg.ID, err)
		}
		if _, err := tx.NewInsert().Model(&row.Tracks).Exec(ctx); err != nil {
			return fmt.Errorf("insert tracks of %q: %w", cfg.ID, err)
		}
		return nil
	})
}

func toModel(cfg timing.CompetitionConfiguration) *models.CompetitionConfiguration {
	row := &models.CompetitionConfiguration{
		ID:        string(cfg.ID),
		UpdatedAt: time.Now().UTC(),
		Tracks:    make([]*models.ConfigurationTrack, 0, len(cfg.Tracks)),
	}
	for id, tc := range cfg.Tracks {
		row.Tracks = append(row.Tracks, &models.ConfigurationTrack{
			ConfigurationID: row.ID,
			TrackID:         string(id),
			OverlapLimit:    tc.OverlapLimit,
			RecordType:      tc.RecordType,
		})
	}
	return row
}

func fromModel(row *models.CompetitionConfiguration) timing.CompetitionConfiguration {
	cfg := timing.CompetitionConfiguration{
		ID:     timing.ConfigurationID(row.ID),
		Tracks: make(map[timing.TrackID]timing.TrackConfiguration, len(row.Tracks)),
	}
	for _, t := range row.Tracks {
		cfg.Tracks[timing.TrackID(t.TrackID)] = timing.TrackConfiguration{
			OverlapLimit: t.OverlapLimit,
			RecordType:   t.RecordType,
		}
	}
	return cfg
}
