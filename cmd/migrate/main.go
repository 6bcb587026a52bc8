// cmd/migrate/main.go
// Imports operator accounts and competition layouts from the legacy MySQL
// timing database into the local PostgreSQL database.
//
// Usage:
//
//	MYSQL_DSN="user:pass@tcp(host:3306)/timing?parseTime=true" \
//	DB_PASS="pgpass" JWT_SECRET=x \
//	go run ./cmd/migrate
package main

import (
	"context"
	"database/sql"
	"log"
	"sort"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"

	"github.com/padraicbc/racetiming/config"
	bundb "github.com/padraicbc/racetiming/db"
	"github.com/padraicbc/racetiming/models"
	"github.com/padraicbc/racetiming/repository"
	"github.com/padraicbc/racetiming/timing"
)

const batchSize = 500

// legacyTrack is one row of the legacy competition_tracks table.
type legacyTrack struct {
	CompetitionID string
	TrackID       string
	OverlapLimit  int
	RecordType    sql.NullString
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// --- MySQL ---
	if cfg.MySQLDSN == "" {
		log.Fatal("MYSQL_DSN required, e.g.: user:pass@tcp(host:3306)/timing?parseTime=true")
	}
	myDB, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("open mysql: %v", err)
	}
	defer myDB.Close()
	myDB.SetMaxOpenConns(4)
	if err := myDB.PingContext(ctx); err != nil {
		log.Fatalf("ping mysql: %v", err)
	}
	log.Println("connected to MySQL")

	// --- PostgreSQL ---
	pgDB, err := bundb.Setup(ctx, cfg)
	if err != nil {
		log.Fatalf("setup postgres: %v", err)
	}
	defer pgDB.Close()
	log.Println("connected to PostgreSQL")

	if err := bundb.CreateTables(ctx, pgDB); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"operators", func() (int, error) { return migrateOperators(ctx, myDB, pgDB) }},
		{"competitions", func() (int, error) { return migrateCompetitions(ctx, myDB, repository.NewSQL(pgDB)) }},
	}

	for _, s := range steps {
		n, err := s.fn()
		if err != nil {
			log.Fatalf("migrate %s: %v", s.name, err)
		}
		log.Printf("%-15s  %d rows migrated", s.name, n)
	}

	resetSequences(ctx, pgDB)
	log.Println("migration complete")
}

// bulkInsert inserts a batch, skipping rows that already exist (idempotent re-runs).
func bulkInsert[T any](ctx context.Context, pgDB *bun.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := pgDB.NewInsert().Model(&rows).On("CONFLICT DO NOTHING").Exec(ctx)
	return err
}

func migrateOperators(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx, "SELECT id, username, password FROM operators")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []models.Operator
	total := 0
	for rows.Next() {
		var r models.Operator
		if err := rows.Scan(&r.ID, &r.Username, &r.Password); err != nil {
			return total, err
		}
		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

func migrateCompetitions(ctx context.Context, myDB *sql.DB, store repository.ConfigurationStore) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		`SELECT competition_id, track_id, overlap_limit, record_type
		 FROM competition_tracks
		 ORDER BY competition_id, track_id`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var tracks []legacyTrack
	for rows.Next() {
		var r legacyTrack
		if err := rows.Scan(&r.CompetitionID, &r.TrackID, &r.OverlapLimit, &r.RecordType); err != nil {
			return 0, err
		}
		tracks = append(tracks, r)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	cfgs := groupTracks(tracks)
	for _, c := range cfgs {
		if err := store.SaveCompetitionConfiguration(ctx, c); err != nil {
			return 0, err
		}
	}
	return len(tracks), nil
}

// groupTracks folds legacy track rows into configurations ordered by id.
// Legacy rows allowed an overlap limit of 0 to mean a single car.
func groupTracks(rows []legacyTrack) []timing.CompetitionConfiguration {
	byID := map[timing.ConfigurationID]timing.CompetitionConfiguration{}
	for _, r := range rows {
		id := timing.ConfigurationID(r.CompetitionID)
		c, ok := byID[id]
		if !ok {
			c = timing.CompetitionConfiguration{ID: id, Tracks: map[timing.TrackID]timing.TrackConfiguration{}}
		}
		limit := r.OverlapLimit
		if limit < 1 {
			limit = 1
		}
		c.Tracks[timing.TrackID(r.TrackID)] = timing.TrackConfiguration{
			OverlapLimit: limit,
			RecordType:   r.RecordType.String,
		}
		byID[id] = c
	}

	out := make([]timing.CompetitionConfiguration, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// resetSequences advances the operator id sequence to MAX(id) so new inserts don't conflict.
func resetSequences(ctx context.Context, pgDB *bun.DB) {
	q := "SELECT setval('operators_id_seq', COALESCE((SELECT MAX(id) FROM operators), 1))"
	if _, err := pgDB.ExecContext(ctx, q); err != nil {
		log.Printf("reset seq operators_id_seq: %v", err)
	}
	log.Println("sequences reset")
}
