// cmd/importconfig/main.go
// Loads competition layouts from a YAML file into the configured store.
//
// Usage:
//
//	go run ./cmd/importconfig -file competitions.yaml -to postgres
//	go run ./cmd/importconfig -file competitions.yaml -to badger -badger ./data/badger
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/padraicbc/racetiming/config"
	bundb "github.com/padraicbc/racetiming/db"
	"github.com/padraicbc/racetiming/repository"
	"github.com/padraicbc/racetiming/timing"
)

func main() {
	file := flag.String("file", "competitions.yaml", "YAML file with a competitions list")
	to := flag.String("to", config.SourcePostgres, "destination store: postgres or badger")
	badgerDir := flag.String("badger", "", "badger directory (defaults to BADGER_DIR)")
	flag.Parse()

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal(err)
	}
	cfgs, err := repository.ParseConfigurations(data)
	if err != nil {
		log.Fatalf("%s: %v", *file, err)
	}

	ctx := context.Background()
	switch *to {
	case config.SourcePostgres:
		cfg, err := config.Load()
		if err != nil {
			log.Fatal(err)
		}
		db, err := bundb.Setup(ctx, cfg)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		if err := bundb.CreateTables(ctx, db); err != nil {
			log.Fatal("create tables:", err)
		}
		if err := save(ctx, repository.NewSQL(db), cfgs); err != nil {
			log.Fatal(err)
		}
	case config.SourceBadger:
		dir := *badgerDir
		if dir == "" {
			cfg, err := config.Load()
			if err != nil {
				log.Fatal(err)
			}
			dir = cfg.BadgerDir
		}
		store, err := repository.OpenBadger(dir)
		if err != nil {
			log.Fatal(err)
		}
		err = save(ctx, store, cfgs)
		if err == nil {
			var ids []timing.ConfigurationID
			if ids, err = store.List(); err == nil {
				log.Printf("badger now holds %d configurations", len(ids))
			}
		}
		if cerr := store.Close(); cerr != nil {
			log.Printf("close badger: %v", cerr)
		}
		if err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("unknown destination %q", *to)
	}
}

func save(ctx context.Context, store repository.ConfigurationStore, cfgs []timing.CompetitionConfiguration) error {
	for _, c := range cfgs {
		if err := store.SaveCompetitionConfiguration(ctx, c); err != nil {
			return fmt.Errorf("save %q: %w", c.ID, err)
		}
		fmt.Printf("configuration %q saved (%d tracks)\n", c.ID, len(c.Tracks))
	}
	return nil
}
