// cmd/adduser/main.go
// Creates or updates a timing desk operator in the database.
//
// Usage:
//
//	go run ./cmd/adduser -username desk1 -password testing
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/padraicbc/racetiming/config"
	bundb "github.com/padraicbc/racetiming/db"
	"github.com/padraicbc/racetiming/handlers"
	"github.com/padraicbc/racetiming/models"
)

func main() {
	username := flag.String("username", "", "username (required)")
	password := flag.String("password", "", "plain-text password (required)")
	flag.Parse()

	hash, err := handlers.HashPasswordForUser(*username, *password)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
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

	op := &models.Operator{
		Username: *username,
		Password: hash,
	}

	_, err = db.NewInsert().Model(op).
		On("CONFLICT (username) DO UPDATE SET password = EXCLUDED.password").
		Exec(ctx)
	if err != nil {
		log.Fatal("insert operator:", err)
	}

	fmt.Printf("operator %q saved\n", *username)
}
