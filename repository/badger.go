package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/padraicbc/racetiming/timing"
)

const configurationEntity = "CONFIG"

// Badger keeps configurations in an embedded badger database, msgpack
// encoded under "CONFIG/<id>" keys.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a badger database in dir. An empty dir opens
// an in-memory database.
func OpenBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) key(id timing.ConfigurationID) []byte {
	return []byte(fmt.Sprintf("%s/%s", configurationEntity, id))
}

func (b *Badger) CompetitionConfiguration(_ context.Context, id timing.ConfigurationID) (timing.CompetitionConfiguration, bool, error) {
	var cfg timing.CompetitionConfiguration
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &cfg)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return timing.CompetitionConfiguration{}, false, nil
	}
	if err != nil {
		return timing.CompetitionConfiguration{}, false, fmt.Errorf("failed to read configuration %q: %w", id, err)
	}
	return cfg, true, nil
}

func (b *Badger) SaveCompetitionConfiguration(_ context.Context, cfg timing.CompetitionConfiguration) error {
	if err := validate(cfg); err != nil {
		return err
	}
	buf, err := msgpack.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key(cfg.ID), buf)
	})
}

// List returns every stored configuration id.
func (b *Badger) List() ([]timing.ConfigurationID, error) {
	prefix := []byte(configurationEntity + "/")
	var ids []timing.ConfigurationID
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, timing.ConfigurationID(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list configurations: %w", err)
	}
	return ids, nil
}

// Close flattens and closes the database.
func (b *Badger) Close() error {
	if !b.db.Opts().InMemory {
		if err := b.db.Flatten(1); err != nil {
			return fmt.Errorf("flatten on close: %w", err)
		}
	}
	return b.db.Close()
}
