package main

import (
	"fmt"

	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/agrochain/ledger/foundation/blockchain/storage/badger"
	"github.com/agrochain/ledger/foundation/blockchain/storage/disk"
	"github.com/agrochain/ledger/foundation/blockchain/storage/leveldb"
	"github.com/agrochain/ledger/foundation/blockchain/storage/memory"
	"github.com/agrochain/ledger/foundation/blockchain/storage/sqldb"
)

// storageConfig selects and configures the block storage backend.
type storageConfig struct {
	Kind         string
	Path         string
	DSN          string
	MaxIdleConns int
	MaxOpenConns int
}

// openStorage constructs the block storage for the configured kind.
func openStorage(cfg storageConfig) (database.Serializer, error) {
	switch cfg.Kind {
	case "memory":
		return memory.New()

	case "disk":
		return disk.New(cfg.Path)

	case "leveldb":
		return leveldb.New(cfg.Path)

	case "badger":
		return badger.New(cfg.Path)

	case "postgres":
		return sqldb.Open(sqldb.Config{
			DSN:          cfg.DSN,
			MaxIdleConns: cfg.MaxIdleConns,
			MaxOpenConns: cfg.MaxOpenConns,
		})
	}

	return nil, fmt.Errorf("unknown storage kind %q", cfg.Kind)
}
