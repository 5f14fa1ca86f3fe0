// Package sqldb implements the ability to read and write blocks to a
// Postgres database through gorm.
package sqldb

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// pgErrUniqueViolation is the Postgres code for a unique constraint failure.
const pgErrUniqueViolation = "23505"

// Block is the row stored for each block.
type Block struct {
	Number    uint64 `gorm:"primaryKey;autoIncrement:false"`
	Hash      string `gorm:"size:128;not null"`
	Data      []byte `gorm:"not null"`
	CreatedAt time.Time
}

// TableName sets the table used for blocks.
func (Block) TableName() string {
	return "ledger_blocks"
}

// Config is the information required to open the database.
type Config struct {
	DSN          string
	MaxIdleConns int
	MaxOpenConns int
}

// SQLDB represents the serialization implementation for reading and
// storing blocks in Postgres. This implements the database.Serializer
// interface.
type SQLDB struct {
	db *gorm.DB
}

// Open connects to the database and migrates the blocks table.
func Open(cfg Config) (*SQLDB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	return New(db)
}

// New constructs the storage over an existing gorm connection.
func New(db *gorm.DB) (*SQLDB, error) {
	if err := db.AutoMigrate(&Block{}); err != nil {
		return nil, fmt.Errorf("migrating blocks: %w", err)
	}

	return &SQLDB{db: db}, nil
}

// Close closes the connection pool.
func (s *SQLDB) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Write stores the block. The previous block has to be present.
func (s *SQLDB) Write(blockData database.BlockData) error {
	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Block{}).Count(&count).Error; err != nil {
			return err
		}

		if blockData.Number != uint64(count)+1 {
			return fmt.Errorf("block %d is out of order, exp %d", blockData.Number, count+1)
		}

		row := Block{
			Number: blockData.Number,
			Hash:   blockData.Hash,
			Data:   data,
		}

		if err := tx.Create(&row).Error; err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
				return fmt.Errorf("block %d already stored: %s", blockData.Number, pgErr.Message)
			}
			return err
		}

		return nil
	})
}

// GetBlock locates and returns the specified block by number.
func (s *SQLDB) GetBlock(num uint64) (database.BlockData, error) {
	var row Block
	if err := s.db.Where("number = ?", num).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return database.BlockData{}, fmt.Errorf("block %d: %w", num, database.ErrNotFound)
		}
		return database.BlockData{}, err
	}

	var blockData database.BlockData
	if err := json.Unmarshal(row.Data, &blockData); err != nil {
		return database.BlockData{}, fmt.Errorf("block %d: %w", num, err)
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (s *SQLDB) ForEach() database.Iterator {
	return &sqlIterator{storage: s}
}

// Reset deletes every block.
func (s *SQLDB) Reset() error {
	return s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Block{}).Error
}

// =============================================================================

// sqlIterator represents the iteration implementation for walking
// through and reading blocks. This implements the database Iterator
// interface.
type sqlIterator struct {
	storage *SQLDB // Access to the storage API.
	current uint64 // Current block number being iterated over.
	eoc     bool   // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block.
func (si *sqlIterator) Next() (database.BlockData, error) {
	if si.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	si.current++
	blockData, err := si.storage.GetBlock(si.current)
	if errors.Is(err, database.ErrNotFound) {
		si.eoc = true
	}

	return blockData, err
}

// Done returns the end of chain value.
func (si *sqlIterator) Done() bool {
	return si.eoc
}
