// Package badger implements the ability to read and write blocks to a
// Badger key value store.
package badger

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/dgraph-io/badger/v4"
)

// Key prefixes used to organize the store.
var (
	blockKeyPrefix = []byte("block/")
	heightKey      = []byte("last_block_height")
)

// Badger represents the serialization implementation for reading and
// storing blocks in Badger. This implements the database.Serializer
// interface.
type Badger struct {
	db *badger.DB
}

// New opens or creates the store at the specified path. An empty path
// opens an in-memory store.
func New(dbPath string) (*Badger, error) {
	options := badger.DefaultOptions(dbPath).WithLogger(nil)
	if dbPath == "" {
		options = options.WithInMemory(true)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}

	return &Badger{db: db}, nil
}

// Close closes the store.
func (b *Badger) Close() error {
	return b.db.Close()
}

// Write stores the block and moves the height forward in one transaction.
func (b *Badger) Write(blockData database.BlockData) error {
	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		height, err := readHeight(txn)
		if err != nil {
			return err
		}

		if blockData.Number != height+1 {
			return fmt.Errorf("block %d is out of order, exp %d", blockData.Number, height+1)
		}

		if err := txn.Set(blockKey(blockData.Number), data); err != nil {
			return err
		}

		return txn.Set(heightKey, uint64ToBytes(blockData.Number))
	})
}

// GetBlock locates and returns the specified block by number.
func (b *Badger) GetBlock(num uint64) (database.BlockData, error) {
	var blockData database.BlockData

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blockKey(num))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("block %d: %w", num, database.ErrNotFound)
			}
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &blockData)
		})
	})

	if err != nil {
		return database.BlockData{}, err
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (b *Badger) ForEach() database.Iterator {
	return &badgerIterator{storage: b}
}

// Reset deletes every block and the height.
func (b *Badger) Reset() error {
	if err := b.db.DropPrefix(blockKeyPrefix); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(heightKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// =============================================================================

func readHeight(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get(heightKey)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}

	var height uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("invalid height length %d", len(val))
		}
		height = binary.BigEndian.Uint64(val)
		return nil
	})

	return height, err
}

func blockKey(num uint64) []byte {
	return append(append([]byte(nil), blockKeyPrefix...), uint64ToBytes(num)...)
}

func uint64ToBytes(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

// =============================================================================

// badgerIterator represents the iteration implementation for walking
// through and reading blocks. This implements the database Iterator
// interface.
type badgerIterator struct {
	storage *Badger // Access to the storage API.
	current uint64  // Current block number being iterated over.
	eoc     bool    // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block.
func (bi *badgerIterator) Next() (database.BlockData, error) {
	if bi.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	bi.current++
	blockData, err := bi.storage.GetBlock(bi.current)
	if errors.Is(err, database.ErrNotFound) {
		bi.eoc = true
	}

	return blockData, err
}

// Done returns the end of chain value.
func (bi *badgerIterator) Done() bool {
	return bi.eoc
}
