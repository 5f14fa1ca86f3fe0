// Package leveldb implements the ability to read and write blocks to a
// LevelDB database.
package leveldb

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Key prefixes used to organize the database.
const (
	blockKeyPrefix = "block_" // Blocks keyed by zero padded number.
	heightKey      = "height" // Number of the latest stored block.
)

// LevelDB represents the serialization implementation for reading and
// storing blocks in LevelDB. This implements the database.Serializer
// interface.
type LevelDB struct {
	mu sync.Mutex
	db *leveldb.DB
}

// New opens or creates the database at the specified path.
func New(dbPath string) (*LevelDB, error) {
	options := opt.Options{
		BlockCacheCapacity: 8 * opt.MiB,
		WriteBuffer:        4 * opt.MiB,
	}

	db, err := leveldb.OpenFile(dbPath, &options)
	if err != nil {
		return nil, fmt.Errorf("opening leveldb: %w", err)
	}

	return &LevelDB{db: db}, nil
}

// Close closes the database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Write stores the block and moves the height forward in one batch.
func (l *LevelDB) Write(blockData database.BlockData) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	height, err := l.height()
	if err != nil {
		return err
	}

	if blockData.Number != height+1 {
		return fmt.Errorf("block %d is out of order, exp %d", blockData.Number, height+1)
	}

	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Put(blockKey(blockData.Number), data)
	batch.Put([]byte(heightKey), fmt.Appendf(nil, "%d", blockData.Number))

	return l.db.Write(batch, nil)
}

// GetBlock locates and returns the specified block by number.
func (l *LevelDB) GetBlock(num uint64) (database.BlockData, error) {
	data, err := l.db.Get(blockKey(num), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return database.BlockData{}, fmt.Errorf("block %d: %w", num, database.ErrNotFound)
		}
		return database.BlockData{}, err
	}

	var blockData database.BlockData
	if err := json.Unmarshal(data, &blockData); err != nil {
		return database.BlockData{}, fmt.Errorf("block %d: %w", num, err)
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (l *LevelDB) ForEach() database.Iterator {
	return &levelIterator{storage: l}
}

// Reset deletes every block and the height.
func (l *LevelDB) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	batch := new(leveldb.Batch)

	iter := l.db.NewIterator(util.BytesPrefix([]byte(blockKeyPrefix)), nil)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	batch.Delete([]byte(heightKey))

	return l.db.Write(batch, nil)
}

// height returns the number of the latest stored block, 0 when empty.
func (l *LevelDB) height() (uint64, error) {
	data, err := l.db.Get([]byte(heightKey), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	var height uint64
	if _, err := fmt.Sscanf(string(data), "%d", &height); err != nil {
		return 0, fmt.Errorf("parsing height: %w", err)
	}

	return height, nil
}

func blockKey(num uint64) []byte {
	return fmt.Appendf(nil, "%s%020d", blockKeyPrefix, num)
}

// =============================================================================

// levelIterator represents the iteration implementation for walking
// through and reading blocks. This implements the database Iterator
// interface.
type levelIterator struct {
	storage *LevelDB // Access to the storage API.
	current uint64   // Current block number being iterated over.
	eoc     bool     // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block.
func (li *levelIterator) Next() (database.BlockData, error) {
	if li.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	li.current++
	blockData, err := li.storage.GetBlock(li.current)
	if errors.Is(err, database.ErrNotFound) {
		li.eoc = true
	}

	return blockData, err
}

// Done returns the end of chain value.
func (li *levelIterator) Done() bool {
	return li.eoc
}
