// Package database handles all the lower level support for maintaining the
// chain of blocks and the product state projected from it.
package database

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/agrochain/ledger/foundation/blockchain/digest"
	"github.com/agrochain/ledger/foundation/blockchain/genesis"
)

// ErrNotFound is returned when a block or product doesn't exist.
var ErrNotFound = errors.New("not found")

// Serializer interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain. The
// genesis block is never written, storage starts at block number 1.
type Serializer interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks. Next marks the
// iterator done once the end of the chain is reached.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// Database manages the chain of blocks and the product state derived by
// replaying their transactions.
type Database struct {
	mu sync.RWMutex

	genesis      genesis.Genesis
	hashStrategy digest.Strategy
	blocks       []Block
	products     map[string]Product

	serializer Serializer
}

// New constructs a new database, creates the genesis block and replays any
// blocks already held by the serializer.
func New(gen genesis.Genesis, serializer Serializer, evHandler func(v string, args ...any)) (*Database, error) {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	hashStrategy, err := digest.Retrieve(gen.HashStrategy)
	if err != nil {
		return nil, err
	}

	genBlock, err := GenesisBlock(gen, hashStrategy)
	if err != nil {
		return nil, err
	}

	db := Database{
		genesis:      gen,
		hashStrategy: hashStrategy,
		blocks:       []Block{genBlock},
		products:     make(map[string]Product),
		serializer:   serializer,
	}

	iter := db.serializer.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		block := ToBlock(blockData)
		if err := block.ValidateBlock(db.blocks[len(db.blocks)-1], gen.Difficulty, hashStrategy, evHandler); err != nil {
			return nil, fmt.Errorf("replaying stored blocks: %w", err)
		}

		db.blocks = append(db.blocks, block)
		for _, tx := range block.Trans {
			db.ApplyTransaction(tx)
		}
	}

	return &db, nil
}

// Close closes the open blocks database.
func (db *Database) Close() error {
	return db.serializer.Close()
}

// Genesis returns the genesis settings the database was constructed with.
func (db *Database) Genesis() genesis.Genesis {
	return db.genesis
}

// HashStrategy returns the hash strategy used for blocks and merkle roots.
func (db *Database) HashStrategy() digest.Strategy {
	return db.hashStrategy
}

// ApplyTransaction folds the transaction into the product state. It reports
// whether the product state changed. Transactions that reference unknown
// products, or transfers from someone other than the owner, are no-ops.
func (db *Database) ApplyTransaction(tx Tx) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	return applyTx(db.products, tx)
}

// Write adds a new mined block to the chain, persists it and folds its
// transactions into the product state.
func (db *Database) Write(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	latest := db.blocks[len(db.blocks)-1]
	if block.Header.Number != latest.Header.Number+1 {
		return fmt.Errorf("block %d is out of order, exp %d", block.Header.Number, latest.Header.Number+1)
	}

	if err := db.serializer.Write(NewBlockData(block)); err != nil {
		return err
	}

	block = block.Copy()
	db.blocks = append(db.blocks, block)
	for _, tx := range block.Trans {
		applyTx(db.products, tx)
	}

	return nil
}

// LatestBlock returns the latest block in the chain.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.blocks[len(db.blocks)-1].Copy()
}

// GetBlock returns the block with the specified number.
func (db *Database) GetBlock(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if num >= uint64(len(db.blocks)) {
		return Block{}, fmt.Errorf("block %d: %w", num, ErrNotFound)
	}

	return db.blocks[num].Copy(), nil
}

// Blocks returns a copy of every block in the chain, genesis included.
func (db *Database) Blocks() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]Block, len(db.blocks))
	for i, block := range db.blocks {
		blocks[i] = block.Copy()
	}

	return blocks
}

// ForEachBlock calls fn with each block in chain order while holding a read
// lock. Iteration stops when fn returns false. The block handed to fn must
// not be modified.
func (db *Database) ForEachBlock(fn func(block Block) bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, block := range db.blocks {
		if !fn(block) {
			return
		}
	}
}

// BlockCount returns the number of blocks in the chain, genesis included.
func (db *Database) BlockCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.blocks)
}

// TransactionCount returns the number of transactions sealed across all
// blocks.
func (db *Database) TransactionCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var count int
	for _, block := range db.blocks {
		count += len(block.Trans)
	}

	return count
}

// ProductCount returns the number of products in the projected state.
func (db *Database) ProductCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.products)
}

// QueryProduct returns the current state of the specified product.
func (db *Database) QueryProduct(productID string) (Product, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	prd, exists := db.products[productID]
	if !exists {
		return Product{}, fmt.Errorf("product %q: %w", productID, ErrNotFound)
	}

	return prd.Copy(), nil
}

// CopyProducts returns a copy of the projected product state ordered by
// product id.
func (db *Database) CopyProducts() []Product {
	db.mu.RLock()
	defer db.mu.RUnlock()

	products := make([]Product, 0, len(db.products))
	for _, prd := range db.products {
		products = append(products, prd.Copy())
	}

	sort.Slice(products, func(i, j int) bool {
		return products[i].ID < products[j].ID
	})

	return products
}

// Project replays the transactions of the blocks in chain order and returns
// the resulting product state.
func Project(blocks []Block) map[string]Product {
	products := make(map[string]Product)
	for _, block := range blocks {
		for _, tx := range block.Trans {
			applyTx(products, tx)
		}
	}

	return products
}

// Replace swaps the entire chain for the provided blocks and rebuilds the
// product state by replaying them. The blocks after genesis are rewritten to
// storage. When storage fails part way the previous chain is written back
// and nothing in memory changes.
func (db *Database) Replace(blocks []Block) error {
	if len(blocks) == 0 {
		return errors.New("chain must contain a genesis block")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.rewrite(blocks[1:]); err != nil {
		if rerr := db.rewrite(db.blocks[1:]); rerr != nil {
			return fmt.Errorf("%w: restoring previous chain: %w", err, rerr)
		}
		return err
	}

	db.blocks = make([]Block, len(blocks))
	for i, block := range blocks {
		db.blocks[i] = block.Copy()
	}

	db.products = Project(db.blocks)

	return nil
}

// rewrite resets storage and writes the specified blocks in order.
func (db *Database) rewrite(blocks []Block) error {
	if err := db.serializer.Reset(); err != nil {
		return fmt.Errorf("resetting storage: %w", err)
	}

	for _, block := range blocks {
		if err := db.serializer.Write(NewBlockData(block)); err != nil {
			return fmt.Errorf("writing block %d: %w", block.Header.Number, err)
		}
	}

	return nil
}
