// Package mempool maintains the queue of transactions waiting to be mined.
package mempool

import (
	"sync"

	"github.com/agrochain/ledger/foundation/blockchain/database"
)

// Mempool represents an ordered queue of pending transactions. Submission
// order is preserved and transaction ids aren't deduplicated.
type Mempool struct {
	mu   sync.RWMutex
	pool []database.Tx
}

// New constructs a new mempool.
func New() (*Mempool, error) {
	return &Mempool{}, nil
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Append adds a transaction to the end of the queue and returns the new
// size of the pool.
func (mp *Mempool) Append(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx.Copy())

	return len(mp.pool)
}

// PickBest returns a copy of the oldest howMany transactions in submission
// order. A value of -1 returns the whole pool.
func (mp *Mempool) PickBest(howMany int) []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if howMany < 0 || howMany > len(mp.pool) {
		howMany = len(mp.pool)
	}

	txs := make([]database.Tx, howMany)
	for i := range howMany {
		txs[i] = mp.pool[i].Copy()
	}

	return txs
}

// Copy returns a copy of every transaction in the pool.
func (mp *Mempool) Copy() []database.Tx {
	return mp.PickBest(-1)
}

// Remove drops the oldest howMany transactions from the pool. Anything
// appended after they were picked stays queued.
func (mp *Mempool) Remove(howMany int) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if howMany >= len(mp.pool) {
		mp.pool = nil
		return
	}

	mp.pool = append([]database.Tx(nil), mp.pool[howMany:]...)
}

// Replace swaps the contents of the pool for the specified transactions.
func (mp *Mempool) Replace(txs []database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make([]database.Tx, len(txs))
	for i, tx := range txs {
		mp.pool[i] = tx.Copy()
	}
}
