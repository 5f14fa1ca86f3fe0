package state

import (
	"fmt"
	"sort"

	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/agrochain/ledger/foundation/blockchain/merkle"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// =============================================================================

// Stats summarizes the ledger.
type Stats struct {
	TotalBlocks         int  `json:"totalBlocks"`
	TotalTransactions   int  `json:"totalTransactions"`
	TotalProducts       int  `json:"totalProducts"`
	PendingTransactions int  `json:"pendingTransactions"`
	IsValid             bool `json:"isValid"`
}

// TxProof shows a transaction is part of a mined block.
type TxProof struct {
	BlockNumber uint64      `json:"blockNumber"`
	BlockHash   string      `json:"blockHash"`
	MerkleRoot  string      `json:"merkleRoot"`
	LeafHash    string      `json:"leafHash"`
	Proof       []string    `json:"proof"`
	Order       []int64     `json:"order"`
	Verified    bool        `json:"verified"`
	Tx          database.Tx `json:"transaction"`
}

// =============================================================================

// Stats returns the current summary of the ledger.
func (s *State) Stats() Stats {
	s.mu.Lock()
	stats := Stats{
		TotalBlocks:         s.db.BlockCount(),
		TotalTransactions:   s.db.TransactionCount(),
		TotalProducts:       s.db.ProductCount(),
		PendingTransactions: s.mempool.Count(),
	}
	s.mu.Unlock()

	stats.IsValid = s.IsValid()

	return stats
}

// QueryProduct returns the current state of the specified product.
func (s *State) QueryProduct(productID string) (database.Product, error) {
	return s.db.QueryProduct(productID)
}

// QueryProducts returns the current state of every product.
func (s *State) QueryProducts() []database.Product {
	return s.db.CopyProducts()
}

// QueryProductsByBatch returns the products carrying the batch number.
func (s *State) QueryProductsByBatch(batchNumber string) []database.Product {
	var out []database.Product
	for _, prd := range s.db.CopyProducts() {
		if prd.BatchNumber == batchNumber {
			out = append(out, prd)
		}
	}

	return out
}

// QueryProductHistory returns every mined transaction for the product,
// ordered by timestamp. Transactions with equal timestamps keep their chain
// order. Transactions that had no effect on the product are included.
func (s *State) QueryProductHistory(productID string) []database.Tx {
	out := []database.Tx{}

	s.db.ForEachBlock(func(block database.Block) bool {
		for _, tx := range block.Trans {
			if tx.ProductID == productID {
				out = append(out, tx.Copy())
			}
		}
		return true
	})

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimeStamp < out[j].TimeStamp
	})

	return out
}

// QueryMempool returns a copy of the pending transactions.
func (s *State) QueryMempool() []database.Tx {
	return s.mempool.Copy()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryLatestBlock returns the latest block in the chain.
func (s *State) QueryLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// QueryBlocksByNumber returns the set of blocks based on block numbers.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) []database.Block {
	latest := s.db.LatestBlock().Header.Number

	if from == QueryLatest {
		from = latest
		to = from
	}
	if to == QueryLatest || to > latest {
		to = latest
	}

	out := []database.Block{}
	for i := from; i <= to; i++ {
		block, err := s.db.GetBlock(i)
		if err != nil {
			s.evHandler("state: QueryBlocksByNumber: ERROR: %s", err)
			return out
		}
		out = append(out, block)
	}

	return out
}

// QueryTransactionProof locates the mined transaction for the product and
// returns its merkle proof against the block's root.
func (s *State) QueryTransactionProof(productID string, txID string) (TxProof, error) {
	var (
		found bool
		block database.Block
		tx    database.Tx
	)

	s.db.ForEachBlock(func(b database.Block) bool {
		for _, t := range b.Trans {
			if t.ID == txID && t.ProductID == productID {
				found, block, tx = true, b.Copy(), t.Copy()
				return false
			}
		}
		return true
	})

	if !found {
		return TxProof{}, fmt.Errorf("transaction %q for product %q: %w", txID, productID, database.ErrNotFound)
	}

	hashStrategy := s.db.HashStrategy()

	tree, err := merkle.NewTree(block.Trans, merkle.WithHashStrategy[database.Tx](hashStrategy))
	if err != nil {
		return TxProof{}, err
	}

	proof, order, err := tree.Proof(tx)
	if err != nil {
		return TxProof{}, err
	}

	data, err := tx.Bytes()
	if err != nil {
		return TxProof{}, err
	}
	leafHash := hashStrategy(data)

	txProof := TxProof{
		BlockNumber: block.Header.Number,
		BlockHash:   block.Hash,
		MerkleRoot:  block.Header.TransRoot,
		LeafHash:    leafHash,
		Proof:       proof,
		Order:       order,
		Verified:    merkle.VerifyProof(hashStrategy, leafHash, proof, order, block.Header.TransRoot),
		Tx:          tx,
	}

	if txProof.Proof == nil {
		txProof.Proof = []string{}
		txProof.Order = []int64{}
	}

	return txProof, nil
}
