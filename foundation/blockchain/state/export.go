package state

import (
	"fmt"
	"reflect"

	"github.com/agrochain/ledger/foundation/blockchain/database"
)

// Export returns the chain, the projected products and the pending queue as
// one consistent snapshot.
func (s *State) Export() database.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make(map[string]database.Product)
	for _, prd := range s.db.CopyProducts() {
		products[prd.ID] = prd
	}

	return database.Snapshot{
		Chain:    s.db.Blocks(),
		Products: products,
		Pending:  s.mempool.Copy(),
	}
}

// Import replaces the chain, the product state and the pending queue with
// the snapshot. Nothing is merged. An empty chain restores a chain holding
// only the genesis block. The chain must start from this ledger's genesis
// block and pass validation or nothing is changed. The product state is
// rebuilt by replaying the imported chain.
func (s *State) Import(snap database.Snapshot) error {
	s.miningMu.Lock()
	defer s.miningMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	genBlock, err := s.db.GetBlock(0)
	if err != nil {
		return err
	}

	chain := snap.Chain
	if len(chain) == 0 {
		chain = []database.Block{genBlock}
	}

	if chain[0].Hash != genBlock.Hash {
		return fmt.Errorf("%w: genesis block mismatch, got %s, exp %s", ErrChainInvalid, chain[0].Hash, genBlock.Hash)
	}

	if err := s.validateBlocks(chain); err != nil {
		return err
	}

	for _, tx := range snap.Pending {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("pending tx %q: %w", tx.ID, err)
		}
	}

	// Products are always the projection of the chain. A snapshot that
	// carries products must agree with that projection.
	products := database.Project(chain)
	if len(snap.Products) > 0 && !sameProducts(snap.Products, products) {
		return fmt.Errorf("%w: products don't match the chain", ErrChainInvalid)
	}

	if err := s.db.Replace(chain); err != nil {
		return err
	}

	s.mempool.Replace(snap.Pending)

	s.evHandler("state: Import: blocks[%d] products[%d] pending[%d]", len(chain), len(products), len(snap.Pending))

	return nil
}

// sameProducts reports whether the snapshot products equal the projection.
// Products are keyed by id in the snapshot.
func sameProducts(snap map[string]database.Product, projected map[string]database.Product) bool {
	if len(snap) != len(projected) {
		return false
	}

	for id, prd := range snap {
		exp, exists := projected[id]
		if !exists {
			return false
		}

		prd.ID = id
		if !reflect.DeepEqual(prd.Copy(), exp.Copy()) {
			return false
		}
	}

	return true
}
