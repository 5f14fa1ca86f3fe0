package state

import (
	"fmt"

	"github.com/agrochain/ledger/foundation/blockchain/database"
)

// TamperTrans changes the sealed transactions of a block in place, without
// any checks, so integrity failures can be exercised.
func TamperTrans(s *State, num uint64, fn func(trans []database.Tx)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found bool
	s.db.ForEachBlock(func(block database.Block) bool {
		if block.Header.Number != num {
			return true
		}
		found = true
		fn(block.Trans)
		return false
	})

	if !found {
		return fmt.Errorf("block %d: %w", num, database.ErrNotFound)
	}

	return nil
}
