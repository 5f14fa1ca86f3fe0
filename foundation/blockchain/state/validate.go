package state

import (
	"fmt"

	"github.com/agrochain/ledger/foundation/blockchain/database"
)

// ValidateChain walks the chain and checks every block after genesis for a
// matching hash, a link to its parent and a solved proof of work. The first
// failure is returned and the offending block index is logged.
func (s *State) ValidateChain() error {
	return s.validateBlocks(s.db.Blocks())
}

// IsValid reports whether the chain passes ValidateChain.
func (s *State) IsValid() bool {
	return s.ValidateChain() == nil
}

func (s *State) validateBlocks(blocks []database.Block) error {
	hashStrategy := s.db.HashStrategy()

	for i := 1; i < len(blocks); i++ {
		if err := blocks[i].ValidateBlock(blocks[i-1], s.genesis.Difficulty, hashStrategy, nil); err != nil {
			s.evHandler("state: ValidateChain: INVALID: blk[%d]: %s", i, err)
			return fmt.Errorf("%w: block %d: %w", ErrChainInvalid, i, err)
		}
	}

	return nil
}
