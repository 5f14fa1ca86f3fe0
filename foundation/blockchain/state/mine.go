package state

import (
	"context"
	"encoding/json"

	"github.com/agrochain/ledger/foundation/blockchain/database"
)

// MineNewBlock seals the pending transactions into a new block. A nil block
// and nil error are returned when there is nothing to mine. Transactions
// submitted while the proof of work runs stay queued for the next block.
func (s *State) MineNewBlock(ctx context.Context) (*database.Block, error) {
	s.miningMu.Lock()
	defer s.miningMu.Unlock()

	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	howMany := -1
	if s.genesis.TransPerBlock > 0 {
		howMany = int(s.genesis.TransPerBlock)
	}

	s.mu.Lock()
	trans := s.mempool.PickBest(howMany)
	prevBlock := s.db.LatestBlock()
	now := s.clock()
	s.mu.Unlock()

	if len(trans) == 0 {
		s.evHandler("state: MineNewBlock: MINING: no transactions to mine")
		return nil, nil
	}

	if s.miningTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.miningTimeout)
		defer cancel()
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW: txs[%d]", len(trans))

	block, err := database.POW(ctx, database.POWArgs{
		HashStrategy: s.db.HashStrategy(),
		Difficulty:   s.genesis.Difficulty,
		PrevBlock:    prevBlock,
		Trans:        trans,
		TimeStamp:    now,
		EvHandler:    s.evHandler,
	})
	if err != nil {
		return nil, err
	}

	s.evHandler("state: MineNewBlock: MINING: update local state")

	if err := s.updateLocalState(block, len(trans)); err != nil {
		return nil, err
	}

	s.blockEvent(block)

	return &block, nil
}

// updateLocalState writes the block to storage, folds its transactions into
// the product state and drops the mined transactions from the pending queue
// as one step.
func (s *State) updateLocalState(block database.Block, mined int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: updateLocalState: write block[%d]", block.Header.Number)

	if err := s.db.Write(block); err != nil {
		return err
	}

	s.evHandler("state: updateLocalState: remove txs[%d] from mempool", mined)

	s.mempool.Remove(mined)

	return nil
}

// blockEvent publishes the new block for anyone watching the ledger.
func (s *State) blockEvent(block database.Block) {
	data, err := json.Marshal(block)
	if err != nil {
		s.evHandler("state: blockEvent: ERROR: %s", err)
		return
	}

	s.evHandler("viewer: block: %s", string(data))
}
