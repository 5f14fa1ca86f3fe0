package state

import (
	"github.com/agrochain/ledger/foundation/blockchain/database"
)

// SubmitTransaction validates the transaction, assigns a timestamp if one is
// missing and appends it to the pending queue. The stamped transaction is
// returned.
func (s *State) SubmitTransaction(tx database.Tx) (database.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := tx.Validate(); err != nil {
		s.evHandler("state: SubmitTransaction: rejected: tx[%s]: %s", tx, err)
		return database.Tx{}, err
	}

	tx = tx.Stamp(s.clock())

	n := s.mempool.Append(tx)
	s.evHandler("state: SubmitTransaction: queued: tx[%s]: pending[%d]", tx, n)

	return tx.Copy(), nil
}
