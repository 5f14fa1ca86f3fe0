package worker_test

import (
	"testing"
	"time"

	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/agrochain/ledger/foundation/blockchain/genesis"
	"github.com/agrochain/ledger/foundation/blockchain/state"
	"github.com/agrochain/ledger/foundation/blockchain/storage/memory"
	"github.com/agrochain/ledger/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newState(t *testing.T, interval time.Duration) *state.State {
	t.Helper()

	storage, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct storage: %v", failed, err)
	}

	gen := genesis.Default()
	gen.MineInterval = interval

	st, err := state.New(state.Config{Genesis: gen, Storage: storage})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct state: %v", failed, err)
	}

	return st
}

func waitForBlocks(st *state.State, blocks int) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		stats := st.Stats()
		if stats.TotalBlocks >= blocks && stats.PendingTransactions == 0 {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func Test_Worker(t *testing.T) {
	t.Log("Given the need to mine in the background.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen mining is signaled.", testID)
		{
			st := newState(t, 0)
			w := worker.Run(st, nil)
			defer st.Shutdown()

			if _, err := st.SubmitTransaction(database.Tx{ID: "t1", ProductID: "P1", From: "farmerA", Action: database.ActionCreate}); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit: %v", failed, testID, err)
			}
			w.SignalStartMining()

			if !waitForBlocks(st, 2) {
				t.Fatalf("\t%s\tTest %d:\tShould mine the pending transaction, got %+v.", failed, testID, st.Stats())
			}
			t.Logf("\t%s\tTest %d:\tShould mine the pending transaction.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the mine interval elapses.", testID)
		{
			st := newState(t, 20*time.Millisecond)
			worker.Run(st, nil)
			defer st.Shutdown()

			if _, err := st.SubmitTransaction(database.Tx{ID: "t1", ProductID: "P1", From: "farmerA", Action: database.ActionCreate}); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit: %v", failed, testID, err)
			}

			if !waitForBlocks(st, 2) {
				t.Fatalf("\t%s\tTest %d:\tShould mine on the timer, got %+v.", failed, testID, st.Stats())
			}
			t.Logf("\t%s\tTest %d:\tShould mine on the timer.", success, testID)
		}
	}
}
