package mempool_test

import (
	"testing"

	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/agrochain/ledger/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func ids(txs []database.Tx) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestQueue(t *testing.T) {
	type table struct {
		name   string
		txs    []string
		pick   int
		best   []string
		remain []string
	}

	tt := []table{
		{"all", []string{"t1", "t2", "t3"}, -1, []string{"t1", "t2", "t3"}, []string{}},
		{"some", []string{"t1", "t2", "t3"}, 2, []string{"t1", "t2"}, []string{"t3"}},
		{"more-than-pool", []string{"t1"}, 5, []string{"t1"}, []string{}},
		{"duplicate-ids", []string{"t1", "t1"}, -1, []string{"t1", "t1"}, []string{}},
		{"empty", nil, -1, []string{}, []string{}},
	}

	t.Log("Given the need to queue pending transactions in submission order.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling the %q set of transactions.", testID, tst.name)
				{
					mp, err := mempool.New()
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to create the mempool: %v", failed, testID, err)
					}

					for _, id := range tst.txs {
						mp.Append(database.Tx{ID: id, ProductID: "P1", From: "a", Action: database.ActionCreate})
					}

					if mp.Count() != len(tst.txs) {
						t.Fatalf("\t%s\tTest %d:\tShould have %d transactions, got %d.", failed, testID, len(tst.txs), mp.Count())
					}
					t.Logf("\t%s\tTest %d:\tShould have the right count.", success, testID)

					best := mp.PickBest(tst.pick)
					if !equal(ids(best), tst.best) {
						t.Fatalf("\t%s\tTest %d:\tShould pick %v, got %v.", failed, testID, tst.best, ids(best))
					}
					t.Logf("\t%s\tTest %d:\tShould pick in submission order.", success, testID)

					mp.Append(database.Tx{ID: "late", ProductID: "P1", From: "a", Action: database.ActionCreate})
					mp.Remove(len(best))

					exp := append(tst.remain, "late")
					if !equal(ids(mp.Copy()), exp) {
						t.Fatalf("\t%s\tTest %d:\tShould keep %v, got %v.", failed, testID, exp, ids(mp.Copy()))
					}
					t.Logf("\t%s\tTest %d:\tShould keep transactions submitted after the pick.", success, testID)

					mp.Replace(nil)
					if mp.Count() != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould be empty after replace.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be empty after replace.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}
