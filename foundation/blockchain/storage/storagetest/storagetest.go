// Package storagetest provides a common set of checks every block
// serializer is expected to pass.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/agrochain/ledger/foundation/blockchain/genesis"
	"github.com/google/go-cmp/cmp"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// Run writes a small chain through the serializer, reads it back, replays it
// through a database and resets it. The open function must return an empty
// serializer.
func Run(t *testing.T, open func(t *testing.T) database.Serializer) {
	t.Helper()

	gen := genesis.Default()

	t.Log("Given the need to store blocks.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen writing, reading and resetting blocks.", testID)
		{
			s := open(t)

			db, err := database.New(gen, s, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the database: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to open the database.", success, testID)

			trans := [][]database.Tx{
				{
					{ID: "t1", ProductID: "P1", From: "farmerA", Action: database.ActionCreate, Data: database.CreateData{Name: "Wheat", Metadata: map[string]any{"grade": "A"}}, TimeStamp: 1},
				},
				{
					{ID: "t2", ProductID: "P1", From: "farmerA", To: "distB", Action: database.ActionTransfer, Data: database.TransferData{Status: database.StatusShipped}, TimeStamp: 2},
					{ID: "t3", ProductID: "P1", From: "inspector", Action: database.ActionVerify, Data: database.VerifyData{Certification: "organic"}, TimeStamp: 3},
				},
			}

			var written []database.Block
			for _, txs := range trans {
				block, err := database.POW(context.Background(), database.POWArgs{
					HashStrategy: db.HashStrategy(),
					Difficulty:   gen.Difficulty,
					PrevBlock:    db.LatestBlock(),
					Trans:        txs,
				})
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to mine: %v", failed, testID, err)
				}

				if err := db.Write(block); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to write block %d: %v", failed, testID, block.Header.Number, err)
				}
				written = append(written, block)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to write blocks.", success, testID)

			stale := database.NewBlockData(written[0])
			if err := s.Write(stale); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject an out of order block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an out of order block.", success, testID)

			got, err := s.GetBlock(2)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read block 2: %v", failed, testID, err)
			}
			if diff := cmp.Diff(database.NewBlockData(written[1]), got); diff != "" {
				t.Fatalf("\t%s\tTest %d:\tShould read back the same block, diff:\n%s", failed, testID, diff)
			}
			t.Logf("\t%s\tTest %d:\tShould read back the same block.", success, testID)

			if _, err := s.GetBlock(3); !errors.Is(err, database.ErrNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould get ErrNotFound past the end, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get ErrNotFound past the end.", success, testID)

			replayed, err := database.New(gen, s, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to replay the blocks: %v", failed, testID, err)
			}
			if replayed.BlockCount() != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould replay 3 blocks, got %d.", failed, testID, replayed.BlockCount())
			}
			if diff := cmp.Diff(db.CopyProducts(), replayed.CopyProducts()); diff != "" {
				t.Fatalf("\t%s\tTest %d:\tShould project the same products, diff:\n%s", failed, testID, diff)
			}
			t.Logf("\t%s\tTest %d:\tShould replay the blocks into the same state.", success, testID)

			if err := s.Reset(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to reset: %v", failed, testID, err)
			}
			if _, err := s.GetBlock(1); !errors.Is(err, database.ErrNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould be empty after reset, got %v.", failed, testID, err)
			}
			if err := s.Write(database.NewBlockData(written[0])); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept block 1 after reset: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould start over after reset.", success, testID)

			if err := s.Close(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to close: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to close.", success, testID)
		}
	}
}
