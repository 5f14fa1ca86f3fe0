package memory_test

import (
	"testing"

	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/agrochain/ledger/foundation/blockchain/storage/memory"
	"github.com/agrochain/ledger/foundation/blockchain/storage/storagetest"
)

func TestMemory(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) database.Serializer {
		s, err := memory.New()
		if err != nil {
			t.Fatalf("Should be able to construct memory storage: %v", err)
		}
		return s
	})
}
