package leveldb_test

import (
	"testing"

	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/agrochain/ledger/foundation/blockchain/storage/leveldb"
	"github.com/agrochain/ledger/foundation/blockchain/storage/storagetest"
)

func TestLevelDB(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) database.Serializer {
		s, err := leveldb.New(t.TempDir())
		if err != nil {
			t.Fatalf("Should be able to open leveldb: %v", err)
		}
		return s
	})
}
