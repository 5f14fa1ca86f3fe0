package sqldb_test

import (
	"os"
	"testing"

	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/agrochain/ledger/foundation/blockchain/storage/sqldb"
	"github.com/agrochain/ledger/foundation/blockchain/storage/storagetest"
)

func TestSQLDB(t *testing.T) {
	dsn := os.Getenv("LEDGER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LEDGER_TEST_POSTGRES_DSN not set")
	}

	storagetest.Run(t, func(t *testing.T) database.Serializer {
		s, err := sqldb.Open(sqldb.Config{DSN: dsn, MaxIdleConns: 2, MaxOpenConns: 4})
		if err != nil {
			t.Fatalf("Should be able to open postgres: %v", err)
		}
		if err := s.Reset(); err != nil {
			t.Fatalf("Should be able to reset postgres: %v", err)
		}
		return s
	})
}
