package digest_test

import (
	"testing"

	"github.com/agrochain/ledger/foundation/blockchain/digest"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Strategies(t *testing.T) {
	type table struct {
		name     string
		strategy string
		data     string
		hash     string
	}

	tt := []table{
		{"sha256", digest.StrategySHA256, "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"keccak256", digest.StrategyKeccak256, "", "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{"legacy-empty", digest.StrategyLegacy, "", "0"},
		{"legacy-a", digest.StrategyLegacy, "a", "00000061"},
		{"legacy-ab", digest.StrategyLegacy, "ab", "00000c21"},
	}

	t.Log("Given the need to hash data with different strategies.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen using strategy %q.", testID, tst.strategy)
				{
					fn, err := digest.Retrieve(tst.strategy)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to retrieve the strategy: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to retrieve the strategy.", success, testID)

					got := fn.String(tst.data)
					if got != tst.hash {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, got)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.hash)
						t.Fatalf("\t%s\tTest %d:\tShould get back the right hash.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the right hash.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Value(t *testing.T) {
	value := struct {
		Name string
		Tags map[string]string
	}{
		Name: "Wheat",
		Tags: map[string]string{"b": "2", "a": "1"},
	}

	h1, err := digest.Strategy(digest.SHA256).Value(value)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to hash the value: %v", failed, err)
	}

	h2, err := digest.Strategy(digest.SHA256).Value(value)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to hash the value: %v", failed, err)
	}

	if h1 != h2 {
		t.Fatalf("\t%s\tShould get the same hash for the same value.", failed)
	}
	t.Logf("\t%s\tShould get the same hash for the same value.", success)

	value.Name = "Barley"
	h3, err := digest.Strategy(digest.SHA256).Value(value)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to hash the value: %v", failed, err)
	}

	if h1 == h3 {
		t.Fatalf("\t%s\tShould get a different hash for a different value.", failed)
	}
	t.Logf("\t%s\tShould get a different hash for a different value.", success)
}

func Test_UnknownStrategy(t *testing.T) {
	if _, err := digest.Retrieve("md5"); err == nil {
		t.Fatalf("\t%s\tShould not be able to retrieve an unknown strategy.", failed)
	}
	t.Logf("\t%s\tShould not be able to retrieve an unknown strategy.", success)
}
