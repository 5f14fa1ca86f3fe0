package cmd_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agrochain/ledger/app/services/node/handlers"
	"github.com/agrochain/ledger/app/tooling/admin/cmd"
	"github.com/agrochain/ledger/foundation/blockchain/genesis"
	"github.com/agrochain/ledger/foundation/blockchain/state"
	"github.com/agrochain/ledger/foundation/blockchain/storage/memory"
	"github.com/agrochain/ledger/foundation/events"
	"github.com/agrochain/ledger/foundation/logger"
	"github.com/agrochain/ledger/foundation/nameservice"
	"github.com/fatih/color"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newNode(t *testing.T) string {
	t.Helper()

	storage, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open storage : %s", failed, err)
	}

	gen := genesis.Default()
	gen.Difficulty = 1

	st, err := state.New(state.Config{
		Genesis: gen,
		Storage: storage,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state : %s", failed, err)
	}

	ns, err := nameservice.New("")
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the name service : %s", failed, err)
	}

	srv := httptest.NewServer(handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      logger.NewNop(),
		State:    st,
		NS:       ns,
		Evts:     events.New(),
	}))

	t.Cleanup(func() {
		srv.Close()
		st.Shutdown()
	})

	return srv.URL
}

func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := cmd.NewRoot("test")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--url", url))

	err := root.Execute()
	return out.String(), err
}

func TestAdmin(t *testing.T) {
	color.NoColor = true
	url := newNode(t)

	t.Log("Given the need to administer a node from the command line.")
	{
		var productID string

		t.Log("\tWhen submitting a create.")
		{
			out, err := run(t, url, "submit", "--from", "FARMER001", "--action", "create",
				"--data", `{"name":"Avocados","origin":"Michoacan","batchNumber":"AV-7","harvestDate":"2025-02-10"}`)
			if err != nil {
				t.Fatalf("\t%s\tShould submit the transaction : %s : %s", failed, err, out)
			}

			var resp struct {
				Transaction struct {
					ProductID string `json:"productId"`
				} `json:"transaction"`
			}
			if err := json.Unmarshal([]byte(out), &resp); err != nil {
				t.Fatalf("\t%s\tShould print json : %s : %s", failed, err, out)
			}
			productID = resp.Transaction.ProductID
			if productID == "" {
				t.Fatalf("\t%s\tShould print the assigned product id.", failed)
			}
			t.Logf("\t%s\tShould submit the transaction.", success)
		}

		t.Log("\tWhen mining and checking the ledger.")
		{
			out, err := run(t, url, "mine")
			if err != nil || !strings.Contains(out, "mined block 1") {
				t.Fatalf("\t%s\tShould mine block 1 : %v : %s", failed, err, out)
			}

			out, err = run(t, url, "stats")
			if err != nil || !strings.Contains(out, "products:     1") || !strings.Contains(out, "valid") {
				t.Fatalf("\t%s\tShould print the stats : %v : %s", failed, err, out)
			}

			out, err = run(t, url, "validate")
			if err != nil || !strings.Contains(out, "chain is valid") {
				t.Fatalf("\t%s\tShould report a valid chain : %v : %s", failed, err, out)
			}

			out, err = run(t, url, "history", productID)
			if err != nil || !strings.HasPrefix(out, "create") {
				t.Fatalf("\t%s\tShould print the history : %v : %s", failed, err, out)
			}

			out, err = run(t, url, "product", "--batch", "AV-7")
			if err != nil || !strings.Contains(out, productID) {
				t.Fatalf("\t%s\tShould print the batch products : %v : %s", failed, err, out)
			}
			t.Logf("\t%s\tShould mine and report the ledger.", success)
		}

		t.Log("\tWhen exporting and importing.")
		{
			file := filepath.Join(t.TempDir(), "ledger.json")
			if out, err := run(t, url, "export", "--out", file); err != nil {
				t.Fatalf("\t%s\tShould export the ledger : %s : %s", failed, err, out)
			}

			other := newNode(t)
			out, err := run(t, other, "import", file)
			if err != nil || !strings.Contains(out, `"totalProducts": 1`) {
				t.Fatalf("\t%s\tShould import the ledger : %v : %s", failed, err, out)
			}
			t.Logf("\t%s\tShould move the ledger to another node.", success)
		}

		t.Log("\tWhen the node rejects a request.")
		{
			if _, err := run(t, url, "product", "AGR-1999-0000"); err == nil {
				t.Fatalf("\t%s\tShould fail for an unknown product.", failed)
			}
			if _, err := run(t, url, "submit", "--from", "F1", "--action", "burn"); err == nil {
				t.Fatalf("\t%s\tShould fail for an unknown action.", failed)
			}
			t.Logf("\t%s\tShould return the errors.", success)
		}
	}
}

func TestGenID(t *testing.T) {
	t.Log("Given the need to generate ids offline.")
	{
		out, err := run(t, "http://127.0.0.1:0", "genid", "--prefix", "VEG")
		if err != nil {
			t.Fatalf("\t%s\tShould generate ids : %s", failed, err)
		}
		if !strings.Contains(out, "product: VEG-") {
			t.Fatalf("\t%s\tShould use the prefix : %s", failed, out)
		}
		t.Logf("\t%s\tShould generate ids.", success)
	}
}
