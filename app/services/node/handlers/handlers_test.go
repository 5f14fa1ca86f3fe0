package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agrochain/ledger/app/services/node/handlers"
	"github.com/agrochain/ledger/business/web/errs"
	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/agrochain/ledger/foundation/blockchain/genesis"
	"github.com/agrochain/ledger/foundation/blockchain/state"
	"github.com/agrochain/ledger/foundation/blockchain/storage/memory"
	"github.com/agrochain/ledger/foundation/events"
	"github.com/agrochain/ledger/foundation/logger"
	"github.com/agrochain/ledger/foundation/nameservice"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const actorsYAML = `actors:
  - id: FARMER001
    name: Green Valley Farm
    role: farmer
  - id: SHIP001
    name: Coastal Freight
    role: carrier
`

type testApp struct {
	t     *testing.T
	mux   http.Handler
	state *state.State
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	storage, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open storage : %s", failed, err)
	}

	return newTestAppWith(t, storage)
}

func newTestAppWith(t *testing.T, storage database.Serializer) *testApp {
	t.Helper()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "actors.yaml"), []byte(actorsYAML), 0600); err != nil {
		t.Fatalf("\t%s\tShould be able to write the actors file : %s", failed, err)
	}

	ns, err := nameservice.New(root)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the name service : %s", failed, err)
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
	t.Cleanup(func() { st.Shutdown() })

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      logger.NewNop(),
		State:    st,
		NS:       ns,
		Evts:     events.New(),
	})

	return &testApp{t: t, mux: mux, state: st}
}

func (ta *testApp) do(method string, path string, body string, exp int, resp any) {
	ta.t.Helper()

	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, rdr)
	w := httptest.NewRecorder()
	ta.mux.ServeHTTP(w, r)

	if w.Code != exp {
		ta.t.Fatalf("\t%s\tShould receive a status code of %d for %s %s : got %d : %s", failed, exp, method, path, w.Code, w.Body.String())
	}
	ta.t.Logf("\t%s\tShould receive a status code of %d for %s %s.", success, exp, method, path)

	if resp != nil {
		if err := json.NewDecoder(w.Body).Decode(resp); err != nil {
			ta.t.Fatalf("\t%s\tShould be able to unmarshal the response : %s", failed, err)
		}
	}
}

func TestProductLifecycle(t *testing.T) {
	ta := newTestApp(t)

	t.Log("Given the need to track a product through the web api.")
	{
		var sub struct {
			Pending     int         `json:"pending"`
			Transaction database.Tx `json:"transaction"`
		}

		t.Log("\tWhen submitting a create without ids.")
		{
			body := `{"from":"FARMER001","action":"create","data":{"name":"Organic Tomatoes","origin":"Salinas, CA","batchNumber":"B-1","harvestDate":"2025-03-01"}}`
			ta.do(http.MethodPost, "/v1/tx/submit", body, http.StatusCreated, &sub)

			if sub.Transaction.ID == "" || !strings.HasPrefix(sub.Transaction.ProductID, database.DefaultProductPrefix+"-") {
				t.Fatalf("\t%s\tShould assign the ids : got %+v", failed, sub.Transaction)
			}
			if sub.Pending != 1 || sub.Transaction.TimeStamp == 0 {
				t.Fatalf("\t%s\tShould queue a stamped transaction : got %+v", failed, sub)
			}
			t.Logf("\t%s\tShould assign the ids and stamp the transaction.", success)
		}

		productID := sub.Transaction.ProductID

		t.Log("\tWhen submitting a transfer and mining.")
		{
			body := `{"productId":"` + productID + `","from":"FARMER001","to":"SHIP001","action":"transfer","data":{"status":"shipped"}}`
			ta.do(http.MethodPost, "/v1/tx/submit", body, http.StatusCreated, nil)

			var pending []database.Tx
			ta.do(http.MethodGet, "/v1/tx/pending", "", http.StatusOK, &pending)
			if len(pending) != 2 {
				t.Fatalf("\t%s\tShould have two pending transactions : got %d", failed, len(pending))
			}

			var mined struct {
				Status string          `json:"status"`
				Block  *database.Block `json:"block"`
			}
			ta.do(http.MethodPost, "/v1/mining/mine", "", http.StatusOK, &mined)
			if mined.Block == nil || mined.Block.Header.Number != 1 || len(mined.Block.Trans) != 2 {
				t.Fatalf("\t%s\tShould mine block 1 with two transactions : got %+v", failed, mined)
			}
			if !strings.HasPrefix(mined.Block.Hash, "0") {
				t.Fatalf("\t%s\tShould satisfy the difficulty : got %s", failed, mined.Block.Hash)
			}
			t.Logf("\t%s\tShould mine the pending transactions.", success)

			var empty struct {
				Status string          `json:"status"`
				Block  *database.Block `json:"block"`
			}
			ta.do(http.MethodPost, "/v1/mining/mine", "", http.StatusOK, &empty)
			if empty.Block != nil {
				t.Fatalf("\t%s\tShould not mine an empty block.", failed)
			}
			t.Logf("\t%s\tShould not mine an empty block.", success)
		}

		t.Log("\tWhen querying the product.")
		{
			var product database.Product
			ta.do(http.MethodGet, "/v1/products/"+productID, "", http.StatusOK, &product)
			if product.CurrentOwner != "SHIP001" || product.Status != database.StatusShipped || product.Farmer != "FARMER001" {
				t.Fatalf("\t%s\tShould reflect the transfer : got %+v", failed, product)
			}
			t.Logf("\t%s\tShould reflect the transfer.", success)

			var products []database.Product
			ta.do(http.MethodGet, "/v1/products?batch=B-1", "", http.StatusOK, &products)
			if len(products) != 1 {
				t.Fatalf("\t%s\tShould find the product by batch : got %d", failed, len(products))
			}
			ta.do(http.MethodGet, "/v1/products/batch/B-2", "", http.StatusOK, &products)
			if len(products) != 0 {
				t.Fatalf("\t%s\tShould find no product for another batch : got %d", failed, len(products))
			}

			var history []struct {
				Transaction database.Tx `json:"transaction"`
				FromName    string      `json:"fromName"`
				ToName      string      `json:"toName"`
			}
			ta.do(http.MethodGet, "/v1/products/"+productID+"/history", "", http.StatusOK, &history)
			if len(history) != 2 {
				t.Fatalf("\t%s\tShould return two history entries : got %d", failed, len(history))
			}
			if history[0].FromName != "Green Valley Farm" || history[1].ToName != "Coastal Freight" {
				t.Fatalf("\t%s\tShould resolve the actor names : got %+v", failed, history)
			}
			t.Logf("\t%s\tShould return the history with actor names.", success)

			var proof state.TxProof
			ta.do(http.MethodGet, "/v1/products/"+productID+"/proof/"+history[1].Transaction.ID, "", http.StatusOK, &proof)
			if !proof.Verified || proof.BlockNumber != 1 {
				t.Fatalf("\t%s\tShould verify the merkle proof : got %+v", failed, proof)
			}
			t.Logf("\t%s\tShould verify the merkle proof.", success)
		}

		t.Log("\tWhen checking the chain.")
		{
			var stats state.Stats
			ta.do(http.MethodGet, "/v1/stats", "", http.StatusOK, &stats)
			exp := state.Stats{TotalBlocks: 2, TotalTransactions: 2, TotalProducts: 1, IsValid: true}
			if stats != exp {
				t.Fatalf("\t%s\tShould report the stats : got %+v, exp %+v", failed, stats, exp)
			}

			var v struct {
				IsValid bool `json:"isValid"`
			}
			ta.do(http.MethodGet, "/v1/validate", "", http.StatusOK, &v)
			if !v.IsValid {
				t.Fatalf("\t%s\tShould report a valid chain.", failed)
			}

			var blocks []database.Block
			ta.do(http.MethodGet, "/v1/blocks/list", "", http.StatusOK, &blocks)
			if len(blocks) != 2 {
				t.Fatalf("\t%s\tShould list both blocks : got %d", failed, len(blocks))
			}
			ta.do(http.MethodGet, "/v1/blocks/list/1/latest", "", http.StatusOK, &blocks)
			if len(blocks) != 1 || blocks[0].Header.Number != 1 {
				t.Fatalf("\t%s\tShould list block 1 : got %+v", failed, blocks)
			}
			t.Logf("\t%s\tShould report an intact chain.", success)
		}

		t.Log("\tWhen exporting and importing the ledger.")
		{
			var snap database.Snapshot
			ta.do(http.MethodGet, "/v1/export", "", http.StatusOK, &snap)
			if len(snap.Chain) != 2 || len(snap.Products) != 1 {
				t.Fatalf("\t%s\tShould export the chain : got %d blocks", failed, len(snap.Chain))
			}

			data, err := json.Marshal(snap)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to marshal the snapshot : %s", failed, err)
			}

			other := newTestApp(t)
			var stats state.Stats
			other.do(http.MethodPost, "/v1/import", string(data), http.StatusOK, &stats)
			if stats.TotalBlocks != 2 || stats.TotalProducts != 1 || !stats.IsValid {
				t.Fatalf("\t%s\tShould import the chain : got %+v", failed, stats)
			}
			t.Logf("\t%s\tShould import the chain into another node.", success)

			forged := snap
			forged.Products = map[string]database.Product{
				"GHOST": {ID: "GHOST", Name: "Gold", CurrentOwner: "mallory"},
			}
			forgedData, err := json.Marshal(forged)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to marshal the snapshot : %s", failed, err)
			}

			var resp errs.Response
			newTestApp(t).do(http.MethodPost, "/v1/import", string(forgedData), http.StatusBadRequest, &resp)
			t.Logf("\t%s\tShould reject products that don't match the chain.", success)

			inner, err := memory.New()
			if err != nil {
				t.Fatalf("\t%s\tShould be able to open storage : %s", failed, err)
			}
			broken := newTestAppWith(t, failingStorage{Memory: inner})
			broken.do(http.MethodPost, "/v1/import", string(data), http.StatusInternalServerError, &resp)
			if resp.Error != http.StatusText(http.StatusInternalServerError) {
				t.Fatalf("\t%s\tShould hide the storage failure : got %q", failed, resp.Error)
			}
			t.Logf("\t%s\tShould report a storage failure as a server error.", success)
		}
	}
}

// failingStorage refuses every block write.
type failingStorage struct {
	*memory.Memory
}

func (failingStorage) Write(database.BlockData) error {
	return errors.New("disk full")
}

func TestErrors(t *testing.T) {
	ta := newTestApp(t)

	tt := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		field  string
	}{
		{"missingfrom", http.MethodPost, "/v1/tx/submit", `{"action":"create"}`, http.StatusBadRequest, "from"},
		{"badaction", http.MethodPost, "/v1/tx/submit", `{"from":"F1","action":"burn"}`, http.StatusBadRequest, "action"},
		{"unknownfield", http.MethodPost, "/v1/tx/submit", `{"from":"F1","action":"create","price":3}`, http.StatusBadRequest, ""},
		{"notfound", http.MethodGet, "/v1/products/AGR-2025-0001", "", http.StatusNotFound, ""},
		{"noproof", http.MethodGet, "/v1/products/AGR-2025-0001/proof/abc", "", http.StatusNotFound, ""},
		{"badblock", http.MethodGet, "/v1/blocks/list/abc/1", "", http.StatusBadRequest, ""},
		{"noworker", http.MethodPost, "/v1/mining/signal", "", http.StatusServiceUnavailable, ""},
		{"badimport", http.MethodPost, "/v1/import", `{"chain":[{"hash":"x","index":0,"timestamp":0,"transactions":[],"previousHash":"0","nonce":0,"merkleRoot":""}]}`, http.StatusBadRequest, ""},
	}

	t.Log("Given the need to report failures in a uniform way.")
	{
		for _, test := range tt {
			t.Run(test.name, func(t *testing.T) {
				ta.t = t

				var resp errs.Response
				ta.do(test.method, test.path, test.body, test.status, &resp)

				if resp.Error == "" {
					t.Fatalf("\t%s\tShould return an error message.", failed)
				}
				if test.field != "" {
					if _, exists := resp.Fields[test.field]; !exists {
						t.Fatalf("\t%s\tShould report the %q field : got %+v", failed, test.field, resp.Fields)
					}
				}
				t.Logf("\t%s\tShould return an error response.", success)
			})
		}
	}
}
