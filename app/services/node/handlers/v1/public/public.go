// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/agrochain/ledger/business/web/errs"
	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/agrochain/ledger/foundation/blockchain/state"
	"github.com/agrochain/ledger/foundation/events"
	"github.com/agrochain/ledger/foundation/nameservice"
	"github.com/agrochain/ledger/foundation/validate"
	"github.com/agrochain/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client. The optional
// kind query parameter limits the events sent, kind=viewer for blocks only.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	var kinds []string
	if kind := r.URL.Query().Get("kind"); kind != "" {
		kinds = append(kinds, kind)
	}

	ch := h.Evts.Acquire(v.TraceID, kinds...)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case e, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(e.Kind+": "+e.Message)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Genesis(), http.StatusOK)
}

// SubmitTransaction adds a new transaction to the pending queue.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ntx newTx
	if err := web.Decode(r, &ntx); err != nil {
		return decodeError(err)
	}

	tx, err := ntx.toTx()
	if err != nil {
		return err
	}

	if tx.ID == "" {
		tx.ID = h.State.NewTxID()
	}
	if tx.ProductID == "" && tx.Action == database.ActionCreate {
		tx.ProductID = h.State.NewProductID(database.DefaultProductPrefix)
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "tx", tx, "from", tx.From, "to", tx.To)

	tx, err = h.State.SubmitTransaction(tx)
	if err != nil {
		return err
	}

	resp := submitted{
		Status:      "transaction added to the pending queue",
		Pending:     h.State.QueryMempoolLength(),
		Transaction: tx,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Mempool returns the set of pending transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryMempool(), http.StatusOK)
}

// MineBlock mines the pending transactions into a block and waits for the
// result.
func (h Handlers) MineBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.State.MineNewBlock(ctx)
	if err != nil {
		return errs.FromLedger(err)
	}

	if block == nil {
		return web.Respond(ctx, w, mined{Status: "no pending transactions"}, http.StatusOK)
	}

	return web.Respond(ctx, w, mined{Status: "mined", Block: block}, http.StatusOK)
}

// SignalMining asks the background worker to mine the pending transactions.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.State.Worker == nil {
		return errs.NewTrusted(fmt.Errorf("mining worker is not running"), http.StatusServiceUnavailable)
	}

	h.State.Worker.SignalStartMining()

	return web.Respond(ctx, w, status{Status: "mining signalled"}, http.StatusAccepted)
}

// Products returns the current state of every product. The batch query
// parameter limits the result to a single batch.
func (h Handlers) Products(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if batch := r.URL.Query().Get("batch"); batch != "" {
		return web.Respond(ctx, w, h.State.QueryProductsByBatch(batch), http.StatusOK)
	}

	return web.Respond(ctx, w, h.State.QueryProducts(), http.StatusOK)
}

// ProductsByBatch returns the products of the specified batch.
func (h Handlers) ProductsByBatch(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryProductsByBatch(web.Param(r, "batch")), http.StatusOK)
}

// Product returns the current state of the specified product.
func (h Handlers) Product(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	product, err := h.State.QueryProduct(web.Param(r, "id"))
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, product, http.StatusOK)
}

// ProductHistory returns every mined transaction of the specified product
// in timestamp order.
func (h Handlers) ProductHistory(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	history := h.State.QueryProductHistory(web.Param(r, "id"))

	resp := make([]historyEntry, len(history))
	for i, tx := range history {
		resp[i] = historyEntry{
			Transaction: tx,
			FromName:    h.NS.Lookup(tx.From),
		}
		if tx.To != "" {
			resp[i].ToName = h.NS.Lookup(tx.To)
		}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ProductProof returns the merkle proof of a product transaction.
func (h Handlers) ProductProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	proof, err := h.State.QueryTransactionProof(web.Param(r, "id"), web.Param(r, "txid"))
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, proof, http.StatusOK)
}

// Blocks returns every block in the chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryBlocksByNumber(0, state.QueryLatest), http.StatusOK)
}

// BlocksByNumber returns all the blocks based on the specified to/from values.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := blockNumber(web.Param(r, "from"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	to, err := blockNumber(web.Param(r, "to"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if from > to {
		return errs.NewTrusted(fmt.Errorf("from %d is greater than to %d", from, to), http.StatusBadRequest)
	}

	return web.Respond(ctx, w, h.State.QueryBlocksByNumber(from, to), http.StatusOK)
}

// Stats returns the summary of the ledger.
func (h Handlers) Stats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Stats(), http.StatusOK)
}

// Validate walks the chain and reports whether it is intact.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var resp validity
	if err := h.State.ValidateChain(); err != nil {
		resp.Error = err.Error()
	} else {
		resp.IsValid = true
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Export returns a snapshot of the ledger.
func (h Handlers) Export(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Export(), http.StatusOK)
}

// Import replaces the ledger with the provided snapshot.
func (h Handlers) Import(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var snap database.Snapshot
	if err := web.Decode(r, &snap); err != nil {
		return decodeError(err)
	}

	h.Log.Infow("import", "traceid", v.TraceID, "blocks", len(snap.Chain), "products", len(snap.Products), "pending", len(snap.Pending))

	if err := h.State.Import(snap); err != nil {
		switch {
		case validate.IsFieldErrors(err):
			return err
		case errors.Is(err, state.ErrChainInvalid):
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, h.State.Stats(), http.StatusOK)
}

// =============================================================================

// decodeError keeps validation errors intact and marks every other decode
// failure as a bad request.
func decodeError(err error) error {
	if validate.IsFieldErrors(err) {
		return err
	}
	return errs.NewTrusted(err, http.StatusBadRequest)
}

// blockNumber parses a block number parameter. Empty and latest select the
// latest block.
func blockNumber(s string) (uint64, error) {
	if s == "" || s == "latest" {
		return state.QueryLatest, nil
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block number %q", s)
	}

	return n, nil
}
