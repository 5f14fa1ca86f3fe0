// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/agrochain/ledger/app/services/node/handlers/v1/public"
	"github.com/agrochain/ledger/foundation/blockchain/state"
	"github.com/agrochain/ledger/foundation/events"
	"github.com/agrochain/ledger/foundation/nameservice"
	"github.com/agrochain/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
	app.Handle(http.MethodGet, version, "/tx/pending", pbl.Mempool)
	app.Handle(http.MethodPost, version, "/mining/mine", pbl.MineBlock)
	app.Handle(http.MethodPost, version, "/mining/signal", pbl.SignalMining)
	app.Handle(http.MethodGet, version, "/products", pbl.Products)
	app.Handle(http.MethodGet, version, "/products/batch/:batch", pbl.ProductsByBatch)
	app.Handle(http.MethodGet, version, "/products/:id", pbl.Product)
	app.Handle(http.MethodGet, version, "/products/:id/history", pbl.ProductHistory)
	app.Handle(http.MethodGet, version, "/products/:id/proof/:txid", pbl.ProductProof)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/blocks/list/:from/:to", pbl.BlocksByNumber)
	app.Handle(http.MethodGet, version, "/stats", pbl.Stats)
	app.Handle(http.MethodGet, version, "/validate", pbl.Validate)
	app.Handle(http.MethodGet, version, "/export", pbl.Export)
	app.Handle(http.MethodPost, version, "/import", pbl.Import)
}
