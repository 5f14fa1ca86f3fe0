// Package handlers contains the full set of handler functions and routes
// supported by the web api.
package handlers

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"os"

	"github.com/agrochain/ledger/business/web/mid"
	"github.com/agrochain/ledger/foundation/web"
	"go.uber.org/zap"
)

//go:embed assets/index.html
var assets embed.FS

// UIMux constructs an http.Handler with all application routes defined.
// nodeWS is the websocket url of the node's events route.
func UIMux(build string, nodeWS string, shutdown chan os.Signal, log *zap.SugaredLogger) (*web.App, error) {
	app := web.NewApp(
		shutdown,
		mid.Logger(log),
		mid.Errors(log),
		mid.Panics(),
		mid.Cors("*"),
	)

	// Register the index page for the website.
	ig, err := newIndex(build, nodeWS)
	if err != nil {
		return nil, fmt.Errorf("loading index template: %w", err)
	}
	app.Handle(http.MethodGet, "", "/", ig.handler)

	return app, nil
}

// index renders the viewer page.
type index struct {
	tmpl *template.Template
	data struct {
		Build  string
		NodeWS string
	}
}

func newIndex(build string, nodeWS string) (*index, error) {
	tmpl, err := template.ParseFS(assets, "assets/index.html")
	if err != nil {
		return nil, err
	}

	ig := index{tmpl: tmpl}
	ig.data.Build = build
	ig.data.NodeWS = nodeWS

	return &ig, nil
}

func (ig *index) handler(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ig.tmpl.Execute(w, ig.data); err != nil {
		return fmt.Errorf("executing index template: %w", err)
	}

	return web.SetStatusCode(ctx, http.StatusOK)
}
