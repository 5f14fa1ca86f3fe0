package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/agrochain/ledger/app/services/viewer/handlers"
	"github.com/agrochain/ledger/foundation/logger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestIndex(t *testing.T) {
	t.Log("Given the need to serve the block viewer page.")
	{
		app, err := handlers.UIMux("test", "ws://localhost:8080/v1/events", make(chan os.Signal, 1), logger.NewNop())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the mux : %s", failed, err)
		}

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		app.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould receive a 200 : got %d", failed, w.Code)
		}
		t.Logf("\t%s\tShould receive a 200.", success)

		if !strings.Contains(w.Body.String(), "ws://localhost:8080/v1/events") {
			t.Fatalf("\t%s\tShould point the page at the node.", failed)
		}
		t.Logf("\t%s\tShould point the page at the node.", success)
	}
}
