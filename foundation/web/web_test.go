package web_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agrochain/ledger/foundation/web"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type model struct {
	Name string `json:"name"`
}

func (m model) Validate() error {
	if m.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func TestApp(t *testing.T) {
	t.Log("Given the need to route requests through middleware.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen calling a grouped route with a parameter.", testID)
		{
			var order []string
			mw := func(name string) web.Middleware {
				return func(h web.Handler) web.Handler {
					return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
						order = append(order, name)
						return h(ctx, w, r)
					}
				}
			}

			app := web.NewApp(nil, mw("app"))

			h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				v, err := web.GetValues(ctx)
				if err != nil {
					return err
				}
				if v.TraceID == "" {
					return errors.New("missing trace id")
				}
				return web.Respond(ctx, w, map[string]string{"id": web.Param(r, "id")}, http.StatusOK)
			}
			app.Handle(http.MethodGet, "v1", "/things/:id", h, mw("route"))

			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/things/abc", nil))

			if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"id":"abc"`) {
				t.Fatalf("\t%s\tTest %d:\tShould get the param back, got %d %s.", failed, testID, w.Code, w.Body.String())
			}
			t.Logf("\t%s\tTest %d:\tShould get the param back.", success, testID)

			if strings.Join(order, ",") != "app,route" {
				t.Fatalf("\t%s\tTest %d:\tShould run app middleware first, got %v.", failed, testID, order)
			}
			t.Logf("\t%s\tTest %d:\tShould run app middleware first.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen decoding a request body.", testID)
		{
			var m model
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":""}`))
			if err := web.Decode(r, &m); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould run the model's Validate.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould run the model's Validate.", success, testID)

			r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
			if err := web.Decode(r, &m); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject unknown fields.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject unknown fields.", success, testID)
		}
	}
}
