package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/commonsphere/commonsphere/internal/shared"
	_ "github.com/commonsphere/commonsphere/testing"
)

func newMiddlewareStack(t *testing.T) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mux := chi.NewRouter()
	mux.Get("/csrf", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, err := csrf.EnsureToken(r.Context(), sess)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(token))
	})
	mux.Post("/mutate", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	var handler http.Handler = mux
	mws := MiddlewareStack(MiddlewareConfig{
		Logger:         logger,
		SessionManager: sessions,
		CSRFManager:    csrf,
	})
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

func TestCSRFMiddlewareBlocksHeaderlessMutation(t *testing.T) {
	stack := newMiddlewareStack(t)

	res := httptest.NewRecorder()
	stack.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/mutate", nil))

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a mutation without a token header, got %d", res.Code)
	}
}

func TestCSRFMiddlewareAcceptsSessionToken(t *testing.T) {
	stack := newMiddlewareStack(t)

	issue := httptest.NewRecorder()
	stack.ServeHTTP(issue, httptest.NewRequest(http.MethodGet, "/csrf", nil))
	if issue.Code != http.StatusOK {
		t.Fatalf("expected 200 issuing a token, got %d", issue.Code)
	}
	token := issue.Body.String()
	cookies := issue.Result().Cookies()
	if token == "" || len(cookies) == 0 {
		t.Fatalf("expected a token and a session cookie, got token %q and %d cookies", token, len(cookies))
	}

	req := httptest.NewRequest(http.MethodPost, "/mutate", nil)
	req.Header.Set(shared.CSRFHeader, token)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	res := httptest.NewRecorder()
	stack.ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with the session token echoed, got %d", res.Code)
	}
}
