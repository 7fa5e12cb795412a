package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/calday/internal/session"
	"github.com/desertthunder/calday/internal/shared"
	tu "github.com/desertthunder/calday/internal/testing"
)

type stubAuth struct {
	token string
	err   error
	codes []string
}

func (s *stubAuth) AuthURL(state string) string { return "https://example.test/auth?state=" + state }

func (s *stubAuth) Exchange(ctx context.Context, code string) (string, error) {
	s.codes = append(s.codes, code)
	return s.token, s.err
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method Patterns", func(t *testing.T) {
		router := NewBasicRouter()
		router.HandleFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
			t.Errorf("GET /healthz = %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Any Method", func(t *testing.T) {
		router := NewBasicRouter()
		router.HandleFunc("", "/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/anything", nil))
		if rec.Code != http.StatusTeapot {
			t.Errorf("expected catch-all, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.HandleFunc(http.MethodGet, "/", func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})
}

func TestExchangeCallback(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		query   url.Values
		auth    *stubAuth
		want    string
		wantErr error
	}{
		{
			name:  "valid",
			query: url.Values{"state": {"s1"}, "code": {"c1"}},
			auth:  &stubAuth{token: "opaque"},
			want:  "opaque",
		},
		{
			name:    "state mismatch",
			query:   url.Values{"state": {"other"}, "code": {"c1"}},
			auth:    &stubAuth{token: "opaque"},
			wantErr: shared.ErrInvalidState,
		},
		{
			name:    "provider error",
			query:   url.Values{"state": {"s1"}, "error": {"access_denied"}},
			auth:    &stubAuth{token: "opaque"},
			wantErr: shared.ErrIdentityFailed,
		},
		{
			name:    "exchange failure",
			query:   url.Values{"state": {"s1"}, "code": {"c1"}},
			auth:    &stubAuth{err: shared.ErrIdentityFailed},
			wantErr: shared.ErrIdentityFailed,
		},
		{
			name:    "empty credential",
			query:   url.Values{"state": {"s1"}, "code": {"c1"}},
			auth:    &stubAuth{},
			wantErr: shared.ErrEmptyCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExchangeCallback(ctx, tt.auth, tt.query, "s1")
			if tt.wantErr != nil {
				if !errors.Is(result.Error(), tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, result.Error())
				}
				if result.Credential != "" {
					t.Errorf("failure must not carry a credential, got %q", result.Credential)
				}
				return
			}
			if result.Error() != nil || result.Credential != tt.want {
				t.Errorf("got %q, %v", result.Credential, result.Error())
			}
		})
	}

	t.Run("state mismatch skips exchange", func(t *testing.T) {
		auth := &stubAuth{token: "opaque"}
		ExchangeCallback(ctx, auth, url.Values{"state": {"x"}, "code": {"c"}}, "s1")
		if len(auth.codes) != 0 {
			t.Errorf("expected no exchange, got %v", auth.codes)
		}
	})
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Delivers One Result", func(t *testing.T) {
		h := NewOAuthHandler(&stubAuth{token: "opaque"}, "s1")
		router := NewBasicRouter()
		router.Handler(h)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s1&code=c1", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Signed in with Google") {
			t.Error("expected success page")
		}

		result := <-h.Result()
		if result.Error() != nil || result.Credential != "opaque" {
			t.Errorf("unexpected result %+v", result)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s1&code=c2", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected replay to be rejected, got %d", rec.Code)
		}
	})

	t.Run("Failure", func(t *testing.T) {
		h := NewOAuthHandler(&stubAuth{token: "opaque"}, "s1")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=bad&code=c1", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-h.Result()
		if !errors.Is(result.Error(), shared.ErrIdentityFailed) {
			t.Errorf("expected ErrIdentityFailed, got %v", result.Error())
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("Request Logger", func(t *testing.T) {
		var buf bytes.Buffer
		router := NewBasicRouter()
		router.Use(Defaults(shared.NewLogger(&buf))...)
		router.HandleFunc(http.MethodGet, "/missing", func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

		out := buf.String()
		for _, want := range []string{"method=GET", "path=/missing", "status=404", "request_id="} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in log output %q", want, out)
			}
		}
	})

	t.Run("Recoverer Isolates Panics", func(t *testing.T) {
		var buf bytes.Buffer
		router := NewBasicRouter()
		router.Use(Defaults(shared.NewLogger(&buf))...)
		router.HandleFunc(http.MethodGet, "/boom", func(w http.ResponseWriter, r *http.Request) {
			session.FromContext(r.Context())
		})
		router.HandleFunc(http.MethodGet, "/fine", func(w http.ResponseWriter, r *http.Request) {})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fine", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected later requests to succeed, got %d", rec.Code)
		}
	})

	t.Run("WithSession", func(t *testing.T) {
		m := session.NewManager(tu.NewMemoryTokenStore(""), session.ManagerOpts{Logger: shared.NewLogger(io.Discard)})

		var got *session.Manager
		router := NewBasicRouter()
		router.Use(WithSession(m))
		router.HandleFunc(http.MethodGet, "/", func(w http.ResponseWriter, r *http.Request) {
			got = session.FromContext(r.Context())
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if got != m {
			t.Error("expected manager in request context")
		}
	})
}
