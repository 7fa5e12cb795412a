package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/calday/internal/models"
	"github.com/desertthunder/calday/internal/server"
	"github.com/desertthunder/calday/internal/services"
	"github.com/desertthunder/calday/internal/session"
	"github.com/desertthunder/calday/internal/shared"
	"github.com/desertthunder/calday/internal/tasks"
	tu "github.com/desertthunder/calday/internal/testing"
)

var now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type stubAuth struct {
	token string
}

func (s *stubAuth) AuthURL(state string) string {
	return "https://accounts.example.test/o/oauth2/auth?state=" + state
}

func (s *stubAuth) Exchange(ctx context.Context, code string) (string, error) {
	if code != "good" {
		return "", shared.ErrIdentityFailed
	}
	return s.token, nil
}

type testApp struct {
	app    *App
	store  *tu.MemoryTokenStore
	source *tu.MockEventSource
	m      *session.Manager
	h      http.Handler
}

func newTestApp(t *testing.T, token string, auth services.Authenticator, wait time.Duration) *testApp {
	t.Helper()

	quiet := shared.NewLogger(io.Discard)
	store := tu.NewMemoryTokenStore(token)
	flash := NewFlashNotifier()
	m := session.NewManager(store, session.ManagerOpts{Notifier: flash, Logger: quiet})
	if err := m.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}

	source := tu.NewMockEventSource(time.UTC)
	query := tasks.NewEventQuery(source, tasks.QueryOpts{Location: time.UTC, Logger: quiet})

	app, err := NewApp(AppOpts{
		Sessions:   m,
		Query:      query,
		Auth:       auth,
		Flash:      flash,
		RenderWait: wait,
		Logger:     quiet,
		Now:        func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}

	return &testApp{app: app, store: store, source: source, m: m, h: app.Handler()}
}

func (ta *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ta.h.ServeHTTP(rec, req)
	return rec
}

func (ta *testApp) get(path string) *httptest.ResponseRecorder {
	return ta.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (ta *testApp) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ta.do(req)
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther && rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Errorf("Location = %q, want %q", got, location)
	}
}

func assertContains(t *testing.T, body string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(body, w) {
			t.Errorf("expected %q in body:\n%s", w, body)
		}
	}
}

func assertNotContains(t *testing.T, body string, unwanted ...string) {
	t.Helper()
	for _, w := range unwanted {
		if strings.Contains(body, w) {
			t.Errorf("did not expect %q in body:\n%s", w, body)
		}
	}
}

func TestRoutes(t *testing.T) {
	t.Run("Login Page", func(t *testing.T) {
		ta := newTestApp(t, "", &stubAuth{}, time.Second)
		rec := ta.get("/")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		assertContains(t, rec.Body.String(), "Sign in with Google", `name="credential"`)
	})

	t.Run("Login Page Without OAuth Client", func(t *testing.T) {
		ta := newTestApp(t, "", nil, time.Second)
		assertContains(t, ta.get("/").Body.String(), "Google sign-in is not configured")

		if rec := ta.get("/auth/google"); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("Authenticated Login Page Redirects", func(t *testing.T) {
		ta := newTestApp(t, "abc", nil, time.Second)
		assertRedirect(t, ta.get("/"), "/dashboard")
	})

	t.Run("Unauthenticated Dashboard Redirects", func(t *testing.T) {
		ta := newTestApp(t, "", nil, time.Second)
		assertRedirect(t, ta.get("/dashboard"), "/")
		if n := len(ta.source.Calls()); n != 0 {
			t.Errorf("expected no fetch, got %d", n)
		}
	})

	t.Run("Unknown Paths Redirect Home", func(t *testing.T) {
		ta := newTestApp(t, "", nil, time.Second)
		for _, path := range []string{"/nope", "/dashboard/extra/x", "/settings"} {
			assertRedirect(t, ta.get(path), "/")
		}
	})

	t.Run("Healthz", func(t *testing.T) {
		ta := newTestApp(t, "", nil, time.Second)
		rec := ta.get("/healthz")
		if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
			t.Errorf("unexpected healthz %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("Missing Session Fails Request", func(t *testing.T) {
		ta := newTestApp(t, "abc", nil, time.Second)

		router := server.NewBasicRouter()
		router.Use(server.Defaults(shared.NewLogger(io.Discard))...)
		ta.app.mount(router)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected unrelated routes to keep working, got %d", rec.Code)
		}
	})
}

func TestDashboard(t *testing.T) {
	t.Run("Renders Events", func(t *testing.T) {
		ta := newTestApp(t, "abc", nil, 2*time.Second)
		ta.source.Events["2024-03-15"] = []models.CalendarEvent{{
			ID:    "1",
			Title: "Standup",
			Start: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 3, 15, 9, 15, 0, 0, time.UTC),
		}}

		rec := ta.get("/dashboard")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		body := rec.Body.String()
		assertContains(t, body,
			"Events for Friday, March 15, 2024",
			"<th>Event</th>", "<th>Start Time</th>", "<th>End Time</th>", "<th>Description</th>",
			"<td>Standup</td><td>9:00 AM</td><td>9:15 AM</td><td>-</td>",
			`value="2024-03-15"`,
		)
		assertNotContains(t, body, "No events found for this date", "Failed to load calendar events")

		calls := ta.source.Calls()
		if len(calls) != 1 || calls[0].Token != "abc" || calls[0].Key != "2024-03-15" {
			t.Errorf("unexpected calls %+v", calls)
		}
	})

	t.Run("Empty Day", func(t *testing.T) {
		ta := newTestApp(t, "abc", nil, 2*time.Second)
		body := ta.get("/dashboard").Body.String()

		assertContains(t, body, "No events found for this date")
		assertNotContains(t, body, "Failed to load calendar events", "<table>")
	})

	t.Run("Fetch Failure", func(t *testing.T) {
		ta := newTestApp(t, "abc", nil, 2*time.Second)
		ta.source.Errs["2024-03-15"] = shared.ErrFetchFailed

		body := ta.get("/dashboard").Body.String()
		assertContains(t, body, "Failed to load calendar events")
		assertNotContains(t, body, "No events found for this date")
	})

	t.Run("Selected Date", func(t *testing.T) {
		ta := newTestApp(t, "abc", nil, 2*time.Second)
		body := ta.get("/dashboard?date=2024-12-25").Body.String()

		assertContains(t, body, "Events for Wednesday, December 25, 2024", `value="2024-12-25"`,
			"date=2024-12-24", "date=2024-12-26")
		if calls := ta.source.Calls(); len(calls) != 1 || calls[0].Key != "2024-12-25" {
			t.Errorf("unexpected calls %+v", calls)
		}
	})

	t.Run("Invalid Date Falls Back To Today", func(t *testing.T) {
		ta := newTestApp(t, "abc", nil, 2*time.Second)
		assertContains(t, ta.get("/dashboard?date=tomorrow").Body.String(), `value="2024-03-15"`)
	})

	t.Run("Reload Refetches", func(t *testing.T) {
		ta := newTestApp(t, "abc", nil, 2*time.Second)
		ta.get("/dashboard")
		ta.get("/dashboard")

		if n := len(ta.source.Calls()); n != 2 {
			t.Errorf("expected a fetch per page load, got %d", n)
		}
	})

	t.Run("Loading State Polls", func(t *testing.T) {
		ta := newTestApp(t, "abc", nil, 10*time.Millisecond)
		release := ta.source.Gate("2024-03-15")
		defer release()

		body := ta.get("/dashboard").Body.String()
		assertContains(t, body, "Loading events...", `hx-trigger="load delay:1s"`)
		assertNotContains(t, body, "No events found for this date", "Failed to load calendar events")
	})

	t.Run("Events Partial", func(t *testing.T) {
		ta := newTestApp(t, "abc", nil, 2*time.Second)
		ta.source.Events["2024-03-16"] = []models.CalendarEvent{{ID: "2", Title: "Brunch"}}

		rec := ta.get("/dashboard/events?date=2024-03-16")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		assertContains(t, body, `<section id="events"`, "Brunch")
		assertNotContains(t, body, "<html")
	})

	t.Run("Partial Polling Does Not Refetch", func(t *testing.T) {
		ta := newTestApp(t, "abc", nil, 2*time.Second)
		ta.get("/dashboard/events?date=2024-03-16")
		ta.get("/dashboard/events?date=2024-03-16")

		if n := len(ta.source.Calls()); n != 1 {
			t.Errorf("expected a single fetch, got %d", n)
		}
	})

	t.Run("Unauthenticated Partial Uses HX-Redirect", func(t *testing.T) {
		ta := newTestApp(t, "", nil, time.Second)
		req := httptest.NewRequest(http.MethodGet, "/dashboard/events", nil)
		req.Header.Set("HX-Request", "true")

		rec := ta.do(req)
		if got := rec.Header().Get("HX-Redirect"); got != "/" {
			t.Errorf("HX-Redirect = %q, want /", got)
		}
	})
}

func TestAuthFlows(t *testing.T) {
	ctx := context.Background()

	t.Run("Credential Login", func(t *testing.T) {
		ta := newTestApp(t, "", nil, 2*time.Second)

		assertRedirect(t, ta.post("/login", url.Values{"credential": {"abc"}}), "/dashboard")

		if s := ta.m.Current(); !s.Authenticated || s.Token != "abc" {
			t.Errorf("expected Authenticated(abc), got %+v", s)
		}
		if token, ok, _ := ta.store.Load(ctx); !ok || token != "abc" {
			t.Errorf("expected stored token, got %q", token)
		}

		body := ta.get("/dashboard").Body.String()
		assertContains(t, body, "Successfully logged in!")

		body = ta.get("/dashboard").Body.String()
		assertNotContains(t, body, "Successfully logged in!")
	})

	t.Run("Empty Credential Is A Failed Login", func(t *testing.T) {
		ta := newTestApp(t, "", nil, time.Second)

		assertRedirect(t, ta.post("/login", url.Values{"credential": {""}}), "/")
		if ta.m.Current().Authenticated {
			t.Error("expected unauthenticated")
		}
		assertContains(t, ta.get("/").Body.String(), session.MsgLoginFailed)
	})

	t.Run("Logout", func(t *testing.T) {
		ta := newTestApp(t, "abc", nil, 2*time.Second)
		ta.get("/dashboard")

		assertRedirect(t, ta.post("/logout", nil), "/")

		if ta.m.Current().Authenticated {
			t.Error("expected unauthenticated")
		}
		if _, ok, _ := ta.store.Load(ctx); ok {
			t.Error("expected token store to be cleared")
		}
		assertContains(t, ta.get("/").Body.String(), "Successfully logged out!")
		assertRedirect(t, ta.get("/dashboard"), "/")
	})

	t.Run("Google Redirect And Callback", func(t *testing.T) {
		ta := newTestApp(t, "", &stubAuth{token: "opaque"}, 2*time.Second)

		rec := ta.get("/auth/google")
		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}

		var state *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == stateCookie {
				state = c
			}
		}
		if state == nil || state.Value == "" || !state.HttpOnly {
			t.Fatalf("expected http-only state cookie, got %+v", state)
		}
		if !strings.HasSuffix(rec.Header().Get("Location"), "state="+state.Value) {
			t.Errorf("auth URL should carry state, got %s", rec.Header().Get("Location"))
		}

		req := httptest.NewRequest(http.MethodGet, "/callback?code=good&state="+state.Value, nil)
		req.AddCookie(state)
		assertRedirect(t, ta.do(req), "/dashboard")

		if s := ta.m.Current(); s.Token != "opaque" {
			t.Errorf("expected token from exchange, got %+v", s)
		}
	})

	t.Run("Callback With Wrong State", func(t *testing.T) {
		ta := newTestApp(t, "", &stubAuth{token: "opaque"}, time.Second)

		req := httptest.NewRequest(http.MethodGet, "/callback?code=good&state=forged", nil)
		req.AddCookie(&http.Cookie{Name: stateCookie, Value: "expected"})
		assertRedirect(t, ta.do(req), "/")

		if ta.m.Current().Authenticated {
			t.Error("forged state must not log in")
		}
		assertContains(t, ta.get("/").Body.String(), session.MsgLoginFailed)
	})

	t.Run("Callback Exchange Failure", func(t *testing.T) {
		ta := newTestApp(t, "", &stubAuth{token: "opaque"}, time.Second)

		req := httptest.NewRequest(http.MethodGet, "/callback?code=bad&state=s", nil)
		req.AddCookie(&http.Cookie{Name: stateCookie, Value: "s"})
		assertRedirect(t, ta.do(req), "/")

		if ta.m.Current().Authenticated {
			t.Error("expected unauthenticated")
		}
	})

	t.Run("Relogin Replaces Day Results", func(t *testing.T) {
		ta := newTestApp(t, "first", nil, 2*time.Second)
		ta.get("/dashboard")

		ta.post("/login", url.Values{"credential": {"second"}})
		ta.get("/dashboard/events")

		calls := ta.source.Calls()
		if len(calls) != 2 || calls[1].Token != "second" {
			t.Errorf("expected refetch with new token, got %+v", calls)
		}
	})
}

func TestNewApp(t *testing.T) {
	if _, err := NewApp(AppOpts{}); err == nil {
		t.Error("expected error without dependencies")
	}
}

func TestFlashNotifier(t *testing.T) {
	f := NewFlashNotifier()
	f.Notify(session.Notification{Level: session.LevelSuccess, Message: "one"})
	f.Notify(session.Notification{Level: session.LevelError, Message: "two"})

	got := f.Drain()
	if len(got) != 2 || got[0].Message != "one" || got[1].Message != "two" {
		t.Errorf("unexpected flashes %+v", got)
	}
	if len(f.Drain()) != 0 {
		t.Error("expected queue to be empty after drain")
	}
}
