// package web serves the login page and the day dashboard as server-rendered HTML with htmx partials
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/calday/internal/formatter"
	"github.com/desertthunder/calday/internal/models"
	"github.com/desertthunder/calday/internal/server"
	"github.com/desertthunder/calday/internal/services"
	"github.com/desertthunder/calday/internal/session"
	"github.com/desertthunder/calday/internal/shared"
	"github.com/desertthunder/calday/internal/tasks"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	stateCookie   = "calday_oauth_state"
	stateLifetime = 10 * time.Minute
)

// App is the web presentation layer. It reads the session, decides navigation, and renders the day query.
type App struct {
	sessions   *session.Manager
	query      *tasks.EventQuery
	auth       services.Authenticator
	flash      *FlashNotifier
	templates  *template.Template
	renderWait time.Duration
	logger     *log.Logger
	now        func() time.Time
}

// AppOpts contains the dependencies of an [App]. Auth may be nil when Google sign-in is not configured.
type AppOpts struct {
	Sessions   *session.Manager
	Query      *tasks.EventQuery
	Auth       services.Authenticator
	Flash      *FlashNotifier
	RenderWait time.Duration
	Logger     *log.Logger
	Now        func() time.Time
}

// NewApp parses the embedded templates and creates an [App].
func NewApp(opts AppOpts) (*App, error) {
	if opts.Sessions == nil || opts.Query == nil {
		return nil, fmt.Errorf("%w: web app requires a session manager and a query", shared.ErrInvalidArgument)
	}
	if opts.Flash == nil {
		opts.Flash = NewFlashNotifier()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	tmpl, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &App{
		sessions:   opts.Sessions,
		query:      opts.Query,
		auth:       opts.Auth,
		flash:      opts.Flash,
		templates:  tmpl,
		renderWait: opts.RenderWait,
		logger:     shared.WithLogger(opts.Logger, "component", "web"),
		now:        opts.Now,
	}, nil
}

// Handler returns the app's routes behind the default middleware stack and the session context.
func (a *App) Handler() http.Handler {
	router := server.NewBasicRouter()
	router.Use(server.Defaults(a.logger)...)
	router.Use(server.WithSession(a.sessions))
	a.mount(router)
	return router
}

func (a *App) mount(router server.Router) {
	router.HandleFunc(http.MethodGet, "/{$}", a.handleLogin)
	router.HandleFunc(http.MethodGet, "/dashboard", a.handleDashboard)
	router.HandleFunc(http.MethodGet, "/dashboard/events", a.handleEvents)
	router.HandleFunc(http.MethodGet, "/auth/google", a.handleAuthStart)
	router.HandleFunc(http.MethodGet, "/callback", a.handleCallback)
	router.HandleFunc(http.MethodPost, "/login", a.handleCredential)
	router.HandleFunc(http.MethodPost, "/logout", a.handleLogout)
	router.HandleFunc(http.MethodGet, "/healthz", a.handleHealth)
	router.HandleFunc("", "/", a.handleCatchAll)
}

// pageData is the view model of a full page.
type pageData struct {
	Title          string
	Page           string
	Session        models.Session
	Flashes        []session.Notification
	AuthConfigured bool
	Events         eventsView
}

// eventsView is the view model of the events section.
type eventsView struct {
	Date    string
	Prev    string
	Next    string
	Heading string
	Columns []string
	Loading bool
	Failed  bool
	Empty   bool
	Rows    []eventRow
}

type eventRow struct {
	Title       string
	Start       string
	End         string
	Description string
}

func newEventsView(day time.Time, r tasks.Result) eventsView {
	v := eventsView{
		Date:    day.Format(models.DayKeyLayout),
		Prev:    day.AddDate(0, 0, -1).Format(models.DayKeyLayout),
		Next:    day.AddDate(0, 0, 1).Format(models.DayKeyLayout),
		Heading: formatter.Heading(day),
		Columns: formatter.Columns,
	}

	switch r.Status {
	case tasks.StatusSuccess:
		v.Empty = len(r.Events) == 0
		for _, e := range r.Events {
			v.Rows = append(v.Rows, eventRow{
				Title:       formatter.Title(e),
				Start:       formatter.StartTime(e),
				End:         formatter.EndTime(e),
				Description: formatter.Description(e),
			})
		}
	case tasks.StatusError:
		v.Failed = true
	default:
		v.Loading = true
	}
	return v
}

// navigate sends the browser to the page that matches the session: the dashboard when authenticated, the login
// page otherwise.
func (a *App) navigate(w http.ResponseWriter, r *http.Request, s models.Session) {
	target := "/"
	if s.Authenticated {
		target = "/dashboard"
	}
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context()).Current()
	if s.Authenticated {
		a.navigate(w, r, s)
		return
	}

	a.render(w, pageData{
		Title:          "Sign in",
		Page:           "login",
		Session:        s,
		Flashes:        a.flash.Drain(),
		AuthConfigured: a.auth != nil,
	})
}

func (a *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context()).Current()
	if !s.Authenticated {
		a.navigate(w, r, s)
		return
	}

	day := a.selectedDay(r)
	if snap := a.query.Snapshot(); snap.Key == models.DayKey(day, a.query.Location()) && snap.Status != tasks.StatusLoading {
		a.query.Invalidate()
	}
	result := a.load(r.Context(), s.Token, day)

	a.render(w, pageData{
		Title:   "Dashboard",
		Page:    "dashboard",
		Session: s,
		Flashes: a.flash.Drain(),
		Events:  newEventsView(day, result),
	})
}

func (a *App) handleEvents(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context()).Current()
	if !s.Authenticated {
		a.navigate(w, r, s)
		return
	}

	day := a.selectedDay(r)
	result := a.load(r.Context(), s.Token, day)
	a.renderPartial(w, "events", newEventsView(day, result))
}

// load selects day and waits up to renderWait for it to settle.
func (a *App) load(ctx context.Context, token string, day time.Time) tasks.Result {
	a.query.Select(ctx, token, day)

	waitCtx, cancel := context.WithTimeout(ctx, a.renderWait)
	defer cancel()

	result, err := a.query.Wait(waitCtx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		a.logger.Debug("stopped waiting for events", "error", err)
	}
	if result.Key != models.DayKey(day, a.query.Location()) {
		return tasks.Result{Status: tasks.StatusLoading}
	}
	return result
}

// selectedDay reads ?date=YYYY-MM-DD, falling back to today.
func (a *App) selectedDay(r *http.Request) time.Time {
	loc := a.query.Location()
	if value := r.URL.Query().Get("date"); value != "" {
		day, err := models.ParseDay(value, loc)
		if err == nil {
			return day
		}
		a.logger.Debug("ignoring invalid date", "value", value, "error", err)
	}
	return models.StartOfDay(a.now(), loc)
}

func (a *App) handleAuthStart(w http.ResponseWriter, r *http.Request) {
	if a.auth == nil {
		http.Error(w, "Google sign-in is not configured", http.StatusServiceUnavailable)
		return
	}

	state, err := shared.GenerateState()
	if err != nil {
		a.logger.Error("failed to generate state", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, a.auth.AuthURL(state), http.StatusFound)
}

func (a *App) handleCallback(w http.ResponseWriter, r *http.Request) {
	if a.auth == nil {
		http.Error(w, "Google sign-in is not configured", http.StatusServiceUnavailable)
		return
	}

	var state string
	if c, err := r.Cookie(stateCookie); err == nil {
		state = c.Value
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	a.completeLogin(w, r, server.ExchangeCallback(r.Context(), a.auth, r.URL.Query(), state))
}

func (a *App) handleCredential(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	a.completeLogin(w, r, server.NewIdentityResult(r.PostForm.Get("credential"), nil))
}

// completeLogin hands an identity result to the session and navigates from the resulting state.
func (a *App) completeLogin(w http.ResponseWriter, r *http.Request, result server.IdentityResult) {
	sessions := session.FromContext(r.Context())

	if err := result.Error(); err != nil {
		sessions.RejectLogin(err)
	} else if err := sessions.Login(r.Context(), result.Credential); err != nil {
		sessions.RejectLogin(err)
	} else {
		a.query.Reset()
	}

	a.navigate(w, r, sessions.Current())
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	sessions := session.FromContext(r.Context())
	if err := sessions.Logout(r.Context()); err != nil {
		a.logger.Error("logout did not clear the token store", "error", err)
	}
	a.query.Reset()

	a.navigate(w, r, sessions.Current())
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (a *App) handleCatchAll(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) render(w http.ResponseWriter, data pageData) {
	a.renderPartial(w, "layout.html", data)
}

func (a *App) renderPartial(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, name, data); err != nil {
		a.logger.Error("template error", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
