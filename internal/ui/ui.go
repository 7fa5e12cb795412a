package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/calday/internal/formatter"
	"github.com/desertthunder/calday/internal/models"
	"github.com/desertthunder/calday/internal/session"
	"github.com/desertthunder/calday/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	DayView
)

const (
	msgLoading = "Loading events..."
	msgFailed  = "Failed to load calendar events"
	msgEmpty   = "No events found for this date"
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	sessions *session.Manager
	query    *tasks.EventQuery
	updates  <-chan tasks.Result
	notices  <-chan session.Notification
	now      func() time.Time
	day      time.Time
	result   tasks.Result
	notice   *session.Notification
	width    int
	height   int
	events   list.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
}

// ModelOpts contains optional collaborators for [NewModel].
type ModelOpts struct {
	// Updates must be the channel passed to the query as [tasks.QueryOpts].Updates.
	Updates <-chan tasks.Result
	Notices *Notices
	Now     func() time.Time
}

// NewModel creates a TUI model. The initial view follows the current session.
func NewModel(ctx context.Context, sessions *session.Manager, query *tasks.EventQuery, opts ModelOpts) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	input := textinput.New()
	input.Placeholder = "paste a Google access token"
	input.EchoMode = textinput.EchoPassword
	input.Prompt = "token: "

	events := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	events.SetShowTitle(false)
	events.SetShowHelp(false)
	events.SetShowStatusBar(false)
	events.SetFilteringEnabled(false)

	m := &Model{
		ctx:      ctx,
		sessions: sessions,
		query:    query,
		updates:  opts.Updates,
		now:      opts.Now,
		events:   events,
		input:    input,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:     help.New(),
		keys:     newKeyMap(),
	}
	if opts.Notices != nil {
		m.notices = opts.Notices.C()
	}
	m.day = models.StartOfDay(m.now(), query.Location())
	m.enter(m.sessionView())
	return m
}

// State returns the active [ViewState].
func (m *Model) State() ViewState {
	return m.view
}

// Day returns the selected day.
func (m *Model) Day() time.Time {
	return m.day
}

// Init starts listening for query and session updates and, when signed in, loads the selected day.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForUpdate(), m.waitForNotice()}
	if m.view == DayView {
		m.load()
		cmds = append(cmds, m.spinner.Tick)
	} else {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.events.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case DayView:
			return m.handleDayKeys(msg)
		}

	case resultMsg:
		m.refresh()
		return m, m.waitForUpdate()

	case noticeMsg:
		note := session.Notification(msg)
		m.notice = &note
		return m, m.waitForNotice()

	case spinner.TickMsg:
		if m.result.Status != tasks.StatusLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.view {
	case LoginView:
		m.input, cmd = m.input.Update(msg)
	case DayView:
		m.events, cmd = m.events.Update(msg)
	}
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder
	switch m.view {
	case LoginView:
		b.WriteString(m.renderLogin())
	case DayView:
		b.WriteString(m.renderDay())
	}

	if m.notice != nil {
		b.WriteString("\n\n")
		b.WriteString(m.renderNotice(*m.notice))
	}
	return b.String()
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc:
		return m, tea.Quit
	case key.Matches(msg, m.keys.submit):
		token := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if err := m.sessions.Login(m.ctx, token); err != nil {
			m.sessions.RejectLogin(err)
			return m, nil
		}
		m.query.Reset()
		if m.navigate() {
			m.load()
			return m, m.spinner.Tick
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleDayKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.prev):
		return m, m.selectDay(m.day.AddDate(0, 0, -1))
	case key.Matches(msg, m.keys.next):
		return m, m.selectDay(m.day.AddDate(0, 0, 1))
	case key.Matches(msg, m.keys.today):
		return m, m.selectDay(m.now())
	case key.Matches(msg, m.keys.refresh):
		m.query.Invalidate()
		m.load()
		return m, m.spinner.Tick
	case key.Matches(msg, m.keys.logout):
		_ = m.sessions.Logout(m.ctx)
		m.query.Reset()
		if m.navigate() {
			return m, textinput.Blink
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.events, cmd = m.events.Update(msg)
	return m, cmd
}

// navigate moves to the view matching the session and reports whether it changed.
func (m *Model) navigate() bool {
	next := m.sessionView()
	if next == m.view {
		return false
	}
	m.enter(next)
	return true
}

func (m *Model) sessionView() ViewState {
	if m.sessions.Current().Authenticated {
		return DayView
	}
	return LoginView
}

func (m *Model) enter(v ViewState) {
	m.view = v
	if v == LoginView {
		m.input.Focus()
		m.result = tasks.Result{}
		m.events.SetItems(nil)
		return
	}
	m.input.Blur()
}

func (m *Model) selectDay(day time.Time) tea.Cmd {
	m.day = models.StartOfDay(day, m.query.Location())
	m.load()
	return m.spinner.Tick
}

// load selects the current day on the query and reflects its state immediately.
func (m *Model) load() {
	m.query.Select(m.ctx, m.sessions.Current().Token, m.day)
	m.refresh()
}

// refresh copies the query snapshot, ignoring results for days other than the selected one.
func (m *Model) refresh() {
	r := m.query.Snapshot()
	if r.Key != models.DayKey(m.day, m.query.Location()) {
		return
	}
	m.result = r
	m.events.SetItems(eventItems(r.Events))
}

func (m *Model) waitForUpdate() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return func() tea.Msg {
		r, ok := <-m.updates
		if !ok {
			return nil
		}
		return resultMsg(r)
	}
}

func (m *Model) waitForNotice() tea.Cmd {
	if m.notices == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-m.notices
		if !ok {
			return nil
		}
		return noticeMsg(n)
	}
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("Sign in with Google")
	hint := styles.help.Render("Run `calday login` to sign in through the browser, or paste a token below.")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.submit, key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "quit"))})
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, hint, m.input.View(), helpView)
}

func (m *Model) renderDay() string {
	var body string
	switch {
	case m.result.Status == tasks.StatusError:
		body = styles.error.Render(msgFailed)
	case m.result.Empty():
		body = styles.warning.Render(msgEmpty)
	case m.result.Status == tasks.StatusSuccess:
		body = m.events.View()
	default:
		body = fmt.Sprintf("%s %s", m.spinner.View(), msgLoading)
	}

	title := styles.title.Render(formatter.Heading(m.day))
	helpView := m.help.View(m.keys)
	return fmt.Sprintf("%s\n%s\n\n%s", title, body, helpView)
}

func (m *Model) renderNotice(n session.Notification) string {
	return styles.Notice(n.Level).Render(n.Message)
}
