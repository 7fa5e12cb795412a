package ui

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/calday/internal/formatter"
	"github.com/desertthunder/calday/internal/models"
	"github.com/desertthunder/calday/internal/session"
	"github.com/desertthunder/calday/internal/shared"
	"github.com/desertthunder/calday/internal/tasks"
	tu "github.com/desertthunder/calday/internal/testing"
)

var now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type testModel struct {
	m       *Model
	store   *tu.MemoryTokenStore
	source  *tu.MockEventSource
	query   *tasks.EventQuery
	notices *Notices
}

func newTestModel(t *testing.T, token string) *testModel {
	t.Helper()

	quiet := shared.NewLogger(io.Discard)
	notices := NewNotices()
	store := tu.NewMemoryTokenStore(token)
	sessions := session.NewManager(store, session.ManagerOpts{Notifier: notices, Logger: quiet})
	if err := sessions.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}

	updates := make(chan tasks.Result, 64)
	source := tu.NewMockEventSource(time.UTC)
	query := tasks.NewEventQuery(source, tasks.QueryOpts{Location: time.UTC, Logger: quiet, Updates: updates})
	m := NewModel(context.Background(), sessions, query, ModelOpts{
		Updates: updates,
		Notices: notices,
		Now:     func() time.Time { return now },
	})

	return &testModel{m: m, store: store, source: source, query: query, notices: notices}
}

// settle waits for the query to finish and delivers the update to the model.
func (tm *testModel) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := tm.query.Wait(ctx); err != nil {
		t.Fatalf("query did not settle: %v", err)
	}
	tm.m.Update(resultMsg(tm.query.Snapshot()))
}

// notice delivers the next session notification to the model.
func (tm *testModel) notice(t *testing.T) session.Notification {
	t.Helper()
	select {
	case n := <-tm.notices.C():
		tm.m.Update(noticeMsg(n))
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("no notification")
		return session.Notification{}
	}
}

func (tm *testModel) press(keys string) tea.Cmd {
	_, cmd := tm.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
	return cmd
}

func event(id, title string, hour int) models.CalendarEvent {
	return models.CalendarEvent{
		ID:    id,
		Title: title,
		Start: time.Date(2024, 3, 15, hour, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 15, hour, 30, 0, 0, time.UTC),
	}
}

func TestModel(t *testing.T) {
	t.Run("Unauthenticated Starts At Login", func(t *testing.T) {
		tm := newTestModel(t, "")
		tm.m.Init()

		if tm.m.State() != LoginView {
			t.Fatalf("State() = %v, want LoginView", tm.m.State())
		}
		if !strings.Contains(tm.m.View(), "Sign in with Google") {
			t.Errorf("login view missing title:\n%s", tm.m.View())
		}
		if calls := tm.source.Calls(); len(calls) != 0 {
			t.Errorf("unauthenticated model fetched: %+v", calls)
		}
	})

	t.Run("Authenticated Loads Today", func(t *testing.T) {
		tm := newTestModel(t, "tok-1")
		tm.source.Events["2024-03-15"] = []models.CalendarEvent{event("1", "Standup", 9)}
		tm.m.Init()
		tm.settle(t)

		if tm.m.State() != DayView {
			t.Fatalf("State() = %v, want DayView", tm.m.State())
		}
		calls := tm.source.Calls()
		if len(calls) != 1 || calls[0] != (tu.FetchCall{Token: "tok-1", Key: "2024-03-15"}) {
			t.Fatalf("calls = %+v", calls)
		}

		view := tm.m.View()
		for _, want := range []string{formatter.Heading(now), "Standup", "9:00 AM - 9:30 AM"} {
			if !strings.Contains(view, want) {
				t.Errorf("view missing %q:\n%s", want, view)
			}
		}
	})

	t.Run("Loading State", func(t *testing.T) {
		tm := newTestModel(t, "tok-1")
		release := tm.source.Gate("2024-03-15")
		defer release()
		tm.m.Init()

		if !strings.Contains(tm.m.View(), msgLoading) {
			t.Errorf("view should show loading:\n%s", tm.m.View())
		}
	})

	t.Run("Empty Day", func(t *testing.T) {
		tm := newTestModel(t, "tok-1")
		tm.m.Init()
		tm.settle(t)

		if !strings.Contains(tm.m.View(), msgEmpty) {
			t.Errorf("view should show empty message:\n%s", tm.m.View())
		}
	})

	t.Run("Fetch Failure", func(t *testing.T) {
		tm := newTestModel(t, "tok-1")
		tm.source.Errs["2024-03-15"] = shared.ErrFetchFailed
		tm.m.Init()
		tm.settle(t)

		view := tm.m.View()
		if !strings.Contains(view, msgFailed) {
			t.Errorf("view should show failure:\n%s", view)
		}
		if strings.Contains(view, msgEmpty) {
			t.Errorf("failure rendered as empty:\n%s", view)
		}
	})

	t.Run("Day Navigation", func(t *testing.T) {
		tm := newTestModel(t, "tok-1")
		tm.m.Init()
		tm.settle(t)

		tests := []struct {
			keys string
			want string
		}{
			{"l", "2024-03-16"},
			{"l", "2024-03-17"},
			{"h", "2024-03-16"},
			{"t", "2024-03-15"},
		}
		for _, tt := range tests {
			tm.press(tt.keys)
			tm.settle(t)
			if got := models.DayKey(tm.m.Day(), time.UTC); got != tt.want {
				t.Errorf("after %q Day() = %s, want %s", tt.keys, got, tt.want)
			}
		}

		calls := tm.source.Calls()
		if len(calls) != 5 {
			t.Fatalf("expected a fetch per day change, got %+v", calls)
		}
		if calls[4].Key != "2024-03-15" {
			t.Errorf("today fetched %s", calls[4].Key)
		}
	})

	t.Run("Ignores Results For Another Day", func(t *testing.T) {
		tm := newTestModel(t, "tok-1")
		tm.source.Events["2024-03-16"] = []models.CalendarEvent{event("2", "Planning", 11)}
		release := tm.source.Gate("2024-03-17")
		defer release()
		tm.m.Init()
		tm.settle(t)

		tm.press("l")
		tm.settle(t)
		tm.press("l")
		tm.m.Update(resultMsg(tasks.Result{Key: "2024-03-16", Status: tasks.StatusSuccess}))

		view := tm.m.View()
		if strings.Contains(view, "Planning") || !strings.Contains(view, msgLoading) {
			t.Errorf("previous day leaked into view:\n%s", view)
		}
	})

	t.Run("Refresh Refetches", func(t *testing.T) {
		tm := newTestModel(t, "tok-1")
		tm.m.Init()
		tm.settle(t)

		tm.press("r")
		tm.settle(t)

		if calls := tm.source.Calls(); len(calls) != 2 {
			t.Errorf("refresh should refetch, calls = %+v", calls)
		}
	})

	t.Run("Logout", func(t *testing.T) {
		tm := newTestModel(t, "tok-1")
		tm.m.Init()
		tm.settle(t)

		tm.press("L")

		if tm.m.State() != LoginView {
			t.Fatalf("State() = %v, want LoginView", tm.m.State())
		}
		if _, ok, _ := tm.store.Load(context.Background()); ok {
			t.Error("token should be cleared")
		}
		if r := tm.query.Snapshot(); r.Key != "" {
			t.Errorf("query should be reset, got %+v", r)
		}
		if n := tm.notice(t); n.Message != session.MsgLoggedOut {
			t.Errorf("notice = %q", n.Message)
		}
		if !strings.Contains(tm.m.View(), session.MsgLoggedOut) {
			t.Errorf("view missing notice:\n%s", tm.m.View())
		}
	})

	t.Run("Token Login", func(t *testing.T) {
		tm := newTestModel(t, "")
		tm.m.Init()

		tm.press("tok-2")
		tm.m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		tm.settle(t)

		if tm.m.State() != DayView {
			t.Fatalf("State() = %v, want DayView", tm.m.State())
		}
		calls := tm.source.Calls()
		if len(calls) != 1 || calls[0].Token != "tok-2" {
			t.Errorf("calls = %+v", calls)
		}
		if n := tm.notice(t); n.Message != session.MsgLoggedIn {
			t.Errorf("notice = %q", n.Message)
		}
	})

	t.Run("Empty Token Fails", func(t *testing.T) {
		tm := newTestModel(t, "")
		tm.m.Init()

		tm.m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		if tm.m.State() != LoginView {
			t.Fatalf("State() = %v, want LoginView", tm.m.State())
		}
		if n := tm.notice(t); n.Level != session.LevelError {
			t.Errorf("notice = %+v, want error", n)
		}
		if !strings.Contains(tm.m.View(), session.MsgLoginFailed) {
			t.Errorf("view missing failure:\n%s", tm.m.View())
		}
	})

	t.Run("Quit", func(t *testing.T) {
		tm := newTestModel(t, "tok-1")
		tm.m.Init()
		tm.settle(t)

		cmd := tm.press("q")
		if cmd == nil {
			t.Fatal("q should return a command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("q should quit")
		}
	})

	t.Run("Login View Types q", func(t *testing.T) {
		tm := newTestModel(t, "")
		tm.m.Init()

		tm.press("q")
		if tm.m.input.Value() != "q" {
			t.Errorf("input = %q, want q", tm.m.input.Value())
		}
	})
}

func TestNotices(t *testing.T) {
	n := NewNotices()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			n.Notify(session.Notification{Level: session.LevelSuccess, Message: "hi"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full channel")
	}

	if got := len(n.C()); got != cap(n.ch) {
		t.Errorf("buffered = %d, want %d", got, cap(n.ch))
	}
}

func TestEventItem(t *testing.T) {
	tests := []struct {
		name  string
		event models.CalendarEvent
		title string
		desc  string
	}{
		{"timed", event("1", "Standup", 9), "Standup", "9:00 AM - 9:30 AM • -"},
		{"untitled", models.CalendarEvent{ID: "2"}, "(No title)", "- - - • -"},
		{"all day", models.CalendarEvent{Title: "Holiday", AllDay: true, Description: "off"}, "Holiday", "All day • off"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := eventItem{event: tt.event}
			if item.Title() != tt.title {
				t.Errorf("Title() = %q, want %q", item.Title(), tt.title)
			}
			if item.Description() != tt.desc {
				t.Errorf("Description() = %q, want %q", item.Description(), tt.desc)
			}
			if item.FilterValue() != tt.event.Title {
				t.Errorf("FilterValue() = %q", item.FilterValue())
			}
		})
	}

	if items := eventItems(nil); len(items) != 0 {
		t.Errorf("eventItems(nil) = %v", items)
	}
}
