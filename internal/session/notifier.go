package session

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Level classifies a notification.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Notification is a short user-facing message emitted by a transition.
type Notification struct {
	Level   Level
	Message string
}

const (
	MsgLoggedIn    = "Successfully logged in!"
	MsgLoggedOut   = "Successfully logged out!"
	MsgLoginFailed = "Login failed. Please try again."
)

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to a [log.Logger].
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a [LogNotifier].
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(note Notification) {
	if note.Level == LevelError {
		n.logger.Warn(note.Message)
		return
	}
	n.logger.Info(note.Message)
}

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}

// Fanout delivers each notification to every registered [Notifier] in registration order.
type Fanout struct {
	mu        sync.RWMutex
	notifiers []Notifier
}

// NewFanout creates a [Fanout] over notifiers.
func NewFanout(notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers}
}

// Add registers n.
func (f *Fanout) Add(n Notifier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifiers = append(f.notifiers, n)
}

func (f *Fanout) Notify(note Notification) {
	f.mu.RLock()
	notifiers := append([]Notifier(nil), f.notifiers...)
	f.mu.RUnlock()

	for _, n := range notifiers {
		n.Notify(note)
	}
}
