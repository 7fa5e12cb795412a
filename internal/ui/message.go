package ui

import (
	"github.com/desertthunder/calday/internal/session"
	"github.com/desertthunder/calday/internal/tasks"
)

// resultMsg signals that the query changed state.
type resultMsg tasks.Result

// noticeMsg carries a session notification into the update loop.
type noticeMsg session.Notification

// Notices is a [session.Notifier] that hands notifications to the TUI. Sends never block.
type Notices struct {
	ch chan session.Notification
}

// NewNotices creates a [Notices] with room for a few pending notifications.
func NewNotices() *Notices {
	return &Notices{ch: make(chan session.Notification, 8)}
}

func (n *Notices) Notify(note session.Notification) {
	select {
	case n.ch <- note:
	default:
	}
}

// C returns the receive side.
func (n *Notices) C() <-chan session.Notification {
	return n.ch
}
