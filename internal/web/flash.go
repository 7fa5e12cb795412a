package web

import (
	"sync"

	"github.com/desertthunder/calday/internal/session"
)

// FlashNotifier queues notifications until the next full page render.
//
// The app serves a single user, so one queue is shared by every request.
type FlashNotifier struct {
	mu      sync.Mutex
	pending []session.Notification
}

// NewFlashNotifier creates an empty [FlashNotifier].
func NewFlashNotifier() *FlashNotifier {
	return &FlashNotifier{}
}

func (f *FlashNotifier) Notify(n session.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, n)
}

// Drain returns the queued notifications and empties the queue.
func (f *FlashNotifier) Drain() []session.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.pending
	f.pending = nil
	return out
}
