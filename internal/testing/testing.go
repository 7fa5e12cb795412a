// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/calday/internal/models"
)

// MemoryTokenStore is an in-memory token store with injectable failures.
type MemoryTokenStore struct {
	mu       sync.Mutex
	token    string
	present  bool
	SaveErr  error
	LoadErr  error
	ClearErr error
	Loads    int
}

// NewMemoryTokenStore returns a store pre-populated with token when it is non-empty.
func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token, present: token != ""}
}

func (s *MemoryTokenStore) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.token, s.present = token, true
	return nil
}

func (s *MemoryTokenStore) Load(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Loads++
	if s.LoadErr != nil {
		return "", false, s.LoadErr
	}
	return s.token, s.present, nil
}

func (s *MemoryTokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ClearErr != nil {
		return s.ClearErr
	}
	s.token, s.present = "", false
	return nil
}

// FetchCall records one call to [MockEventSource.FetchEventsForDay].
type FetchCall struct {
	Token string
	Key   string
}

// MockEventSource is a test double for the calendar event source.
//
// Results and errors are keyed by YYYY-MM-DD. A key with a gate blocks until the gate is closed,
// which lets tests order responses.
type MockEventSource struct {
	mu     sync.Mutex
	Loc    *time.Location
	Events map[string][]models.CalendarEvent
	Errs   map[string]error
	gates  map[string]chan struct{}
	calls  []FetchCall
	called chan FetchCall
}

// NewMockEventSource creates an empty [MockEventSource] computing keys in loc.
func NewMockEventSource(loc *time.Location) *MockEventSource {
	return &MockEventSource{
		Loc:    loc,
		Events: make(map[string][]models.CalendarEvent),
		Errs:   make(map[string]error),
		gates:  make(map[string]chan struct{}),
		called: make(chan FetchCall, 64),
	}
}

// Gate makes fetches for key block until the returned func is called.
func (m *MockEventSource) Gate(key string) (release func()) {
	ch := make(chan struct{})
	m.mu.Lock()
	m.gates[key] = ch
	m.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Called delivers every call as it starts.
func (m *MockEventSource) Called() <-chan FetchCall {
	return m.called
}

// Calls returns the calls made so far.
func (m *MockEventSource) Calls() []FetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FetchCall(nil), m.calls...)
}

func (m *MockEventSource) FetchEventsForDay(ctx context.Context, token string, day time.Time) ([]models.CalendarEvent, error) {
	key := models.DayKey(day, m.Loc)
	call := FetchCall{Token: token, Key: key}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	gate := m.gates[key]
	events := m.Events[key]
	err := m.Errs[key]
	m.mu.Unlock()

	select {
	case m.called <- call:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.CalendarEvent{}
	}
	return events, nil
}

// SyncBuffer is a [bytes.Buffer] safe for loggers written from several goroutines.
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
