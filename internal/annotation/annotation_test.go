package annotation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lsnmst/idjwi-alert-system/internal/notes"
	"github.com/lsnmst/idjwi-alert-system/internal/notify"
)

// queueDispatcher collects dispatched tasks so tests run loop work
// deterministically on the test goroutine.
type queueDispatcher struct {
	tasks chan func()
}

func newQueueDispatcher() *queueDispatcher {
	return &queueDispatcher{tasks: make(chan func(), 16)}
}

func (d *queueDispatcher) Dispatch(fn func()) {
	d.tasks <- fn
}

// runNext waits for the next dispatched task and executes it.
func (d *queueDispatcher) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-d.tasks:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a dispatched task")
	}
}

// expectIdle asserts that no task arrives within a short window.
func (d *queueDispatcher) expectIdle(t *testing.T) {
	t.Helper()
	select {
	case <-d.tasks:
		t.Fatal("unexpected task dispatched")
	case <-time.After(50 * time.Millisecond):
	}
}

// fakeStore is a synchronous in-memory store.
type fakeStore struct {
	mu        sync.Mutex
	rows      []notes.Note
	listErr   error
	listCalls int
	inserted  []notes.InsertPayload
	insertErr error
}

func (s *fakeStore) ListNotes(context.Context) ([]notes.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]notes.Note, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *fakeStore) InsertNote(_ context.Context, payload notes.InsertPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, payload)
	return nil
}

func (s *fakeStore) insertedPayloads() []notes.InsertPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notes.InsertPayload, len(s.inserted))
	copy(out, s.inserted)
	return out
}

func (s *fakeStore) listCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

type listResult struct {
	rows []notes.Note
	err  error
}

// orderedStore hands each ListNotes call a private reply channel so tests
// control exactly when, and in which order, responses arrive.
type orderedStore struct {
	started chan chan listResult
}

func newOrderedStore() *orderedStore {
	return &orderedStore{started: make(chan chan listResult, 4)}
}

func (s *orderedStore) ListNotes(context.Context) ([]notes.Note, error) {
	reply := make(chan listResult)
	s.started <- reply
	r := <-reply
	return r.rows, r.err
}

// nextCall waits for an in-flight ListNotes call and returns its reply channel.
func (s *orderedStore) nextCall(t *testing.T) chan listResult {
	t.Helper()
	select {
	case reply := <-s.started:
		return reply
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a ListNotes call")
		return nil
	}
}

// recordingNotifier captures user notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(m notify.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, m.Text)
}

func (n *recordingNotifier) last(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.messages)
	return n.messages[len(n.messages)-1]
}
