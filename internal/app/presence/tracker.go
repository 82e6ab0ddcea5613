// Package presence tracks which users currently hold an open real-time
// session. State is process-local and lost on restart.
package presence

import (
	"sort"
	"sync"
)

// Tracker is a concurrency-safe set of online usernames.
type Tracker struct {
	mu    sync.RWMutex
	users map[string]struct{}
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{users: make(map[string]struct{})}
}

// Connect marks username online. It reports whether the user was offline
// before the call.
func (t *Tracker) Connect(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.users[username]; ok {
		return false
	}
	t.users[username] = struct{}{}
	return true
}

// Disconnect marks username offline. It reports whether the user was online
// before the call.
func (t *Tracker) Disconnect(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.users[username]; !ok {
		return false
	}
	delete(t.users, username)
	return true
}

func (t *Tracker) IsOnline(username string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.users[username]
	return ok
}

// ListOnline returns a sorted snapshot of online usernames.
func (t *Tracker) ListOnline() []string {
	t.mu.RLock()
	out := make([]string, 0, len(t.users))
	for u := range t.users {
		out = append(out, u)
	}
	t.mu.RUnlock()

	sort.Strings(out)
	return out
}

