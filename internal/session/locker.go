package session

import "sync"

// Locker serializes turns per session id. Two simultaneous requests for
// the same session would otherwise race on read-modify-write of the state
// record; cross-session requests stay fully concurrent.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocker() *Locker {
	return &Locker{locks: map[string]*sync.Mutex{}}
}

// Lock acquires the per-session mutex and returns its release function.
func (l *Locker) Lock(sessionID string) func() {
	sessionID = NormalizeID(sessionID)

	l.mu.Lock()
	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
