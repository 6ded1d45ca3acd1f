package store

import "sync"

// lease is the validity token of one activation. A result may be committed
// only through a valid lease; once revoked it never becomes valid again.
type lease struct {
	mu    sync.Mutex
	valid bool
}

func newLease() *lease {
	return &lease{valid: true}
}

// Revoke invalidates the lease and reports whether it was valid before.
// When Revoke returns, no commit through this lease is running or can start.
func (l *lease) Revoke() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	was := l.valid
	l.valid = false
	return was
}

// Commit runs fn while holding the lease, only if it is still valid, and
// reports whether fn ran.
func (l *lease) Commit(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.valid {
		return false
	}
	fn()
	return true
}
