package services

import (
	"sync"

	"sandscore-api/models"
)

// RecalcGuard serializes rating writers per match-type scope. A
// recalculation holds its scopes exclusively for the whole run; live
// submissions hold a shared claim for the duration of their transaction.
// Either side finding the scope taken by the other gets a retryable
// error instead of silently interleaving with a reset. Mens and womens
// never share rating state, so they may run independently.
type RecalcGuard struct {
	mu        sync.Mutex
	exclusive map[string]bool
	shared    map[string]int
}

func NewRecalcGuard() *RecalcGuard {
	return &RecalcGuard{
		exclusive: make(map[string]bool),
		shared:    make(map[string]int),
	}
}

// TryLock claims every given scope exclusively, or claims none and
// reports the conflict. An in-flight submission blocks the claim the
// same way another recalculation does; submissions are short, so the
// caller just retries.
func (g *RecalcGuard) TryLock(matchTypes ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, mt := range matchTypes {
		if g.exclusive[mt] || g.shared[mt] > 0 {
			return models.ErrRecalcInProgress
		}
	}
	for _, mt := range matchTypes {
		g.exclusive[mt] = true
	}
	return nil
}

// Unlock releases previously claimed scopes.
func (g *RecalcGuard) Unlock(matchTypes ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, mt := range matchTypes {
		delete(g.exclusive, mt)
	}
}

// Acquire takes a shared claim on a scope for one live submission. It
// fails while a recalculation holds the scope; any number of
// submissions may hold it together.
func (g *RecalcGuard) Acquire(matchType string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.exclusive[matchType] {
		return models.ErrRecalcInProgress
	}
	g.shared[matchType]++
	return nil
}

// Release drops a shared claim taken by Acquire.
func (g *RecalcGuard) Release(matchType string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.shared[matchType] > 0 {
		g.shared[matchType]--
	}
}

// Held reports whether a recalculation currently holds a scope.
func (g *RecalcGuard) Held(matchType string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.exclusive[matchType]
}
