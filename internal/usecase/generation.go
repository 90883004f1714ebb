package usecase

import "sync/atomic"

// generation tags asynchronous requests so only the latest one may apply its result
type generation struct {
	latest atomic.Uint64
}

// next starts a new request and returns its tag
func (g *generation) next() uint64 {
	return g.latest.Add(1)
}

// isCurrent reports whether tag belongs to the most recently started request
func (g *generation) isCurrent(tag uint64) bool {
	return g.latest.Load() == tag
}
