package tasks

import "sync/atomic"

// Generation hands out monotonically increasing request tokens.
//
// A caller takes a token with [Generation.Next] before issuing a request and
// discards the response unless [Generation.IsCurrent] still holds for it.
type Generation struct {
	n atomic.Uint64
}

// Next starts a new request and returns its token.
func (g *Generation) Next() uint64 {
	return g.n.Add(1)
}

// IsCurrent reports whether token belongs to the newest request.
func (g *Generation) IsCurrent(token uint64) bool {
	return g.n.Load() == token
}
