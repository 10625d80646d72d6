package filtering

import "sync/atomic"

// Sequencer orders overlapping list fetches with latest-wins semantics:
// every fetch takes a token from Next, and a response may only be applied
// while its token is still the newest one issued. Stale responses are
// discarded instead of overwriting fresher data.
type Sequencer struct {
	n atomic.Uint64
}

// Next registers a new fetch and returns its token, invalidating all
// previously issued tokens.
func (s *Sequencer) Next() uint64 {
	return s.n.Add(1)
}

// Current reports whether a response carrying tok may still be applied.
func (s *Sequencer) Current(tok uint64) bool {
	return s.n.Load() == tok
}
