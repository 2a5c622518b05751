package driver

// Scoped wraps a Buffer so that a deferred call to Release releases it
// exactly once, unless the caller has explicitly marked it Consumed
// (because it was handed off to a successful transmit). This turns "the
// buffer must be released exactly once on every path" from an invariant
// every processor branch has to reprove into one defer at the top of the
// processing function.
type Scoped struct {
	buf      Buffer
	consumed bool
}

// Acquire wraps buf for scoped release.
func Acquire(buf Buffer) *Scoped {
	return &Scoped{buf: buf}
}

// Buffer returns the underlying Buffer.
func (s *Scoped) Buffer() Buffer { return s.buf }

// Consume marks the buffer as handed off; the deferred Release becomes a
// no-op. Call this only once ownership has actually transferred, e.g.
// after a successful tx-burst enqueue.
func (s *Scoped) Consume() { s.consumed = true }

// Release returns the buffer to its pool unless Consume was already
// called. Safe to defer unconditionally.
func (s *Scoped) Release() {
	if s.consumed {
		return
	}
	s.buf.Release()
	s.consumed = true
}
