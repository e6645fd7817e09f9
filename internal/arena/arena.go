// Package arena implements the plain bump-allocator the design notes call
// for in place of the original slab allocator (spec.md §9: "a systems
// language port can start with a plain arena ... or omit it entirely").
// It is a pure optimisation: acquiring from the arena versus calling make()
// directly never changes program behaviour, only allocation reuse.
package arena

import "os"

// Arena hands out byte slices from a reusable backing buffer, reset once
// per chunk by the worker that owns it. Disabled via ALLOCATOR_BYPASS, read
// once at process start per spec.md's Open Questions.
type Arena struct {
	buf     []byte
	off     int
	bypass  bool
}

// bypassEnv caches ALLOCATOR_BYPASS at package init; the spec treats the
// env var as read-once at start-up, not a mid-run toggle.
var bypassEnv = os.Getenv("ALLOCATOR_BYPASS") != ""

// New creates an Arena with an initial backing capacity.
func New(capacity int) *Arena {
	a := &Arena{bypass: bypassEnv}
	if !a.bypass {
		a.buf = make([]byte, capacity)
	}
	return a
}

// Acquire returns an n-byte slice backed by arena capacity, growing the
// backing buffer if necessary. When ALLOCATOR_BYPASS is set it simply
// calls make(), matching the "behavioural equivalent only" contract.
// Growth preserves bytes already handed out by earlier Acquire calls
// since Release: callers may Acquire more than once per chunk (a
// compress scratch buffer and a cipher scratch buffer, say) before
// releasing at the end.
func (a *Arena) Acquire(n int) []byte {
	if a.bypass {
		return make([]byte, n)
	}
	if a.off+n > len(a.buf) {
		grown := make([]byte, a.off+n)
		copy(grown, a.buf[:a.off])
		a.buf = grown
	}
	b := a.buf[a.off : a.off+n]
	a.off += n
	return b
}

// Release resets the arena for reuse by the next chunk. It does not zero
// memory; callers must not retain slices returned by Acquire past Release.
func (a *Arena) Release() {
	a.off = 0
}
