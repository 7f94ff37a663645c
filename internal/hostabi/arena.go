package hostabi

import "unsafe"

// Arena retains every buffer handed across the ABI boundary for the
// lifetime of one invocation: allocate per invocation, free en masse at
// exit, never reuse a buffer already given to the host. Go's GC would
// keep these alive on its own for the duration of a single call, but the
// entry point constructs exactly one Arena per invocation and never
// returns buffers to a pool, so the no-reuse invariant holds by
// construction rather than by convention.
type Arena struct {
	live [][]byte
}

// NewArena creates an empty per-invocation arena.
func NewArena() *Arena {
	return &Arena{}
}

// CString copies s into a NUL-terminated buffer retained by the arena and
// returns a pointer to its first byte, as every string parameter in the
// picker ABI expects a NUL-terminated C string.
func (a *Arena) CString(s string) unsafe.Pointer {
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	a.live = append(a.live, buf)
	return unsafe.Pointer(&buf[0])
}

// Bytes retains b and returns its pointer and length, or (nil, 0) for an
// empty icon: an entry with no bitmap passes a null pointer rather than
// a pointer to a zero-length buffer.
func (a *Arena) Bytes(b []byte) (unsafe.Pointer, uint32) {
	if len(b) == 0 {
		return nil, 0
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	a.live = append(a.live, cp)
	return unsafe.Pointer(&cp[0]), uint32(len(cp))
}
