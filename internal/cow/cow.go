// Package cow implements the reference-counted copy-on-write wrapper spec.md
// §9 asks for in a language without a built-in Arc/Rc: "clone bumps a count;
// make_mut deep-copies if count > 1." It backs the shared ownership of the
// segment set and every pass result described in spec.md §3's Ownership
// note.
package cow

// Cloner is implemented by any type that can produce an independent deep
// copy of itself.
type Cloner[T any] interface {
	Clone() T
}

// Box is a cheaply-clonable handle to a *T. Cloning a Box bumps a shared
// refcount instead of copying the payload; MakeMut returns a pointer safe to
// mutate, deep-copying first if the payload is currently shared.
type Box[T Cloner[T]] struct {
	ptr  *T
	refs *int32
}

// NewBox wraps value as the sole owner of a fresh Box.
func NewBox[T Cloner[T]](value T) Box[T] {
	refs := int32(1)
	return Box[T]{ptr: &value, refs: &refs}
}

// Clone returns a new handle sharing the same underlying value; it does not
// copy the payload.
func (b Box[T]) Clone() Box[T] {
	*b.refs++
	return b
}

// Get returns a read-only view of the current value.
func (b Box[T]) Get() *T {
	return b.ptr
}

// MakeMut returns a pointer safe to mutate in place. If other Box handles
// share the payload (refs > 1), it deep-copies first via T.Clone and this
// Box becomes the sole owner of the copy.
func (b *Box[T]) MakeMut() *T {
	if *b.refs > 1 {
		*b.refs--
		copied := (*b.ptr).Clone()
		refs := int32(1)
		b.ptr = &copied
		b.refs = &refs
	}
	return b.ptr
}

// RefCount reports the current number of Box handles sharing the payload.
// Exposed for tests that assert the cheap-clone property.
func (b Box[T]) RefCount() int32 {
	return *b.refs
}
