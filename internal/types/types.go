// Package types holds the small set of identifier types shared across every
// pass, so that no pass needs to import another pass just to name its
// dependency's handles.
package types

import "fmt"

// Atom is an interned 32-bit identifier for a token: a math symbol or a
// statement label. Atoms are only meaningful relative to the Nameset that
// interned them.
type Atom uint32

// NoAtom is the zero value, used as an explicit "not interned" sentinel.
const NoAtom Atom = 0

// Label is an Atom known to identify a statement rather than a math symbol.
// Kept as a distinct name (not a distinct type) to match the distinction
// `original_source/src/formula.rs` draws between `TypeCode`, `Symbol` and
// `Label`, all of which are `Atom` underneath.
type Label = Atom

// TypeCode is an Atom known to identify a grammatical typecode (e.g. `wff`,
// `class`, `|-`).
type TypeCode = Atom

// NodeID indexes a node within a single Formula's node table. It is only
// meaningful relative to the Formula that allocated it.
type NodeID int32

// NoNode (-1, not the zero value) is an explicit "no such node" sentinel.
const NoNode NodeID = -1

// SegmentID is an opaque handle identifying a Segment across reparses. It is
// stable across a reparse as long as the replacement segment occupies the
// same logical position; see segment.Order for the ordering discipline that
// makes this guarantee possible.
type SegmentID uint32

func (s SegmentID) String() string {
	return fmt.Sprintf("Segment#%d", uint32(s))
}

// StatementIndex is the position of a statement within its owning segment.
type StatementIndex int

// Address identifies a single statement: the segment that owns it plus its
// position within that segment.
type Address struct {
	Segment SegmentID
	Index   StatementIndex
}

func (a Address) String() string {
	return fmt.Sprintf("%s[%d]", a.Segment, a.Index)
}
