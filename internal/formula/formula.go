// Package formula implements the tree-shaped parsed representation of a
// Metamath statement — spec.md §4.3 — ported from
// original_source/src/formula.rs's Formula/FormulaBuilder/Substitutions/
// Flatten, which is the clearest ground truth in the corpus for this
// component; the control flow below mirrors that file closely, translated
// into Go idiom (NodeID as a plain table index, (ok bool) returns instead of
// Option, a Bitset instead of a bit_set::Bitset).
package formula

import (
	"fmt"
	"strings"

	"github.com/marnix/metamath-knife/internal/types"
)

// Label, TypeCode and NodeID are shared with every other pass; see
// internal/types.
type (
	Label    = types.Label
	TypeCode = types.TypeCode
	NodeID   = types.NodeID
)

// node is one entry of a Formula's node table.
type node struct {
	label    Label
	children []NodeID
}

// bitset is a minimal growable bit set indexed by NodeID, used to mark which
// nodes are variable occurrences.
type bitset struct {
	words []uint64
}

func (b *bitset) set(i NodeID) {
	idx := int(i) / 64
	for idx >= len(b.words) {
		b.words = append(b.words, 0)
	}
	b.words[idx] |= 1 << uint(int(i)%64)
}

func (b *bitset) has(i NodeID) bool {
	idx := int(i) / 64
	if idx >= len(b.words) {
		return false
	}
	return b.words[idx]&(1<<uint(int(i)%64)) != 0
}

func (b bitset) clone() bitset {
	words := make([]uint64, len(b.words))
	copy(words, b.words)
	return bitset{words: words}
}

// Formula is an ordered labeled tree: a typecode, a node table (one label
// and child list per node), a designated root, and a bitset marking which
// nodes are variable occurrences. See spec.md §3's Formula invariants.
type Formula struct {
	typecode  TypeCode
	nodes     []node
	root      NodeID
	variables bitset
}

// TypeCode returns the formula's designated typecode.
func (f *Formula) TypeCode() TypeCode { return f.typecode }

// Root returns the ID of the formula's root node.
func (f *Formula) Root() NodeID { return f.root }

// Label returns the label stored at node id.
func (f *Formula) Label(id NodeID) Label { return f.nodes[id].label }

// Children returns the ordered child IDs of node id.
func (f *Formula) Children(id NodeID) []NodeID { return f.nodes[id].children }

// IsVariable reports whether node id is marked as a variable occurrence.
func (f *Formula) IsVariable(id NodeID) bool { return f.variables.has(id) }

// GetByPath walks from the root taking the i-th child at each step of path,
// returning the label found there. It fails (ok=false) if any step exceeds
// the child count, matching spec.md §4.3's get_by_path contract.
func (f *Formula) GetByPath(path []int) (label Label, ok bool) {
	id := f.root
	for _, idx := range path {
		children := f.nodes[id].children
		if idx < 0 || idx >= len(children) {
			return 0, false
		}
		id = children[idx]
	}
	return f.nodes[id].label, true
}

// SubFormula returns a Formula sharing this tree's node table but re-rooted
// at node. spec.md §4.3 documents this as currently copying the tree and
// invites a shared-slice implementation later; this port keeps the node
// table as a shared slice already (Go slices alias their backing array), so
// SubFormula only needs to change the root, not duplicate nodes.
func (f *Formula) SubFormula(id NodeID) *Formula {
	return &Formula{
		typecode:  f.typecode,
		nodes:     f.nodes,
		root:      id,
		variables: f.variables,
	}
}

// SubEq performs the recursive structural equality check of spec.md §4.3:
// same label at the two nodes, same presence/absence of children, and every
// child pair recursively equal, in order.
func (f *Formula) SubEq(id NodeID, other *Formula, otherID NodeID) bool {
	if f.nodes[id].label != other.nodes[otherID].label {
		return false
	}
	sc, oc := f.nodes[id].children, other.nodes[otherID].children
	if len(sc) != len(oc) {
		return false
	}
	for i := range sc {
		if !f.SubEq(sc[i], other, oc[i]) {
			return false
		}
	}
	return true
}

// Equal implements whole-formula structural equality, rooted at each
// formula's own root.
func (f *Formula) Equal(other *Formula) bool {
	return f.SubEq(f.root, other, other.root)
}

// Substitutions maps variable-label atoms to boxed formulas, built by Unify
// and consumed by Substitute. See spec.md §3's Substitution Map.
type Substitutions struct {
	m map[Label]*Formula
}

func newSubstitutions() *Substitutions {
	return &Substitutions{m: make(map[Label]*Formula)}
}

// Get returns the formula bound to label, if any.
func (s *Substitutions) Get(label Label) (*Formula, bool) {
	f, ok := s.m[label]
	return f, ok
}

// Len reports the number of bound variables.
func (s *Substitutions) Len() int { return len(s.m) }

// Unify attempts to match f against other, treating other's variable nodes
// as pattern holes, per the algorithm in spec.md §4.3. It returns the
// substitutions that must be made in other to match f, or ok=false if no
// such substitution exists.
func (f *Formula) Unify(other *Formula) (*Substitutions, bool) {
	subs := newSubstitutions()
	if !f.subUnify(f.root, other, other.root, subs) {
		return nil, false
	}
	return subs, true
}

func (f *Formula) subUnify(id NodeID, other *Formula, otherID NodeID, subs *Substitutions) bool {
	if other.IsVariable(otherID) {
		varLabel := other.nodes[otherID].label
		if bound, ok := subs.m[varLabel]; ok {
			return f.SubEq(id, bound, bound.root)
		}
		subs.m[varLabel] = f.SubFormula(id)
		return true
	}
	if f.nodes[id].label != other.nodes[otherID].label {
		return false
	}
	sc, oc := f.nodes[id].children, other.nodes[otherID].children
	if len(sc) != len(oc) {
		return false
	}
	for i := range sc {
		if !f.subUnify(sc[i], other, oc[i], subs) {
			return false
		}
	}
	return true
}

// Substitute produces a new formula with every variable node whose label is
// a key in subs replaced by the corresponding formula; non-variable nodes
// and unbound variable nodes are copied as-is.
func (f *Formula) Substitute(subs *Substitutions) *Formula {
	b := &Builder{}
	f.subSubstitute(f.root, subs, b)
	return b.Build(f.typecode)
}

func (f *Formula) subSubstitute(id NodeID, subs *Substitutions, b *Builder) {
	if f.IsVariable(id) {
		if bound, ok := subs.m[f.nodes[id].label]; ok {
			bound.copySubFormula(bound.root, b)
			return
		}
	}
	children := f.nodes[id].children
	for _, c := range children {
		f.subSubstitute(c, subs, b)
	}
	b.Reduce(f.nodes[id].label, uint8(len(children)), 0, f.IsVariable(id))
}

// copySubFormula copies a sub-formula of f, rooted at id, into b unchanged.
func (f *Formula) copySubFormula(id NodeID, b *Builder) {
	children := f.nodes[id].children
	for _, c := range children {
		f.copySubFormula(c, b)
	}
	b.Reduce(f.nodes[id].label, uint8(len(children)), 0, f.IsVariable(id))
}

// LabelTokens is implemented by whatever can answer, for a statement label,
// the ordered sequence of math symbols that statement declares (after its
// typecode token) together with which of those symbols are themselves
// variables (and therefore require descending into a child rather than
// being emitted directly). internal/nameset's Set satisfies this through
// its StatementMathTokens method, without this package needing to import
// it — see SPEC_FULL.md §6.
type LabelTokens interface {
	StatementMathTokens(label Label) (symbols []types.Atom, isVariable []bool, ok bool)
}

// Iter flattens the formula back into its surface token sequence: at each
// labeled node it emits that label's statement's math tokens in order,
// recursing into the corresponding child whenever a variable token is
// encountered. The typecode token of each statement is skipped. Matches
// spec.md §4.3's iter contract; the returned slice is the whole sequence
// rather than a lazy iterator, which is an acceptable simplification since
// nothing in this core needs partial consumption.
func (f *Formula) Iter(resolver LabelTokens) ([]types.Atom, error) {
	var out []types.Atom
	var walk func(id NodeID) error
	walk = func(id NodeID) error {
		label := f.nodes[id].label
		symbols, isVar, ok := resolver.StatementMathTokens(label)
		if !ok {
			return fmt.Errorf("formula: no statement found for label %v", label)
		}
		children := f.nodes[id].children
		if len(children) == 0 {
			// Leaf node: nothing to recurse into, so every token of this
			// statement (even one classified as a variable token, e.g. a
			// floating hypothesis's own variable) is emitted directly.
			out = append(out, symbols...)
			return nil
		}
		childIdx := 0
		for i, sym := range symbols {
			if isVar[i] {
				if childIdx >= len(children) {
					return fmt.Errorf("formula: statement for label %v has more variables than node %v has children", label, id)
				}
				if err := walk(children[childIdx]); err != nil {
					return err
				}
				childIdx++
			} else {
				out = append(out, sym)
			}
		}
		return nil
	}
	if err := walk(f.root); err != nil {
		return nil, err
	}
	return out, nil
}

// NameLookup resolves an Atom back to its source text, for Display.
type NameLookup interface {
	AtomName(a types.Atom) string
}

// Display renders the formula's typecode name followed by space-separated
// symbol names from Iter.
func (f *Formula) Display(resolver LabelTokens, names NameLookup) (string, error) {
	symbols, err := f.Iter(resolver)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(names.AtomName(f.typecode))
	for _, s := range symbols {
		sb.WriteByte(' ')
		sb.WriteString(names.AtomName(s))
	}
	return sb.String(), nil
}

// Builder accumulates nodes via a stack model mirroring an LR-reduction, per
// spec.md §4.3's FormulaBuilder.
type Builder struct {
	stack []NodeID
	nodes []node
	vars  bitset
}

// Reduce pops the contiguous range [len-varCount-offset, len-offset) of the
// stack as ordered children, creates a new node labeled label with those
// children, marks it as a variable iff isVariable, and inserts the new node
// at position len-varCount-offset, leaving offset items on top undisturbed.
// The offset parameter supports nonlocal reductions (e.g. binder variables
// pushed earlier than their body) without rearranging the stack.
func (b *Builder) Reduce(label Label, varCount, offset uint8, isVariable bool) {
	need := int(varCount) + int(offset)
	if len(b.stack) < need {
		panic(fmt.Sprintf("formula.Builder.Reduce: stack has %d items, need %d", len(b.stack), need))
	}
	reduceStart := len(b.stack) - need
	reduceEnd := len(b.stack) - int(offset)

	children := append([]NodeID(nil), b.stack[reduceStart:reduceEnd]...)
	newID := NodeID(len(b.nodes))
	b.nodes = append(b.nodes, node{label: label, children: children})
	if isVariable {
		b.vars.set(newID)
	}

	rest := append([]NodeID(nil), b.stack[reduceEnd:]...)
	b.stack = append(b.stack[:reduceStart], append([]NodeID{newID}, rest...)...)
}

// Build requires the stack to hold exactly one node and returns it as the
// root of a new Formula with the given typecode.
func (b *Builder) Build(typecode TypeCode) *Formula {
	if len(b.stack) != 1 {
		panic(fmt.Sprintf("formula.Builder.Build: final state has %d roots, want 1", len(b.stack)))
	}
	return &Formula{
		typecode:  typecode,
		nodes:     b.nodes,
		root:      b.stack[0],
		variables: b.vars,
	}
}
