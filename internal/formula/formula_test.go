package formula

import (
	"testing"

	"github.com/marnix/metamath-knife/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Atom ids used across these tests. Kept as named constants for readability,
// mirroring the labels used in spec.md §8's GRAMMAR_DB scenario (weq, cadd,
// cA, cB, A, B).
const (
	atWeq types.Atom = iota + 1
	atCadd
	atCA
	atCB
	atVarA
	atVarB
)

// buildAxCom builds the formula for `|- ( A + B ) = ( B + A )`, the term
// `weq (cadd A B) (cadd B A)` whose leaves A and B are the variable atoms
// atVarA/atVarB. This mirrors the structure of spec.md §8 scenario 1
// (ax-com): weq(cadd(A,B), cadd(B,A)).
func buildAxCom() *Formula {
	b := &Builder{}
	b.Reduce(atVarA, 0, 0, true)  // push var A
	b.Reduce(atVarB, 0, 0, true)  // push var B
	b.Reduce(atCadd, 2, 0, false) // cadd(A,B)
	b.Reduce(atVarB, 0, 0, true)
	b.Reduce(atVarA, 0, 0, true)
	b.Reduce(atCadd, 2, 0, false) // cadd(B,A)
	b.Reduce(atWeq, 2, 0, false)  // weq(cadd(A,B), cadd(B,A))
	return b.Build(1)
}

func TestGetByPath(t *testing.T) {
	f := buildAxCom()
	label, ok := f.GetByPath(nil)
	require.True(t, ok)
	assert.Equal(t, atWeq, label)

	label, ok = f.GetByPath([]int{0})
	require.True(t, ok)
	assert.Equal(t, atCadd, label)

	label, ok = f.GetByPath([]int{0, 0})
	require.True(t, ok)
	assert.Equal(t, atVarA, label)

	label, ok = f.GetByPath([]int{1, 1})
	require.True(t, ok)
	assert.Equal(t, atVarA, label)

	_, ok = f.GetByPath([]int{5})
	assert.False(t, ok, "out-of-range path must fail")

	_, ok = f.GetByPath([]int{0, 0, 0})
	assert.False(t, ok, "path past a leaf must fail")
}

func TestEqualityReflexiveAndSymmetric(t *testing.T) {
	f := buildAxCom()
	g := buildAxCom()
	assert.True(t, f.Equal(f))
	assert.True(t, f.Equal(g))
	assert.True(t, g.Equal(f))
}

// groundTerm builds cadd(cA, cB), a ground (variable-free) term.
func groundTerm() *Formula {
	b := &Builder{}
	b.Reduce(atCA, 0, 0, false)
	b.Reduce(atCB, 0, 0, false)
	b.Reduce(atCadd, 2, 0, false)
	return b.Build(1)
}

// patternTerm builds cadd(vx, vy) where vx, vy are pattern variables,
// mirroring spec.md §8's "unify completeness" scenario: b is a with some
// subterms replaced by fresh variable labels.
func patternTerm(vx, vy types.Atom) *Formula {
	b := &Builder{}
	b.Reduce(vx, 0, 0, true)
	b.Reduce(vy, 0, 0, true)
	b.Reduce(atCadd, 2, 0, false)
	return b.Build(1)
}

func TestUnifySoundnessAndCompleteness(t *testing.T) {
	const vx types.Atom = 100
	const vy types.Atom = 101

	a := groundTerm()
	p := patternTerm(vx, vy)

	subs, ok := a.Unify(p)
	require.True(t, ok, "unify completeness: ground vs its own pattern must succeed")
	require.Equal(t, 2, subs.Len())

	// Soundness: b.substitute(subs) == a.
	result := p.Substitute(subs)
	assert.True(t, result.Equal(a))
}

func TestUnifyFailsOnStructuralMismatch(t *testing.T) {
	a := groundTerm()
	b := buildAxCom()
	_, ok := a.Unify(b)
	assert.False(t, ok)
}

func TestUnifyRepeatedVariableMustMatch(t *testing.T) {
	const vx types.Atom = 200
	b := &Builder{}
	b.Reduce(vx, 0, 0, true)
	b.Reduce(vx, 0, 0, true)
	b.Reduce(atCadd, 2, 0, false)
	pattern := b.Build(1) // cadd(vx, vx)

	same := &Builder{}
	same.Reduce(atCA, 0, 0, false)
	same.Reduce(atCA, 0, 0, false)
	same.Reduce(atCadd, 2, 0, false)
	sameFormula := same.Build(1) // cadd(cA, cA)

	_, ok := sameFormula.Unify(pattern)
	assert.True(t, ok)

	diff := &Builder{}
	diff.Reduce(atCA, 0, 0, false)
	diff.Reduce(atCB, 0, 0, false)
	diff.Reduce(atCadd, 2, 0, false)
	diffFormula := diff.Build(1) // cadd(cA, cB)

	_, ok = diffFormula.Unify(pattern)
	assert.False(t, ok, "a repeated pattern variable must bind to equal sub-formulas")
}

func TestSubstituteIdempotenceWhenNoKeyOccurs(t *testing.T) {
	f := groundTerm()
	subs := newSubstitutions()
	subs.m[999] = groundTerm() // a variable label that never occurs in f
	result := f.Substitute(subs)
	assert.True(t, result.Equal(f))
}

func TestSubFormulaSharesNodeTable(t *testing.T) {
	f := buildAxCom()
	sub := f.SubFormula(f.Children(f.Root())[0])
	assert.Equal(t, atCadd, sub.Label(sub.Root()))
	// Sharing the backing table means re-rooting is O(1): no nodes copied.
	assert.Same(t, &f.nodes[0], &sub.nodes[0])
}

// fakeResolver implements LabelTokens for a tiny hand-built statement table,
// used to exercise Iter/Display without a real nameset/segment set.
type fakeResolver struct {
	tokens map[types.Atom]struct {
		symbols  []types.Atom
		variable []bool
	}
}

func (r fakeResolver) StatementMathTokens(label types.Atom) ([]types.Atom, []bool, bool) {
	e, ok := r.tokens[label]
	if !ok {
		return nil, nil, false
	}
	return e.symbols, e.variable, true
}

const (
	symEq types.Atom = iota + 1000
	symLP
	symRP
	symPlus
	symA
	symB
)

func TestIterFlattenRoundTrip(t *testing.T) {
	// weq : wff A = B          -> symbols [A, =, B] variable [true,false,true]
	// cadd: class ( A + B )    -> symbols [(, A, +, B, )] variable [false,true,false,true,false]
	// atVarA/atVarB are leaves (floating hypotheses): each contributes its own
	// variable token (symA/symB) directly, since a leaf has no child to
	// recurse into even though its token is variable-classified.
	resolver := fakeResolver{tokens: map[types.Atom]struct {
		symbols  []types.Atom
		variable []bool
	}{
		atWeq:  {symbols: []types.Atom{atVarA, symEq, atVarB}, variable: []bool{true, false, true}},
		atCadd: {symbols: []types.Atom{symLP, atVarA, symPlus, atVarB, symRP}, variable: []bool{false, true, false, true, false}},
		atVarA: {symbols: []types.Atom{symA}, variable: []bool{true}},
		atVarB: {symbols: []types.Atom{symB}, variable: []bool{true}},
	}}

	f := buildAxCom() // weq(cadd(A,B), cadd(B,A))
	out, err := f.Iter(resolver)
	require.NoError(t, err)
	// A = B  with A -> (A+B), B -> (B+A)
	want := []types.Atom{
		symLP, symA, symPlus, symB, symRP, // (A+B)
		symEq,
		symLP, symB, symPlus, symA, symRP, // (B+A)
	}
	assert.Equal(t, want, out)
}
