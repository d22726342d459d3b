package scopeck

import (
	"testing"

	"github.com/marnix/metamath-knife/internal/mm"
	"github.com/marnix/metamath-knife/internal/nameset"
	"github.com/marnix/metamath-knife/internal/segment"
	"github.com/marnix/metamath-knife/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mstmt(kind mm.StatementKind, label string, math ...string) mm.Statement {
	toks := make([][]byte, len(math))
	for i, m := range math {
		toks[i] = []byte(m)
	}
	return mm.Statement{Kind: kind, Label: label, Math: toks}
}

// buildNames constructs a nameset.Set over a flat statement list for tests
// that only need the scope pass, without going through segment.Set.Read.
func buildNames(stmts ...mm.Statement) *nameset.Set {
	segs := []*segment.Segment{{ID: 1, Statements: stmts}}
	ns, _ := nameset.Build(segs)
	return ns
}

// TestBuildFrameIncludesOnlyMandatoryFloatingHyps mirrors the canonical
// `wa` example: `wph $f wff ph`, `wps $f wff ps`, with only `ph` appearing
// in the axiom's conclusion — `wps` must be excluded from the frame.
func TestBuildFrameIncludesOnlyMandatoryFloatingHyps(t *testing.T) {
	stmts := []mm.Statement{
		mstmt(mm.StmtConstants, "", "wff", "->"),
		mstmt(mm.StmtVariables, "", "ph", "ps"),
		mstmt(mm.StmtFloating, "wph", "wff", "ph"),
		mstmt(mm.StmtFloating, "wps", "wff", "ps"),
		mstmt(mm.StmtAxiom, "ax-id", "wff", "ph"),
	}
	ns := buildNames(stmts...)
	segs := []*segment.Segment{{ID: 1, Statements: stmts}}

	r, diags := Build(segs, ns)
	assert.Empty(t, diags)

	axID, ok := ns.LabelAtom("ax-id")
	require.True(t, ok)
	frame, ok := r.Frame(axID)
	require.True(t, ok)

	wph, _ := ns.LabelAtom("wph")
	require.Equal(t, []types.Label{wph}, frame.Mandatory)
}

// TestBuildFrameAlwaysIncludesEssentialHyps checks that $e hypotheses are
// mandatory regardless of whether their variables recur in the conclusion,
// and that the essential hyp's own variables widen the mandatory set.
func TestBuildFrameAlwaysIncludesEssentialHyps(t *testing.T) {
	stmts := []mm.Statement{
		mstmt(mm.StmtConstants, "", "wff", "|-"),
		mstmt(mm.StmtVariables, "", "ph", "ps"),
		mstmt(mm.StmtFloating, "wph", "wff", "ph"),
		mstmt(mm.StmtFloating, "wps", "wff", "ps"),
		mstmt(mm.StmtEssential, "min", "|-", "ph"),
		mstmt(mm.StmtAxiom, "ax-mp", "wff", "ps"),
	}
	ns := buildNames(stmts...)
	segs := []*segment.Segment{{ID: 1, Statements: stmts}}

	r, diags := Build(segs, ns)
	assert.Empty(t, diags)

	axMP, _ := ns.LabelAtom("ax-mp")
	frame, ok := r.Frame(axMP)
	require.True(t, ok)

	wph, _ := ns.LabelAtom("wph")
	wps, _ := ns.LabelAtom("wps")
	min, _ := ns.LabelAtom("min")
	assert.ElementsMatch(t, []types.Label{wph, wps, min}, frame.Mandatory)
}

// TestBuildFrameFiltersDisjointToMandatoryVars checks that a $d constraint
// on a variable outside the mandatory set is dropped from the frame.
func TestBuildFrameFiltersDisjointToMandatoryVars(t *testing.T) {
	stmts := []mm.Statement{
		mstmt(mm.StmtConstants, "", "wff", "->"),
		mstmt(mm.StmtVariables, "", "ph", "ps", "ch"),
		mstmt(mm.StmtFloating, "wph", "wff", "ph"),
		mstmt(mm.StmtFloating, "wps", "wff", "ps"),
		mstmt(mm.StmtFloating, "wch", "wff", "ch"),
		mstmt(mm.StmtDisjoint, "", "ph", "ps", "ch"),
		mstmt(mm.StmtAxiom, "ax-x", "wff", "ph"),
	}
	ns := buildNames(stmts...)
	segs := []*segment.Segment{{ID: 1, Statements: stmts}}

	r, diags := Build(segs, ns)
	assert.Empty(t, diags)

	axX, _ := ns.LabelAtom("ax-x")
	frame, ok := r.Frame(axX)
	require.True(t, ok)
	assert.Empty(t, frame.Disjoint) // none of ps/ch are mandatory here
}

// TestBuildDiscardsHypsOnBlockClose checks that a hypothesis declared
// inside a `${ ... $}` block is not mandatory for a statement outside it.
func TestBuildDiscardsHypsOnBlockClose(t *testing.T) {
	stmts := []mm.Statement{
		mstmt(mm.StmtConstants, "", "wff"),
		mstmt(mm.StmtVariables, "", "ph"),
		{Kind: mm.StmtOpenBlock},
		mstmt(mm.StmtFloating, "wph", "wff", "ph"),
		{Kind: mm.StmtCloseBlock},
		mstmt(mm.StmtAxiom, "ax-outside", "wff", "ph"),
	}
	ns := buildNames(stmts...)
	segs := []*segment.Segment{{ID: 1, Statements: stmts}}

	r, diags := Build(segs, ns)
	assert.Empty(t, diags)

	axOutside, _ := ns.LabelAtom("ax-outside")
	frame, ok := r.Frame(axOutside)
	require.True(t, ok)
	assert.Empty(t, frame.Mandatory) // wph went out of scope with the block
}
