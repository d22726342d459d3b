package grammar

import (
	"testing"

	"github.com/marnix/metamath-knife/internal/diag"
	"github.com/marnix/metamath-knife/internal/mm"
	"github.com/marnix/metamath-knife/internal/nameset"
	"github.com/marnix/metamath-knife/internal/scopeck"
	"github.com/marnix/metamath-knife/internal/segment"
	"github.com/marnix/metamath-knife/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gstmt(kind mm.StatementKind, label string, math ...string) mm.Statement {
	toks := make([][]byte, len(math))
	for i, m := range math {
		toks[i] = []byte(m)
	}
	return mm.Statement{Kind: kind, Label: label, Math: toks}
}

// wiStatements declares wi: "wff ( ph -> ps )" as the sole syntax axiom over
// a tiny propositional grammar, mirroring set.mm's wff/-> formation
// rule but with explicit parens so the rule has more than one terminal.
func wiStatements() []mm.Statement {
	return []mm.Statement{
		gstmt(mm.StmtConstants, "", "wff", "(", "->", ")"),
		gstmt(mm.StmtVariables, "", "ph", "ps"),
		gstmt(mm.StmtFloating, "wph", "wff", "ph"),
		gstmt(mm.StmtFloating, "wps", "wff", "ps"),
		gstmt(mm.StmtAxiom, "wi", "wff", "(", "ph", "->", "ps", ")"),
	}
}

func buildGrammar(t *testing.T, stmts []mm.Statement, directives []mm.Directive) (*nameset.Set, *Grammar) {
	t.Helper()
	segs := []*segment.Segment{{ID: types.SegmentID(1), Statements: stmts, Directives: directives}}
	ns, nsDiags := nameset.Build(segs)
	require.Empty(t, nsDiags)
	sc, scDiags := scopeck.Build(segs, ns)
	require.Empty(t, scDiags)
	g, gDiags := Build(segs, ns, sc)
	require.Empty(t, gDiags)
	return ns, g
}

func atomsOf(t *testing.T, ns *nameset.Set, toks ...string) []types.Atom {
	t.Helper()
	out := make([]types.Atom, len(toks))
	for i, tok := range toks {
		a, ok := ns.SymbolAtom(tok)
		require.True(t, ok, "undeclared symbol %q", tok)
		out[i] = a
	}
	return out
}

func TestBuildCompilesFloatingAndSyntaxRules(t *testing.T) {
	ns, g := buildGrammar(t, wiStatements(), nil)

	wff, ok := ns.SymbolAtom("wff")
	require.True(t, ok)
	require.Contains(t, g.byLHS, wff)
	assert.Len(t, g.rules, 3) // wph, wps, wi
}

func TestParseBuildsFormulaTreeFromGrammar(t *testing.T) {
	ns, g := buildGrammar(t, wiStatements(), nil)
	wff, _ := ns.SymbolAtom("wff")

	tokens := atomsOf(t, ns, "(", "ph", "->", "ps", ")")
	f, ambiguous, ok := g.Parse(tokens, wff)
	require.True(t, ok)
	assert.False(t, ambiguous)

	wi, ok := ns.LabelAtom("wi")
	require.True(t, ok)
	assert.Equal(t, wi, f.Label(f.Root()))
	assert.Len(t, f.Children(f.Root()), 2)

	back, err := f.Iter(ns)
	require.NoError(t, err)
	assert.Equal(t, tokens, back)
}

func TestParseRejectsMalformedInput(t *testing.T) {
	ns, g := buildGrammar(t, wiStatements(), nil)
	wff, _ := ns.SymbolAtom("wff")

	tokens := atomsOf(t, ns, "(", "ph", "->", ")") // missing ps
	_, _, ok := g.Parse(tokens, wff)
	assert.False(t, ok)
}

func TestParseFlagsAmbiguousGrammar(t *testing.T) {
	stmts := append(wiStatements(), gstmt(mm.StmtAxiom, "wi2", "wff", "(", "ph", "->", "ps", ")"))
	ns, g := buildGrammar(t, stmts, nil)
	wff, _ := ns.SymbolAtom("wff")

	tokens := atomsOf(t, ns, "(", "ph", "->", "ps", ")")
	_, ambiguous, ok := g.Parse(tokens, wff)
	require.True(t, ok)
	assert.True(t, ambiguous)
}

func TestBuildResolvesSyntaxDirectiveStartTypeCodes(t *testing.T) {
	directives := []mm.Directive{{Tokens: []string{"syntax", "'wff'"}}}
	ns, g := buildGrammar(t, wiStatements(), directives)
	wff, _ := ns.SymbolAtom("wff")

	assert.True(t, g.StartTypeCodes()[wff])
}

func TestParseAnyFindsDeclaredStartTypeCode(t *testing.T) {
	directives := []mm.Directive{{Tokens: []string{"syntax", "'wff'"}}}
	ns, g := buildGrammar(t, wiStatements(), directives)

	tokens := atomsOf(t, ns, "(", "ph", "->", "ps", ")")
	_, tc, _, ok := g.ParseAny(tokens)
	require.True(t, ok)
	wff, _ := ns.SymbolAtom("wff")
	assert.Equal(t, wff, tc)
}

func TestParseStatementsParsesAxiomsAndProvables(t *testing.T) {
	stmts := append(wiStatements(), mm.Statement{
		Kind: mm.StmtProvable, Label: "thm1",
		Math: [][]byte{[]byte("wff"), []byte("("), []byte("ph"), []byte("->"), []byte("ps"), []byte(")")},
	})
	segs := []*segment.Segment{{ID: types.SegmentID(1), Statements: stmts}}
	ns, nsDiags := nameset.Build(segs)
	require.Empty(t, nsDiags)
	sc, scDiags := scopeck.Build(segs, ns)
	require.Empty(t, scDiags)
	g, gDiags := Build(segs, ns, sc)
	require.Empty(t, gDiags)

	res, diags := ParseStatements(segs, ns, g)
	assert.Empty(t, diags)

	wi, ok := ns.LabelAtom("wi")
	require.True(t, ok)
	_, ok = res.Formula(wi)
	assert.True(t, ok)

	thm1, ok := ns.LabelAtom("thm1")
	require.True(t, ok)
	_, ok = res.Formula(thm1)
	assert.True(t, ok)
}

func TestParseStatementsFlagsUnparsableStatement(t *testing.T) {
	stmts := append(wiStatements(), mm.Statement{
		Kind: mm.StmtProvable, Label: "bad",
		Math: [][]byte{[]byte("wff"), []byte("("), []byte("ph"), []byte(")")}, // missing -> ps
	})
	segs := []*segment.Segment{{ID: types.SegmentID(1), Statements: stmts}}
	ns, nsDiags := nameset.Build(segs)
	require.Empty(t, nsDiags)
	sc, scDiags := scopeck.Build(segs, ns)
	require.Empty(t, scDiags)
	g, gDiags := Build(segs, ns, sc)
	require.Empty(t, gDiags)

	_, diags := ParseStatements(segs, ns, g)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindGrammarCantParse, diags[0].Kind)
}
