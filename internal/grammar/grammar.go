// Package grammar is the grammar pass: it builds a context-free grammar
// from every `$a` syntax axiom (an axiom with no essential hypotheses) plus
// every `$f` floating hypothesis, honoring `$j` directive comments, and
// parses math strings against it — the stmt-parse pass — producing
// internal/formula.Formula trees. Grounded in
// `other_examples/npillmayer-gorgo/lr/earley/earley.go`'s chart-parser shape
// (Earley item sets built by scan/predict/complete over dotted rules); that
// package's dependency tree (gorgo, sppf, iteratable) isn't part of this
// module's dependency graph, so the chart here is a from-scratch
// memoized-recognition table (the same asymptotic idea — reuse of
// previously computed (nonterminal, span) results — without its generic
// SPPF machinery, which Metamath's small per-statement grammars don't need).
package grammar

import (
	"github.com/marnix/metamath-knife/internal/diag"
	"github.com/marnix/metamath-knife/internal/mm"
	"github.com/marnix/metamath-knife/internal/nameset"
	"github.com/marnix/metamath-knife/internal/scopeck"
	"github.com/marnix/metamath-knife/internal/segment"
	"github.com/marnix/metamath-knife/internal/types"
)

// symbol is one position of a rule's right-hand side: either a terminal
// (match this exact token) or a nonterminal (recursively derive this
// typecode).
type symbol struct {
	terminal bool
	atom     types.Atom     // terminal: the exact token. nonterminal: unused.
	typeCode types.TypeCode // nonterminal: the typecode to derive.
}

func term(a types.Atom) symbol         { return symbol{terminal: true, atom: a} }
func nonterm(tc types.TypeCode) symbol { return symbol{terminal: false, typeCode: tc} }

// rule is one grammar production: label's math string (without its own
// typecode token), reduced to symbols. label is either a $f hypothesis
// (always a single-terminal unit rule) or a syntax $a axiom. floating marks
// the $f case, where the produced formula node is a variable-occurrence
// leaf rather than an internal axiom application.
type rule struct {
	label    types.Label
	lhs      types.TypeCode
	rhs      []symbol
	floating bool
}

// Grammar is the compiled set of productions plus the directive-derived
// configuration that shapes how they're used.
type Grammar struct {
	rules          []rule
	byLHS          map[types.TypeCode][]int
	startTypeCodes map[types.TypeCode]bool // from `syntax 'tc'` directives
	typeConversion bool                    // `type_conversions` directive seen
	gardenPaths    [][]string              // raw token lists from `garden_path` directives, recorded not resolved

	// pendingStartNames holds `syntax 'tc'` typecode names seen before ns
	// has necessarily interned them; resolved into startTypeCodes once
	// Build has scanned every segment.
	pendingStartNames []string
}

// StartTypeCodes reports which typecodes a `syntax` directive declared as
// parseable entry points. Empty means "no declaration seen" — every
// typecode that appears as some rule's LHS is then treated as a valid start.
func (g *Grammar) StartTypeCodes() map[types.TypeCode]bool { return g.startTypeCodes }

// Build scans every segment's statements and directives and compiles the
// grammar: $f hyps become unit terminal rules, syntax $a axioms (no
// essential hypotheses in their built frame) become productions, and $j
// comments configure start typecodes / type-conversion / garden-path
// handling. Non-syntax $a's (those with essential hyps — i.e. logical
// axioms like ax-mp, not grammatical ones like wi) and all $p's are not
// grammar rules; $p's are parsed against the grammar by the stmt-parse
// pass instead (see stmtparse.go).
func Build(segs []*segment.Segment, ns *nameset.Set, sc *scopeck.Result) (*Grammar, []diag.Diagnostic) {
	g := &Grammar{
		byLHS:          make(map[types.TypeCode][]int),
		startTypeCodes: make(map[types.TypeCode]bool),
	}
	var diags []diag.Diagnostic

	for _, seg := range segs {
		for _, d := range seg.Directives {
			g.applyDirective(d)
		}
		for idx, stmt := range seg.Statements {
			addr := types.Address{Segment: seg.ID, Index: types.StatementIndex(idx)}
			switch stmt.Kind {
			case mm.StmtFloating:
				g.addFloatingRule(ns, stmt)
			case mm.StmtAxiom:
				if err := g.addSyntaxRule(ns, sc, stmt); err != "" {
					diags = append(diags, diag.Diagnostic{
						Class:   diag.ClassGrammar,
						Kind:    diag.KindGrammarCantParse,
						Address: addr,
						Message: err,
					})
				}
			}
		}
	}

	for _, name := range g.pendingStartNames {
		if a, ok := ns.SymbolAtom(name); ok {
			g.startTypeCodes[a] = true
		}
	}
	return g, diags
}

func (g *Grammar) applyDirective(d mm.Directive) {
	if len(d.Tokens) == 0 {
		return
	}
	switch d.Tokens[0] {
	case "syntax":
		if len(d.Tokens) < 2 {
			return
		}
		name := unquote(d.Tokens[1])
		// "syntax 'tc' as 'tc2'" declares tc as a synonym entry point too;
		// both forms just add to the start-typecode set here.
		g.startTypeCodesAdd(name)
	case "type_conversions":
		g.typeConversion = true
	case "garden_path":
		g.gardenPaths = append(g.gardenPaths, append([]string(nil), d.Tokens[1:]...))
	}
}

func (g *Grammar) startTypeCodesAdd(name string) {
	g.pendingStartNames = append(g.pendingStartNames, name)
}

func unquote(tok string) string {
	if len(tok) >= 2 && tok[0] == '\'' && tok[len(tok)-1] == '\'' {
		return tok[1 : len(tok)-1]
	}
	return tok
}

func (g *Grammar) addFloatingRule(ns *nameset.Set, stmt mm.Statement) {
	label, ok := ns.LabelAtom(stmt.Label)
	if !ok {
		return
	}
	info, ok := ns.LabelInfo(label)
	if !ok || len(info.Math) != 2 {
		return
	}
	r := rule{label: label, lhs: info.Math[0], rhs: []symbol{term(info.Math[1])}, floating: true}
	g.addRule(r)
}

// addSyntaxRule adds an $a axiom as a grammar production if its frame has
// no essential hypotheses (a logical axiom like ax-mp has $e hyps and is
// never a syntax rule). Each variable position in the math string becomes a
// nonterminal of that variable's own floating hypothesis's typecode; each
// constant position becomes a terminal. Returns a non-empty error string if
// a variable position's floating hypothesis cannot be found.
func (g *Grammar) addSyntaxRule(ns *nameset.Set, sc *scopeck.Result, stmt mm.Statement) string {
	label, ok := ns.LabelAtom(stmt.Label)
	if !ok {
		return ""
	}
	info, ok := ns.LabelInfo(label)
	if !ok || len(info.Math) == 0 {
		return ""
	}
	frame, ok := sc.Frame(label)
	if !ok {
		return ""
	}
	for _, h := range frame.Mandatory {
		if hInfo, ok := ns.LabelInfo(h); ok && hInfo.Kind == nameset.LabelEssential {
			return "" // has essential hyps: a logical axiom, not grammar
		}
	}

	rhs := make([]symbol, 0, len(info.Math)-1)
	for i := 1; i < len(info.Math); i++ {
		if !info.IsVar[i] {
			rhs = append(rhs, term(info.Math[i]))
			continue
		}
		tc, ok := floatingTypeCodeOf(ns, frame, info.Math[i])
		if !ok {
			return "syntax axiom references a variable with no floating hypothesis in scope"
		}
		rhs = append(rhs, nonterm(tc))
	}
	g.addRule(rule{label: label, lhs: info.Math[0], rhs: rhs})
	return ""
}

func floatingTypeCodeOf(ns *nameset.Set, frame *scopeck.Frame, variable types.Atom) (types.TypeCode, bool) {
	for _, h := range frame.Mandatory {
		hInfo, ok := ns.LabelInfo(h)
		if !ok || hInfo.Kind != nameset.LabelFloating || len(hInfo.Math) != 2 {
			continue
		}
		if hInfo.Math[1] == variable {
			return hInfo.Math[0], true
		}
	}
	return 0, false
}

func (g *Grammar) addRule(r rule) {
	idx := len(g.rules)
	g.rules = append(g.rules, r)
	g.byLHS[r.lhs] = append(g.byLHS[r.lhs], idx)
}
