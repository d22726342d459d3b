package grammar

import (
	"github.com/marnix/metamath-knife/internal/formula"
	"github.com/marnix/metamath-knife/internal/types"
)

// span is a memoization key: can typecode derive tokens[start:end]?
type span struct {
	typecode types.TypeCode
	start    int
	end      int
}

// matchEntry records the outcome of deriving one span: the first successful
// rule found (by rule declaration order, a deterministic tie-break) and
// whether any other rule also succeeded for the same span — spec.md §8's
// "ambiguous" scenarios (issue-32, issue-43) are exactly this condition.
type matchEntry struct {
	ok        bool
	ruleIdx   int
	childSpan [][2]int // one [start,end) per symbol of the matched rule's rhs
	ambiguous bool
}

// parser holds the per-call memo tables; grounded in the item-set reuse
// idea of the Earley reference this package is grounded on (see package
// doc), specialized to a recognize-then-rebuild two-phase shape instead of
// that reference's single-pass chart-with-backlinks, since Metamath
// grammars are small enough that re-deriving from the memo on the rebuild
// pass costs nothing extra.
type parser struct {
	g          *Grammar
	tokens     []types.Atom
	memo       map[span]*matchEntry
	inProgress map[span]bool
}

// derive reports whether typecode can produce exactly tokens[start:end],
// memoized. A span currently being derived higher up the call stack is
// treated as a failure rather than infinite-looping, which only matters for
// pathological unit-rule cycles (tc1 -> tc2 -> tc1 over the same span); no
// ordinary Metamath grammar has one.
func (p *parser) derive(tc types.TypeCode, start, end int) *matchEntry {
	key := span{tc, start, end}
	if e, ok := p.memo[key]; ok {
		return e
	}
	if p.inProgress[key] {
		return &matchEntry{ok: false}
	}
	p.inProgress[key] = true

	var best *matchEntry
	matches := 0
	for _, ridx := range p.g.byLHS[tc] {
		if spans, ok := p.matchSeq(p.g.rules[ridx].rhs, start, end); ok {
			matches++
			if best == nil {
				best = &matchEntry{ok: true, ruleIdx: ridx, childSpan: spans}
			}
		}
	}
	delete(p.inProgress, key)

	if best == nil {
		best = &matchEntry{ok: false}
	} else {
		best.ambiguous = matches > 1
	}
	p.memo[key] = best
	return best
}

// matchSeq finds a way to consume tokens[start:end] exactly against rhs, in
// order, returning each symbol's consumed [start,end) range. Metamath
// grammars have no empty productions, so every remaining symbol needs at
// least one token; that bound prunes the nonterminal split search.
func (p *parser) matchSeq(rhs []symbol, start, end int) ([][2]int, bool) {
	var walk func(i, pos int) ([][2]int, bool)
	walk = func(i, pos int) ([][2]int, bool) {
		if i == len(rhs) {
			if pos == end {
				return [][2]int{}, true
			}
			return nil, false
		}
		sym := rhs[i]
		if sym.terminal {
			if pos >= end || p.tokens[pos] != sym.atom {
				return nil, false
			}
			rest, ok := walk(i+1, pos+1)
			if !ok {
				return nil, false
			}
			return append([][2]int{{pos, pos + 1}}, rest...), true
		}
		minRest := len(rhs) - i - 1
		for k := pos + 1; k <= end-minRest; k++ {
			if !p.derive(sym.typeCode, pos, k).ok {
				continue
			}
			rest, ok := walk(i+1, k)
			if !ok {
				continue
			}
			return append([][2]int{{pos, k}}, rest...), true
		}
		return nil, false
	}
	return walk(0, start)
}

// build materializes the memoized derivation of (tc,start,end) into b,
// returning whether it or any sub-derivation it depends on was ambiguous.
func (p *parser) build(tc types.TypeCode, start, end int, b *formula.Builder) bool {
	e := p.derive(tc, start, end)
	r := p.g.rules[e.ruleIdx]

	ambiguous := e.ambiguous
	nontermCount := 0
	for i, sym := range r.rhs {
		if sym.terminal {
			continue
		}
		cs := e.childSpan[i]
		if p.build(sym.typeCode, cs[0], cs[1], b) {
			ambiguous = true
		}
		nontermCount++
	}
	b.Reduce(r.label, uint8(nontermCount), 0, r.floating)
	return ambiguous
}

// Parse attempts to derive typecode over the full token sequence, returning
// the resulting Formula, whether any rule used along the way had more than
// one applicable production at its span (an ambiguous grammar, per
// spec.md §8's issue-32/issue-43 scenarios), and whether it parsed at all.
func (g *Grammar) Parse(tokens []types.Atom, tc types.TypeCode) (f *formula.Formula, ambiguous bool, ok bool) {
	p := &parser{
		g:          g,
		tokens:     tokens,
		memo:       make(map[span]*matchEntry),
		inProgress: make(map[span]bool),
	}
	e := p.derive(tc, 0, len(tokens))
	if !e.ok {
		return nil, false, false
	}
	b := &formula.Builder{}
	amb := p.build(tc, 0, len(tokens), b)
	return b.Build(tc), amb, true
}

// ParseAny tries every declared start typecode (or, absent a `syntax`
// directive, every typecode that is some rule's left-hand side) and returns
// the first that parses — the entry point for the "manual parse_formula"
// scenario of spec.md §8, where the caller supplies only tokens.
func (g *Grammar) ParseAny(tokens []types.Atom) (f *formula.Formula, tc types.TypeCode, ambiguous bool, ok bool) {
	candidates := g.startTypeCodes
	if len(candidates) == 0 {
		candidates = make(map[types.TypeCode]bool, len(g.byLHS))
		for lhs := range g.byLHS {
			candidates[lhs] = true
		}
	}
	for code := range candidates {
		if parsed, amb, ok := g.Parse(tokens, code); ok {
			return parsed, code, amb, true
		}
	}
	return nil, 0, false, false
}
