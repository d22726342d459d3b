// Package nameset is the name pass: it interns every math symbol and
// statement label appearing in a segment.Set's segments as a types.Atom,
// and builds the lookup tables the rest of the pipeline (scope, verify,
// grammar, formula) resolves atoms through. Grounded in
// original_source/formula.rs's Atom/Label/TypeCode distinction (carried in
// internal/types) and in standardbeagle-lci's internal/semantic package for the
// "intern once, look up by both directions" table shape.
package nameset

import (
	"fmt"

	"github.com/marnix/metamath-knife/internal/diag"
	"github.com/marnix/metamath-knife/internal/mm"
	"github.com/marnix/metamath-knife/internal/segment"
	"github.com/marnix/metamath-knife/internal/types"
)

// SymbolKind classifies an interned math symbol.
type SymbolKind int

const (
	SymbolConstant SymbolKind = iota
	SymbolVariable
)

// LabelKind mirrors the statement keyword a label was declared under.
type LabelKind int

const (
	LabelFloating LabelKind = iota
	LabelEssential
	LabelAxiom
	LabelProvable
)

func labelKindOf(k mm.StatementKind) (LabelKind, bool) {
	switch k {
	case mm.StmtFloating:
		return LabelFloating, true
	case mm.StmtEssential:
		return LabelEssential, true
	case mm.StmtAxiom:
		return LabelAxiom, true
	case mm.StmtProvable:
		return LabelProvable, true
	}
	return 0, false
}

// LabelInfo is everything the rest of the pipeline needs about one labeled
// statement: its math string translated to atoms, which of those atoms are
// variable occurrences, and where it lives.
type LabelInfo struct {
	Kind    LabelKind
	Address types.Address
	Math    []types.Atom
	IsVar   []bool
	Proof   [][]byte // StmtProvable only, raw tokens (internal/verify decodes)
}

// Set is the interned name table for one parsed database: every math
// symbol and every statement label, each assigned a stable Atom, plus the
// per-label statement data needed to reconstruct a Formula (see
// internal/formula.LabelTokens).
type Set struct {
	names       []string // Atom(i+1) -> name, index 0 unused (NoAtom)
	bySymbol    map[string]types.Atom
	symbolKind  map[types.Atom]SymbolKind
	byLabel     map[string]types.Atom
	labels      map[types.Label]*LabelInfo
	labelOrder  []types.Label
	symbolOrder []types.Atom
}

// New returns an empty Set.
func New() *Set {
	return &Set{
		names:      []string{""}, // index 0 is the NoAtom placeholder
		bySymbol:   make(map[string]types.Atom),
		symbolKind: make(map[types.Atom]SymbolKind),
		byLabel:    make(map[string]types.Atom),
		labels:     make(map[types.Label]*LabelInfo),
	}
}

// intern allocates a fresh Atom for name and returns it. It does not look
// name up first; callers check their own tables before interning.
func (s *Set) intern(name string) types.Atom {
	s.names = append(s.names, name)
	return types.Atom(len(s.names) - 1)
}

// Name resolves an Atom back to its source text; implements
// formula.NameLookup.
func (s *Set) Name(atom types.Atom) (string, bool) {
	if atom == types.NoAtom || int(atom) >= len(s.names) {
		return "", false
	}
	return s.names[atom], true
}

// AtomName resolves an Atom back to its source text, or "" if unknown.
// Implements formula.NameLookup.
func (s *Set) AtomName(atom types.Atom) string {
	name, _ := s.Name(atom)
	return name
}

// SymbolAtom looks up an already-declared math symbol by name.
func (s *Set) SymbolAtom(name string) (types.Atom, bool) {
	a, ok := s.bySymbol[name]
	return a, ok
}

// LabelAtom looks up an already-declared statement label by name.
func (s *Set) LabelAtom(name string) (types.Label, bool) {
	a, ok := s.byLabel[name]
	return a, ok
}

// LabelInfo returns the statement data for label, if known.
func (s *Set) LabelInfo(label types.Label) (*LabelInfo, bool) {
	info, ok := s.labels[label]
	return info, ok
}

// StatementMathTokens implements formula.LabelTokens: for a statement
// label, the math-string atoms after its own typecode token, and which of
// them are variable occurrences. info.Math/IsVar carry the typecode at
// index 0 (internal/grammar's rule construction needs it there); formula's
// contract wants it stripped.
func (s *Set) StatementMathTokens(label types.Label) ([]types.Atom, []bool, bool) {
	info, ok := s.labels[label]
	if !ok || len(info.Math) == 0 {
		return nil, nil, false
	}
	return info.Math[1:], info.IsVar[1:], true
}

// Labels returns every interned label, in declaration order.
func (s *Set) Labels() []types.Label {
	return s.labelOrder
}

// SymbolNames returns the declared name of every interned math symbol, in
// declaration order — used by Suggest's candidate list.
func (s *Set) SymbolNames() []string {
	out := make([]string, len(s.symbolOrder))
	for i, a := range s.symbolOrder {
		out[i] = s.names[a]
	}
	return out
}

// LabelNames returns the declared name of every interned label, in
// declaration order.
func (s *Set) LabelNames() []string {
	out := make([]string, len(s.labelOrder))
	for i, a := range s.labelOrder {
		out[i] = s.names[a]
	}
	return out
}

// Build walks every segment in order, interning $c/$v symbols and
// $f/$e/$a/$p labels, and returns the resulting Set plus any diagnostics
// (duplicate labels, references to undeclared symbols). A symbol's
// constant/variable kind is global to the database: Metamath statements
// never reuse the same token text as both, so nameset does not need to
// track `${ ... $}` scope boundaries the way scopeck does for hypothesis
// visibility.
func Build(segs []*segment.Segment) (*Set, []diag.Diagnostic) {
	s := New()
	var diags []diag.Diagnostic

	for _, seg := range segs {
		for idx, stmt := range seg.Statements {
			addr := types.Address{Segment: seg.ID, Index: types.StatementIndex(idx)}
			switch stmt.Kind {
			case mm.StmtConstants:
				s.declareSymbols(stmt.Math, SymbolConstant, addr, &diags)
			case mm.StmtVariables:
				s.declareSymbols(stmt.Math, SymbolVariable, addr, &diags)
			case mm.StmtFloating, mm.StmtEssential, mm.StmtAxiom, mm.StmtProvable:
				s.declareLabel(stmt, addr, &diags)
			}
		}
	}
	return s, diags
}

func (s *Set) declareSymbols(math [][]byte, kind SymbolKind, addr types.Address, diags *[]diag.Diagnostic) {
	for _, tok := range math {
		name := string(tok)
		if existing, ok := s.bySymbol[name]; ok {
			if s.symbolKind[existing] != kind {
				*diags = append(*diags, diag.Diagnostic{
					Class:   diag.ClassParse,
					Kind:    diag.KindDuplicateLabel,
					Address: addr,
					Message: fmt.Sprintf("symbol %q redeclared with a different kind", name),
				})
			}
			continue // same-kind redeclaration is legal and a no-op
		}
		atom := s.intern(name)
		s.bySymbol[name] = atom
		s.symbolKind[atom] = kind
		s.symbolOrder = append(s.symbolOrder, atom)
	}
}

func (s *Set) declareLabel(stmt mm.Statement, addr types.Address, diags *[]diag.Diagnostic) {
	kind, ok := labelKindOf(stmt.Kind)
	if !ok {
		return
	}
	if existing, dup := s.byLabel[stmt.Label]; dup {
		*diags = append(*diags, diag.Diagnostic{
			Class:   diag.ClassParse,
			Kind:    diag.KindDuplicateLabel,
			Address: addr,
			Message: fmt.Sprintf("label %q already declared (first atom %d)", stmt.Label, existing),
		})
		return
	}

	atom := s.intern(stmt.Label)
	s.byLabel[stmt.Label] = atom
	s.labelOrder = append(s.labelOrder, atom)

	math := make([]types.Atom, len(stmt.Math))
	isVar := make([]bool, len(stmt.Math))
	for i, tok := range stmt.Math {
		name := string(tok)
		symAtom, known := s.bySymbol[name]
		if !known {
			*diags = append(*diags, diag.Diagnostic{
				Class:      diag.ClassParse,
				Kind:       diag.KindUnknownSymbol,
				Address:    addr,
				Offset:     i,
				Message:    fmt.Sprintf("undeclared math symbol %q", name),
				Suggestion: Suggest(name, s.SymbolNames()),
			})
			// Recover best-effort: intern it lazily as a constant so
			// downstream passes still have an atom to work with.
			symAtom = s.intern(name)
			s.bySymbol[name] = symAtom
			s.symbolKind[symAtom] = SymbolConstant
			s.symbolOrder = append(s.symbolOrder, symAtom)
		}
		math[i] = symAtom
		isVar[i] = s.symbolKind[symAtom] == SymbolVariable
	}

	s.labels[atom] = &LabelInfo{Kind: kind, Address: addr, Math: math, IsVar: isVar, Proof: stmt.Proof}
}
