package grammar

import (
	"fmt"

	"github.com/marnix/metamath-knife/internal/diag"
	"github.com/marnix/metamath-knife/internal/formula"
	"github.com/marnix/metamath-knife/internal/mm"
	"github.com/marnix/metamath-knife/internal/nameset"
	"github.com/marnix/metamath-knife/internal/segment"
	"github.com/marnix/metamath-knife/internal/types"
)

// Result holds the parsed tree for every $a and $p statement's math string,
// produced against a compiled Grammar.
type Result struct {
	formulas map[types.Label]*formula.Formula
}

// Formula returns the parsed tree for label, if the stmt-parse pass
// produced one.
func (r *Result) Formula(label types.Label) (*formula.Formula, bool) {
	f, ok := r.formulas[label]
	return f, ok
}

// ParseStatements is the stmt-parse pass: every $a and $p statement's math
// string (after its own typecode token) is parsed against g and, on
// success, turned into a internal/formula.Formula rooted at that
// statement's own typecode. An $a that is itself a grammar rule (a pure
// syntax axiom) is still parsed here like any other statement — its
// conclusion must itself be derivable from the grammar it helped define,
// matching metamath-knife's own `parse_statement` treatment of every
// eligible statement uniformly rather than special-casing syntax axioms.
func ParseStatements(segs []*segment.Segment, ns *nameset.Set, g *Grammar) (*Result, []diag.Diagnostic) {
	r := &Result{formulas: make(map[types.Label]*formula.Formula)}
	var diags []diag.Diagnostic

	for _, seg := range segs {
		for idx, stmt := range seg.Statements {
			if stmt.Kind != mm.StmtAxiom && stmt.Kind != mm.StmtProvable {
				continue
			}
			label, ok := ns.LabelAtom(stmt.Label)
			if !ok {
				continue
			}
			info, ok := ns.LabelInfo(label)
			if !ok || len(info.Math) == 0 {
				continue
			}
			addr := types.Address{Segment: seg.ID, Index: types.StatementIndex(idx)}

			f, ambiguous, ok := g.Parse(info.Math[1:], info.Math[0])
			if !ok {
				diags = append(diags, diag.Diagnostic{
					Class:   diag.ClassStmtParse,
					Kind:    diag.KindGrammarCantParse,
					Address: addr,
					Message: fmt.Sprintf("%q does not parse against the declared grammar", stmt.Label),
				})
				continue
			}
			if ambiguous {
				diags = append(diags, diag.Diagnostic{
					Class:   diag.ClassStmtParse,
					Kind:    diag.KindGrammarAmbiguous,
					Address: addr,
					Message: fmt.Sprintf("%q parses more than one way under the declared grammar", stmt.Label),
				})
			}
			r.formulas[label] = f
		}
	}
	return r, diags
}
