// Package scopeck is the scope pass: for every $a/$p statement it builds a
// Frame of mandatory hypotheses and disjointness constraints, by walking the
// `${ ... $}` grouping-block stack maintained across segments. Grounded in
// the Metamath specification's frame-construction rules (no direct
// original_source file survived distillation for this collaborator, so this
// package follows spec prose plus standardbeagle-lci's table/lookup idiom from
// internal/semantic rather than a ported Rust file).
package scopeck

import (
	"fmt"

	"github.com/marnix/metamath-knife/internal/diag"
	"github.com/marnix/metamath-knife/internal/mm"
	"github.com/marnix/metamath-knife/internal/nameset"
	"github.com/marnix/metamath-knife/internal/segment"
	"github.com/marnix/metamath-knife/internal/types"
)

// Frame is the hypothesis context an $a/$p statement is checked and proved
// against: its mandatory hypotheses (in declaration order) and the subset
// of active $d constraints whose variables are both mandatory.
type Frame struct {
	Mandatory []types.Label
	Disjoint  [][2]types.Atom
	Address   types.Address
}

// Result is the output of the scope pass: one Frame per $a/$p label.
type Result struct {
	frames map[types.Label]*Frame
	order  []types.Label
}

// Frame looks up the frame built for label.
func (r *Result) Frame(label types.Label) (*Frame, bool) {
	f, ok := r.frames[label]
	return f, ok
}

// Labels returns every $a/$p label with a built frame, in declaration order.
func (r *Result) Labels() []types.Label {
	return r.order
}

// hyp is one mandatory-hypothesis candidate: a $f or $e statement currently
// in scope.
type hyp struct {
	label    types.Label
	variable types.Atom   // the single variable atom, $f only
	vars     []types.Atom // every variable atom occurring in the hyp's math string, $e only
	isFloat  bool
}

// level is one `${ ... $}` nesting's contribution: its own hypotheses and
// disjointness pairs, discarded wholesale when the block closes.
type level struct {
	hyps     []hyp
	disjoint [][2]types.Atom
}

// Build walks segs in order, threading a block-nesting stack across segment
// boundaries (segments split only at includes, never inside a block, so the
// stack's state is well-defined across the whole walk), and returns a Frame
// for every $a/$p statement plus any scope diagnostics. The only diagnostic
// is for a statement whose frame cannot be built because a floating
// hypothesis in scope does not name a variable: that statement gets no
// Frame and a KindVariableMissingFloat diagnostic instead. A variable with
// no floating hypothesis in scope is not reported here.
func Build(segs []*segment.Segment, ns *nameset.Set) (*Result, []diag.Diagnostic) {
	r := &Result{frames: make(map[types.Label]*Frame)}
	var diags []diag.Diagnostic
	stack := []level{{}}

	for _, seg := range segs {
		for idx, stmt := range seg.Statements {
			addr := types.Address{Segment: seg.ID, Index: types.StatementIndex(idx)}
			top := len(stack) - 1
			switch stmt.Kind {
			case mm.StmtOpenBlock:
				stack = append(stack, level{})
			case mm.StmtCloseBlock:
				if len(stack) > 1 {
					stack = stack[:len(stack)-1]
				}
			case mm.StmtFloating:
				label, ok := ns.LabelAtom(stmt.Label)
				if !ok {
					continue
				}
				info, _ := ns.LabelInfo(label)
				var v types.Atom
				if info != nil && len(info.Math) == 2 {
					v = info.Math[1]
				}
				stack[top].hyps = append(stack[top].hyps, hyp{label: label, variable: v, isFloat: true})
			case mm.StmtEssential:
				label, ok := ns.LabelAtom(stmt.Label)
				if !ok {
					continue
				}
				info, _ := ns.LabelInfo(label)
				var vars []types.Atom
				if info != nil {
					for i, v := range info.Math {
						if info.IsVar[i] {
							vars = append(vars, v)
						}
					}
				}
				stack[top].hyps = append(stack[top].hyps, hyp{label: label, vars: vars})
			case mm.StmtDisjoint:
				vars := make([]types.Atom, 0, len(stmt.Math))
				for _, tok := range stmt.Math {
					if a, ok := ns.SymbolAtom(string(tok)); ok {
						vars = append(vars, a)
					}
				}
				for i := 0; i < len(vars); i++ {
					for j := i + 1; j < len(vars); j++ {
						stack[top].disjoint = append(stack[top].disjoint, [2]types.Atom{vars[i], vars[j]})
					}
				}
			case mm.StmtAxiom, mm.StmtProvable:
				label, ok := ns.LabelAtom(stmt.Label)
				if !ok {
					continue
				}
				info, _ := ns.LabelInfo(label)
				frame, err := buildFrame(label, info, addr, stack)
				if err != nil {
					diags = append(diags, diag.Diagnostic{
						Class:   diag.ClassScope,
						Kind:    diag.KindVariableMissingFloat,
						Address: addr,
						Message: err.Error(),
					})
					continue
				}
				r.frames[label] = frame
				r.order = append(r.order, label)
			}
		}
	}
	return r, diags
}

// buildFrame computes the mandatory hypotheses and disjointness set for one
// $a/$p statement: a variable is mandatory if it occurs in the conclusion
// or in any essential hypothesis currently in scope; a $f hypothesis is
// mandatory iff its variable is mandatory; every $e in scope is always
// mandatory. Order is preserved across all open levels, outermost first.
func buildFrame(label types.Label, info *nameset.LabelInfo, addr types.Address, stack []level) (*Frame, error) {
	mandatoryVars := make(map[types.Atom]bool)
	if info != nil {
		for i, v := range info.Math {
			if info.IsVar[i] {
				mandatoryVars[v] = true
			}
		}
	}

	var allHyps []hyp
	var allDisjoint [][2]types.Atom
	for _, lvl := range stack {
		allHyps = append(allHyps, lvl.hyps...)
		allDisjoint = append(allDisjoint, lvl.disjoint...)
	}
	for _, h := range allHyps {
		if !h.isFloat {
			for _, v := range h.vars {
				mandatoryVars[v] = true
			}
		}
	}

	var mandatory []types.Label
	for _, h := range allHyps {
		if !h.isFloat || mandatoryVars[h.variable] {
			mandatory = append(mandatory, h.label)
		}
	}

	var disjoint [][2]types.Atom
	for _, pair := range allDisjoint {
		if mandatoryVars[pair[0]] && mandatoryVars[pair[1]] {
			disjoint = append(disjoint, pair)
		}
	}

	for _, h := range allHyps {
		if h.isFloat && h.variable == types.NoAtom {
			return nil, fmt.Errorf("statement %v: malformed floating hypothesis in scope", label)
		}
	}

	return &Frame{Mandatory: mandatory, Disjoint: disjoint, Address: addr}, nil
}
