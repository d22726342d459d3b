// Package verify is the verify pass: an RPN proof-stack verifier for `$p`
// statements, independent of any grammar — Metamath proofs are checked
// against flat math-token sequences, not parsed formula trees, which is why
// this package works in terms of []types.Atom rather than
// internal/formula.Formula (the data-flow table in spec.md §2 lists
// `verify` and `grammar` as parallel alternatives downstream of scope, not
// a dependency of each other). Also decodes compressed proofs
// (`( refs ) letters`), a feature present in the Metamath specification and
// in `original_source` but dropped by the distillation —
// (supplemented, per SPEC_FULL.md §6).
package verify

import (
	"fmt"

	"github.com/marnix/metamath-knife/internal/diag"
	"github.com/marnix/metamath-knife/internal/mm"
	"github.com/marnix/metamath-knife/internal/nameset"
	"github.com/marnix/metamath-knife/internal/scopeck"
	"github.com/marnix/metamath-knife/internal/segment"
	"github.com/marnix/metamath-knife/internal/types"
)

// Result records which $p statements verified successfully.
type Result struct {
	verified map[types.Label]bool
}

// Verified reports whether label's proof was checked and matched its
// statement's own math string.
func (r *Result) Verified(label types.Label) bool {
	return r.verified[label]
}

// Build checks every $p statement's proof, given the name and scope passes'
// output. Returns diagnostics for stack underflows, hypothesis mismatches,
// and conclusion mismatches; never aborts the pipeline on a single
// statement's failure.
func Build(segs []*segment.Segment, ns *nameset.Set, sc *scopeck.Result) (*Result, []diag.Diagnostic) {
	r := &Result{verified: make(map[types.Label]bool)}
	var diags []diag.Diagnostic
	v := &verifier{ns: ns, sc: sc}

	for _, seg := range segs {
		for idx, stmt := range seg.Statements {
			if stmt.Kind != mm.StmtProvable || stmt.Label == "" {
				continue
			}
			label, ok := ns.LabelAtom(stmt.Label)
			if !ok {
				continue
			}
			info, ok := ns.LabelInfo(label)
			if !ok {
				continue
			}
			frame, ok := sc.Frame(label)
			if !ok {
				continue
			}
			addr := types.Address{Segment: seg.ID, Index: types.StatementIndex(idx)}

			if verr := v.verifyOne(frame, info); verr != nil {
				diags = append(diags, diag.Diagnostic{
					Class:   diag.ClassVerify,
					Kind:    verr.kind,
					Address: addr,
					Message: verr.msg,
				})
				continue
			}
			r.verified[label] = true
		}
	}
	return r, diags
}

// verifier bundles the two lookup tables every step of the algorithm needs:
// label -> math string (nameset) and label -> frame (scopeck).
type verifier struct {
	ns *nameset.Set
	sc *scopeck.Result
}

type verifyErr struct {
	kind diag.Kind
	msg  string
}

// verifyOne runs the RPN verifier for one $p statement's proof against its
// own frame (the frame whose conclusion the proof must reconstruct). The
// stack-substitution walk itself lives in decode.go, shared between plain
// and compressed proofs (and, for compressed proofs, interleaved with
// letter decoding because a `Z` cache marker needs the live stack).
func (v *verifier) verifyOne(frame *scopeck.Frame, info *nameset.LabelInfo) *verifyErr {
	stack, verr := v.decodeProof(frame, info.Proof)
	if verr != nil {
		return verr
	}

	if len(stack) != 1 {
		return &verifyErr{diag.KindProofIncomplete, fmt.Sprintf("proof ends with %d formulas on the stack, want exactly 1", len(stack))}
	}
	if !atomsEqual(stack[0], info.Math) {
		return &verifyErr{diag.KindProofStackMismatch, "proof's final formula does not match the statement it proves"}
	}
	return nil
}

// hypInfoIfOwn reports whether stepLabel is one of frame's own mandatory
// hypotheses (the common case: most proof steps reference the statement's
// own $e/$f hyps directly rather than another assertion).
func (v *verifier) hypInfoIfOwn(frame *scopeck.Frame, stepLabel types.Label) (*nameset.LabelInfo, bool) {
	for _, h := range frame.Mandatory {
		if h == stepLabel {
			return v.ns.LabelInfo(h)
		}
	}
	return nil, false
}

func (v *verifier) name(a types.Atom) string {
	return v.ns.AtomName(a)
}

func substitute(math []types.Atom, isVar []bool, subs map[types.Atom][]types.Atom) []types.Atom {
	out := make([]types.Atom, 0, len(math))
	for i, a := range math {
		if isVar[i] {
			out = append(out, subs[a]...)
			continue
		}
		out = append(out, a)
	}
	return out
}

func atomsEqual(a, b []types.Atom) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
