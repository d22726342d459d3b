package verify

import (
	"fmt"

	"github.com/marnix/metamath-knife/internal/diag"
	"github.com/marnix/metamath-knife/internal/nameset"
	"github.com/marnix/metamath-knife/internal/scopeck"
	"github.com/marnix/metamath-knife/internal/types"
)

// decodeProof runs the RPN proof, whether plain (a flat list of labels) or
// compressed (`( refs ) letters`), and returns the proof stack as it stands
// at the end (the caller checks that it holds exactly one formula) — decode
// and execution are interleaved rather than
// staged, because a compressed proof's `Z` marker caches "whatever is
// currently on top of the stack", which only exists once earlier steps have
// already been substituted.
func (v *verifier) decodeProof(frame *scopeck.Frame, proof [][]byte) ([][]types.Atom, *verifyErr) {
	if len(proof) == 0 {
		return nil, &verifyErr{diag.KindProofIncomplete, "empty proof"}
	}
	if string(proof[0]) == "(" {
		return v.runCompressed(frame, proof)
	}
	return v.runPlain(frame, proof)
}

// runPlain executes every step directly, one label token at a time.
func (v *verifier) runPlain(frame *scopeck.Frame, proof [][]byte) ([][]types.Atom, *verifyErr) {
	var stack [][]types.Atom
	for _, tok := range proof {
		name := string(tok)
		if name == "?" {
			return nil, &verifyErr{diag.KindProofIncomplete, "proof contains an incomplete step marker (?)"}
		}
		label, ok := v.ns.LabelAtom(name)
		if !ok {
			return nil, &verifyErr{diag.KindUnknownLabel, fmt.Sprintf("proof references undeclared label %q", name)}
		}
		if err := v.applyStep(frame, label, &stack); err != nil {
			return nil, err
		}
	}
	return stack, nil
}

// runCompressed executes a `( ref ref ... ) letters` proof: refs is the
// parenthesized label list, and the base-20/5 letter encoding that follows
// indexes into frame.Mandatory ++ refs ++ the Z-saved cache, in that order.
func (v *verifier) runCompressed(frame *scopeck.Frame, proof [][]byte) ([][]types.Atom, *verifyErr) {
	var refs []types.Label
	i := 1
	for ; i < len(proof); i++ {
		tok := string(proof[i])
		if tok == ")" {
			break
		}
		label, ok := v.ns.LabelAtom(tok)
		if !ok {
			return nil, &verifyErr{diag.KindUnknownLabel, fmt.Sprintf("proof references undeclared label %q", tok)}
		}
		refs = append(refs, label)
	}
	if i >= len(proof) {
		return nil, &verifyErr{diag.KindProofIncomplete, "compressed proof is missing its closing )"}
	}
	i++ // skip ")"

	var stack [][]types.Atom
	var cache [][]types.Atom
	num := 0
	haveDigits := false

	for ; i < len(proof); i++ {
		for _, b := range proof[i] {
			switch {
			case b == 'Z':
				if len(stack) == 0 {
					return nil, &verifyErr{diag.KindProofStackMismatch, "compressed proof's Z marker found an empty stack"}
				}
				cache = append(cache, append([]types.Atom(nil), stack[len(stack)-1]...))
				num, haveDigits = 0, false
			case b >= 'A' && b <= 'T':
				n := num*20 + int(b-'A') + 1
				if err := v.applyIndex(frame, refs, cache, n, &stack); err != nil {
					return nil, err
				}
				num, haveDigits = 0, false
			case b >= 'U' && b <= 'Y':
				num = num*5 + int(b-'U') + 1
				haveDigits = true
			default:
				return nil, &verifyErr{diag.KindProofIncomplete, fmt.Sprintf("invalid compressed proof letter %q", string(b))}
			}
		}
	}
	if haveDigits {
		return nil, &verifyErr{diag.KindProofIncomplete, "compressed proof ends mid-number"}
	}
	return stack, nil
}

// applyIndex resolves a decoded 1-based step number against
// frame.Mandatory ++ refs ++ cache, and applies it to stack.
func (v *verifier) applyIndex(frame *scopeck.Frame, refs []types.Label, cache [][]types.Atom, n int, stack *[][]types.Atom) *verifyErr {
	m := len(frame.Mandatory)
	switch {
	case n <= m:
		return v.applyStep(frame, frame.Mandatory[n-1], stack)
	case n <= m+len(refs):
		return v.applyStep(frame, refs[n-m-1], stack)
	default:
		idx := n - m - len(refs) - 1
		if idx < 0 || idx >= len(cache) {
			return &verifyErr{diag.KindProofStackMismatch, fmt.Sprintf("compressed proof step %d has no matching hypothesis, reference, or cache entry", n)}
		}
		*stack = append(*stack, append([]types.Atom(nil), cache[idx]...))
		return nil
	}
}

// applyStep pushes label's own math string directly if it is one of frame's
// mandatory hypotheses, or otherwise pops its referenced frame's mandatory
// hypotheses off stack, builds the variable substitution, checks every
// essential hypothesis, and pushes the substituted conclusion.
func (v *verifier) applyStep(frame *scopeck.Frame, label types.Label, stack *[][]types.Atom) *verifyErr {
	if hInfo, ok := v.hypInfoIfOwn(frame, label); ok {
		*stack = append(*stack, append([]types.Atom(nil), hInfo.Math...))
		return nil
	}

	refInfo, ok := v.ns.LabelInfo(label)
	if !ok {
		return &verifyErr{diag.KindUnknownLabel, fmt.Sprintf("proof step references an unknown label (atom %d)", label)}
	}
	refFrame, ok := v.sc.Frame(label)
	if !ok {
		return &verifyErr{diag.KindUnknownLabel, fmt.Sprintf("proof step references %q, which has no built frame", v.name(label))}
	}

	n := len(refFrame.Mandatory)
	if len(*stack) < n {
		return &verifyErr{diag.KindProofStackMismatch, fmt.Sprintf("stack underflow applying %q (needs %d hypotheses, have %d)", v.name(label), n, len(*stack))}
	}
	popped := (*stack)[len(*stack)-n:]
	*stack = (*stack)[:len(*stack)-n]

	subs := make(map[types.Atom][]types.Atom, n)
	for i, hLabel := range refFrame.Mandatory {
		hInfo, ok := v.ns.LabelInfo(hLabel)
		if !ok {
			continue
		}
		if hInfo.Kind == nameset.LabelFloating {
			if len(popped[i]) == 0 || len(hInfo.Math) != 2 || popped[i][0] != hInfo.Math[0] {
				return &verifyErr{diag.KindProofStackMismatch, fmt.Sprintf("typecode mismatch binding %q in %q", v.name(hInfo.Math[1]), v.name(label))}
			}
			subs[hInfo.Math[1]] = append([]types.Atom(nil), popped[i][1:]...)
			continue
		}
		expected := substitute(hInfo.Math, hInfo.IsVar, subs)
		if !atomsEqual(expected, popped[i]) {
			return &verifyErr{diag.KindProofStackMismatch, fmt.Sprintf("hypothesis %q does not match the stack while applying %q", v.name(hLabel), v.name(label))}
		}
	}

	*stack = append(*stack, substitute(refInfo.Math, refInfo.IsVar, subs))
	return nil
}
