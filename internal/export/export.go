// Package export is the export collaborator: it renders a $p statement's
// proof as a `.mmp` proof-preview document — one line per proof step,
// numbered, each naming the step's antecedents and the label it applies —
// the format metamath.exe's `SAVE PROOF .../NORMAL` and mmj2's proof
// worksheets share. Grounded in internal/verify's RPN walk (the same
// frame/substitution algorithm, duplicated here in a form that also
// records, per stack entry, which step number produced it, since verify
// itself only needs the final formula and throws that provenance away).
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/marnix/metamath-knife/internal/nameset"
	"github.com/marnix/metamath-knife/internal/scopeck"
	"github.com/marnix/metamath-knife/internal/types"
)

// stackEntry is one formula on the proof stack, tagged with the step
// number (1-based, in the rendered document) that produced it.
type stackEntry struct {
	step int
	math []types.Atom
}

// MMP renders labelName's proof as a `.mmp` document: every mandatory
// hypothesis as an "h" step, every proof step numbered and annotated with
// its antecedent step numbers and the label it applies, with the last
// step's number replaced by "qed".
func MMP(ns *nameset.Set, sc *scopeck.Result, labelName string) (string, error) {
	label, ok := ns.LabelAtom(labelName)
	if !ok {
		return "", fmt.Errorf("export: unknown label %q", labelName)
	}
	info, ok := ns.LabelInfo(label)
	if !ok {
		return "", fmt.Errorf("export: no statement data for %q", labelName)
	}
	frame, ok := sc.Frame(label)
	if !ok {
		return "", fmt.Errorf("export: no frame built for %q", labelName)
	}

	w := &writer{ns: ns, sc: sc, hypStep: make(map[types.Label]int)}
	for _, h := range frame.Mandatory {
		hInfo, ok := ns.LabelInfo(h)
		if !ok {
			continue
		}
		w.stepNum++
		w.hypStep[h] = w.stepNum
		w.lines = append(w.lines, fmt.Sprintf("h%d::%s: %s", w.stepNum, ns.AtomName(h), w.render(hInfo.Math)))
	}

	headerLines := len(w.lines)
	if err := w.run(frame, info.Proof); err != nil {
		return "", err
	}
	if len(w.stack) != 1 {
		return "", fmt.Errorf("export: proof for %q does not end with exactly one formula on the stack", labelName)
	}
	// Only a genuine applied step (never a bare hypothesis re-reference) can
	// be the proof's last line, so it always starts with "<stepNum>:".
	if len(w.lines) > headerLines {
		last := w.lines[len(w.lines)-1]
		if _, rest, ok := strings.Cut(last, ":"); ok {
			w.lines[len(w.lines)-1] = "qed:" + rest
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "$( %s $)\n", labelName)
	for _, line := range w.lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

type writer struct {
	ns      *nameset.Set
	sc      *scopeck.Result
	stepNum int
	hypStep map[types.Label]int
	stack   []stackEntry
	lines   []string
}

func (w *writer) run(frame *scopeck.Frame, proof [][]byte) error {
	if len(proof) == 0 {
		return fmt.Errorf("export: empty proof")
	}
	if string(proof[0]) == "(" {
		return w.runCompressed(frame, proof)
	}
	return w.runPlain(frame, proof)
}

func (w *writer) runPlain(frame *scopeck.Frame, proof [][]byte) error {
	for _, tok := range proof {
		name := string(tok)
		if name == "?" {
			return fmt.Errorf("export: proof contains an incomplete step marker (?)")
		}
		label, ok := w.ns.LabelAtom(name)
		if !ok {
			return fmt.Errorf("export: proof references undeclared label %q", name)
		}
		if err := w.apply(frame, label); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) runCompressed(frame *scopeck.Frame, proof [][]byte) error {
	var refs []types.Label
	i := 1
	for ; i < len(proof); i++ {
		tok := string(proof[i])
		if tok == ")" {
			break
		}
		label, ok := w.ns.LabelAtom(tok)
		if !ok {
			return fmt.Errorf("export: proof references undeclared label %q", tok)
		}
		refs = append(refs, label)
	}
	if i >= len(proof) {
		return fmt.Errorf("export: compressed proof is missing its closing )")
	}
	i++

	var cache []stackEntry
	num := 0
	haveDigits := false
	m := len(frame.Mandatory)

	for ; i < len(proof); i++ {
		for _, b := range proof[i] {
			switch {
			case b == 'Z':
				if len(w.stack) == 0 {
					return fmt.Errorf("export: compressed proof's Z marker found an empty stack")
				}
				cache = append(cache, w.stack[len(w.stack)-1])
				num, haveDigits = 0, false
			case b >= 'A' && b <= 'T':
				n := num*20 + int(b-'A') + 1
				if err := w.applyIndex(frame, refs, cache, m, n); err != nil {
					return err
				}
				num, haveDigits = 0, false
			case b >= 'U' && b <= 'Y':
				num = num*5 + int(b-'U') + 1
				haveDigits = true
			default:
				return fmt.Errorf("export: invalid compressed proof letter %q", string(b))
			}
		}
	}
	if haveDigits {
		return fmt.Errorf("export: compressed proof ends mid-number")
	}
	return nil
}

func (w *writer) applyIndex(frame *scopeck.Frame, refs []types.Label, cache []stackEntry, m, n int) error {
	switch {
	case n <= m:
		return w.apply(frame, frame.Mandatory[n-1])
	case n <= m+len(refs):
		return w.apply(frame, refs[n-m-1])
	default:
		idx := n - m - len(refs) - 1
		if idx < 0 || idx >= len(cache) {
			return fmt.Errorf("export: compressed proof step %d has no matching hypothesis, reference, or cache entry", n)
		}
		w.stack = append(w.stack, cache[idx])
		return nil
	}
}

// apply pushes label's own formula directly if it is one of frame's
// mandatory hypotheses (already rendered as an "h" step, just referenced),
// or otherwise pops its referenced frame's mandatory hypotheses,
// substitutes, and writes a new numbered step line.
func (w *writer) apply(frame *scopeck.Frame, label types.Label) error {
	if step, ok := w.hypStep[label]; ok {
		if hInfo, ok := w.ns.LabelInfo(label); ok {
			w.stack = append(w.stack, stackEntry{step: step, math: hInfo.Math})
			return nil
		}
	}

	refInfo, ok := w.ns.LabelInfo(label)
	if !ok {
		return fmt.Errorf("export: proof step references an unknown label")
	}
	refFrame, ok := w.sc.Frame(label)
	if !ok {
		return fmt.Errorf("export: proof step references %q, which has no built frame", w.ns.AtomName(label))
	}

	n := len(refFrame.Mandatory)
	if len(w.stack) < n {
		return fmt.Errorf("export: stack underflow applying %q", w.ns.AtomName(label))
	}
	popped := w.stack[len(w.stack)-n:]
	w.stack = w.stack[:len(w.stack)-n]

	subs := make(map[types.Atom][]types.Atom, n)
	var antecedents []int
	for i, hLabel := range refFrame.Mandatory {
		antecedents = append(antecedents, popped[i].step)
		hInfo, ok := w.ns.LabelInfo(hLabel)
		if !ok {
			continue
		}
		if hInfo.Kind == nameset.LabelFloating {
			if len(popped[i].math) == 0 || len(hInfo.Math) != 2 {
				return fmt.Errorf("export: typecode mismatch binding a variable in %q", w.ns.AtomName(label))
			}
			subs[hInfo.Math[1]] = append([]types.Atom(nil), popped[i].math[1:]...)
		}
	}

	result := substitute(refInfo.Math, refInfo.IsVar, subs)
	w.stepNum++
	ants := make([]string, len(antecedents))
	for i, a := range antecedents {
		ants[i] = strconv.Itoa(a)
	}
	w.lines = append(w.lines, fmt.Sprintf("%d:%s:%s %s", w.stepNum, strings.Join(ants, ","), w.ns.AtomName(label), w.render(result)))
	w.stack = append(w.stack, stackEntry{step: w.stepNum, math: result})
	return nil
}

func (w *writer) render(math []types.Atom) string {
	names := make([]string, len(math))
	for i, a := range math {
		names[i] = w.ns.AtomName(a)
	}
	return strings.Join(names, " ")
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
