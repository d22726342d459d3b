// Package diag carries source-level diagnostics between passes and the
// facade. These are data, never control-flow failures: a pass records them
// and keeps going, per the propagation policy of spec.md §7.
package diag

import (
	"fmt"

	"github.com/marnix/metamath-knife/internal/types"
)

// Class identifies which pass produced a Diagnostic.
type Class string

const (
	ClassParse     Class = "parse"
	ClassScope     Class = "scope"
	ClassVerify    Class = "verify"
	ClassGrammar   Class = "grammar"
	ClassStmtParse Class = "stmt_parse"
)

// Kind names the specific condition a Diagnostic reports. Kept as a string
// enum rather than an int so that new kinds never require renumbering.
type Kind string

const (
	KindUnresolvedInclude     Kind = "UnresolvedInclude"
	KindDuplicateLabel        Kind = "DuplicateLabel"
	KindUnknownLabel          Kind = "UnknownLabel"
	KindUnknownSymbol         Kind = "UnknownSymbol"
	KindVariableMissingFloat  Kind = "VariableMissingFloat"
	KindGrammarAmbiguous      Kind = "GrammarAmbiguous"
	KindGrammarCantParse      Kind = "GrammarCantParse"
	KindDisjointViolation     Kind = "DisjointViolation"
	KindProofStackMismatch    Kind = "ProofStackMismatch"
	KindProofIncomplete       Kind = "ProofIncomplete"
	KindUnknownTypeConversion Kind = "UnknownTypeConversion"
	KindMalformedSource       Kind = "MalformedSource"
	KindCyclicInclude         Kind = "CyclicInclude"
)

// Diagnostic is a single finding attached to a source address. Severity is
// implied by Kind; the core does not currently distinguish warnings from
// errors, matching the CLI's "exit nonzero iff any diagnostic" contract
// (spec.md §6).
type Diagnostic struct {
	Class   Class
	Kind    Kind
	Address types.Address
	Offset  int // byte offset of the faulting token within the statement, if known
	Message string
	// Suggestion holds a "did you mean" hint computed by the nameset pass
	// for unknown-symbol diagnostics (see internal/nameset).
	Suggestion string
}

func (d Diagnostic) Error() string {
	if d.Suggestion != "" {
		return fmt.Sprintf("%s: %s [%s] (did you mean %q?)", d.Address, d.Message, d.Kind, d.Suggestion)
	}
	return fmt.Sprintf("%s: %s [%s]", d.Address, d.Message, d.Kind)
}

// Notation is a Diagnostic rendered for display: the same data, plus
// SourceLine, the label of the statement at the diagnostic's address (or
// the address itself for an unlabeled statement), produced by
// Database.DiagNotations.
type Notation struct {
	Diagnostic
	SourceLine string
}
