// Package metamath is the database facade: the public entry point wrapping
// every internal pass behind lazy, memoized operations, following
// original_source/src/database.rs's Database struct and lazy-pass methods
// field for field (SPEC_FULL.md §4.5). A Go library's root package is its
// public API — standardbeagle-lci ships only a binary and has no equivalent
// root package, so this shape is enrichment from the rest of the pack
// rather than a literal borrowing.
package metamath

import (
	"fmt"
	"time"

	"github.com/marnix/metamath-knife/internal/cache"
	"github.com/marnix/metamath-knife/internal/config"
	"github.com/marnix/metamath-knife/internal/diag"
	"github.com/marnix/metamath-knife/internal/executor"
	"github.com/marnix/metamath-knife/internal/export"
	"github.com/marnix/metamath-knife/internal/grammar"
	"github.com/marnix/metamath-knife/internal/mm"
	"github.com/marnix/metamath-knife/internal/nameset"
	"github.com/marnix/metamath-knife/internal/outline"
	"github.com/marnix/metamath-knife/internal/scopeck"
	"github.com/marnix/metamath-knife/internal/segment"
	"github.com/marnix/metamath-knife/internal/types"
	"github.com/marnix/metamath-knife/internal/verify"
)

// Database owns the executor-backed segment set and every pass's current/
// previous slot pair (spec.md §4.4's dependency graph: name → scope →
// {verify, grammar}; grammar → stmt_parse; outline depends only on parse).
// Each pass is single-valued per database; Parse invalidates every slot.
type Database struct {
	opts config.DbOptions
	exec *executor.Executor
	segs *segment.Set

	nameSlot      cache.Slot[*nameset.Set]
	nameDiags     cache.Slot[[]diag.Diagnostic]
	scopeSlot     cache.Slot[*scopeck.Result]
	scopeDiags    cache.Slot[[]diag.Diagnostic]
	verifySlot    cache.Slot[*verify.Result]
	verifyDiags   cache.Slot[[]diag.Diagnostic]
	grammarSlot   cache.Slot[*grammar.Grammar]
	grammarDiags  cache.Slot[[]diag.Diagnostic]
	stmtParseSlot cache.Slot[*grammar.Result]
	stmtPDiags    cache.Slot[[]diag.Diagnostic]
	outlineSlot   cache.Slot[*outline.Outline]
}

// New returns an empty Database configured by opts, owning a fresh executor
// sized by opts.Jobs for the database's lifetime.
func New(opts config.DbOptions) *Database {
	exec := executor.New(opts.Jobs)
	return &Database{
		opts: opts,
		exec: exec,
		segs: segment.New(opts, exec),
	}
}

// Close stops the database's worker pool. Safe to call once, after which
// the Database must not be used.
func (d *Database) Close() {
	d.exec.Close()
}

// timed runs fn, printing "<label> <N>ms" to stdout afterward when the
// timing option is enabled — standardbeagle-lci's pipeline.go instrumentation
// convention, applied per spec.md §4.5's optional timing note.
func (d *Database) timed(label string, fn func()) {
	if !d.opts.Timing {
		fn()
		return
	}
	start := time.Now()
	fn()
	fmt.Printf("%s %dms\n", label, time.Since(start).Milliseconds())
}

// Parse (re)reads start, resolving `$[ ... $]` includes against text before
// falling back to disk, and invalidates every pass's current slot —
// spec.md §4.5's parse operation. Previous slots are preserved so the next
// pass request can seed its recomputation from them.
func (d *Database) Parse(start string, text map[string][]byte) error {
	var err error
	d.timed("parse", func() {
		err = d.segs.Read(start, text)
	})
	if err != nil {
		return err
	}
	d.nameSlot.Invalidate()
	d.nameDiags.Invalidate()
	d.scopeSlot.Invalidate()
	d.scopeDiags.Invalidate()
	d.verifySlot.Invalidate()
	d.verifyDiags.Invalidate()
	d.grammarSlot.Invalidate()
	d.grammarDiags.Invalidate()
	d.stmtParseSlot.Invalidate()
	d.stmtPDiags.Invalidate()
	d.outlineSlot.Invalidate()
	return nil
}

// ParseDiagnostics returns the diagnostics recorded by the most recent
// Parse (malformed source, unresolved/cyclic includes).
func (d *Database) ParseDiagnostics() []diag.Diagnostic {
	return d.segs.ParseDiagnostics()
}

// NamePass ensures the name pass has run and returns its result, running
// Parse's dependency implicitly (it does not itself trigger Parse: an
// empty segment set simply produces an empty nameset, matching spec.md
// §4.5's "Depends on parse" note — the caller is expected to have parsed).
func (d *Database) NamePass() *nameset.Set {
	var diags []diag.Diagnostic
	ns := d.nameSlot.Request(func(prev **nameset.Set) *nameset.Set {
		var result *nameset.Set
		d.timed("name_pass", func() {
			result, diags = nameset.Build(d.segs.Segments())
		})
		return result
	})
	d.nameDiags.Request(func(prev *[]diag.Diagnostic) []diag.Diagnostic { return diags })
	return ns
}

// NamePassDiagnostics returns the diagnostics produced the last time the
// name pass actually ran (duplicate labels, unknown symbols).
func (d *Database) NamePassDiagnostics() []diag.Diagnostic {
	d.NamePass()
	v, _ := d.nameDiags.Peek()
	return v
}

// ScopePass ensures name_pass and scope_pass have run, returning the
// frame-construction result.
func (d *Database) ScopePass() *scopeck.Result {
	ns := d.NamePass()
	var diags []diag.Diagnostic
	sc := d.scopeSlot.Request(func(prev **scopeck.Result) *scopeck.Result {
		var result *scopeck.Result
		d.timed("scope_pass", func() {
			result, diags = scopeck.Build(d.segs.Segments(), ns)
		})
		return result
	})
	d.scopeDiags.Request(func(prev *[]diag.Diagnostic) []diag.Diagnostic { return diags })
	return sc
}

// ScopePassDiagnostics returns the diagnostics from the last actual
// scope_pass run (statements whose frame could not be built because a
// floating hypothesis in scope is malformed).
func (d *Database) ScopePassDiagnostics() []diag.Diagnostic {
	d.ScopePass()
	v, _ := d.scopeDiags.Peek()
	return v
}

// VerifyPass ensures name+scope+verify have run, returning the proof
// verification result.
func (d *Database) VerifyPass() *verify.Result {
	ns := d.NamePass()
	sc := d.ScopePass()
	var diags []diag.Diagnostic
	v := d.verifySlot.Request(func(prev **verify.Result) *verify.Result {
		var result *verify.Result
		d.timed("verify_pass", func() {
			result, diags = verify.Build(d.segs.Segments(), ns, sc)
		})
		return result
	})
	d.verifyDiags.Request(func(prev *[]diag.Diagnostic) []diag.Diagnostic { return diags })
	return v
}

// VerifyPassDiagnostics returns the diagnostics from the last actual
// verify_pass run (stack mismatches, incomplete proofs).
func (d *Database) VerifyPassDiagnostics() []diag.Diagnostic {
	d.VerifyPass()
	v, _ := d.verifyDiags.Peek()
	return v
}

// GrammarPass ensures name+scope+grammar have run, returning the compiled
// grammar (syntax axioms, floating-hyp unit rules, `$j` directive config).
func (d *Database) GrammarPass() *grammar.Grammar {
	ns := d.NamePass()
	sc := d.ScopePass()
	var diags []diag.Diagnostic
	g := d.grammarSlot.Request(func(prev **grammar.Grammar) *grammar.Grammar {
		var result *grammar.Grammar
		d.timed("grammar_pass", func() {
			result, diags = grammar.Build(d.segs.Segments(), ns, sc)
		})
		return result
	})
	d.grammarDiags.Request(func(prev *[]diag.Diagnostic) []diag.Diagnostic { return diags })
	return g
}

// GrammarPassDiagnostics returns the diagnostics from the last actual
// grammar_pass run.
func (d *Database) GrammarPassDiagnostics() []diag.Diagnostic {
	d.GrammarPass()
	v, _ := d.grammarDiags.Peek()
	return v
}

// StmtParsePass ensures name+scope+grammar+stmt_parse have run, returning
// the parsed Formula tree for every eligible $a/$p statement.
func (d *Database) StmtParsePass() *grammar.Result {
	ns := d.NamePass()
	g := d.GrammarPass()
	var diags []diag.Diagnostic
	r := d.stmtParseSlot.Request(func(prev **grammar.Result) *grammar.Result {
		var result *grammar.Result
		d.timed("stmt_parse_pass", func() {
			result, diags = grammar.ParseStatements(d.segs.Segments(), ns, g)
		})
		return result
	})
	d.stmtPDiags.Request(func(prev *[]diag.Diagnostic) []diag.Diagnostic { return diags })
	return r
}

// StmtParsePassDiagnostics returns the diagnostics from the last actual
// stmt_parse_pass run (unparsable or ambiguous statements).
func (d *Database) StmtParsePassDiagnostics() []diag.Diagnostic {
	d.StmtParsePass()
	v, _ := d.stmtPDiags.Peek()
	return v
}

// OutlinePass ensures the outline pass has run, returning the
// banner-heading section tree. Depends only on parse.
func (d *Database) OutlinePass() *outline.Outline {
	return d.outlineSlot.Request(func(prev **outline.Outline) *outline.Outline {
		var result *outline.Outline
		d.timed("outline_pass", func() {
			result = outline.Build(d.segs.Segments())
		})
		return result
	})
}

// Statement returns the statement at addr. Requires name_pass to have
// already run, per spec.md §4.5 (name_pass assigns no new data Statement
// needs beyond the segment set itself, but the precondition documents
// that statement lookups are meant to follow at least one pass).
func (d *Database) Statement(addr types.Address) (mm.Statement, bool) {
	return d.segs.Statement(addr)
}

// Statements walks every segment and returns every statement's address, in
// source order.
func (d *Database) Statements() []types.Address {
	var out []types.Address
	for _, seg := range d.segs.Segments() {
		for idx := range seg.Statements {
			out = append(out, types.Address{Segment: seg.ID, Index: types.StatementIndex(idx)})
		}
	}
	return out
}

// DiagClass identifies which pass's diagnostics DiagNotations should run
// and collect.
type DiagClass = diag.Class

// DiagNotations runs each requested pass (triggering its dependencies) and
// returns its diagnostics rendered as Notations — spec.md §4.5's
// diag_notations operation.
func (d *Database) DiagNotations(classes []DiagClass) []diag.Notation {
	var out []diag.Notation
	for _, class := range classes {
		var ds []diag.Diagnostic
		switch class {
		case diag.ClassParse:
			ds = append(append([]diag.Diagnostic(nil), d.ParseDiagnostics()...), d.NamePassDiagnostics()...)
		case diag.ClassScope:
			ds = d.ScopePassDiagnostics()
		case diag.ClassVerify:
			ds = d.VerifyPassDiagnostics()
		case diag.ClassGrammar:
			ds = d.GrammarPassDiagnostics()
		case diag.ClassStmtParse:
			ds = d.StmtParsePassDiagnostics()
		}
		for _, dd := range ds {
			out = append(out, diag.Notation{Diagnostic: dd, SourceLine: d.sourceLine(dd.Address)})
		}
	}
	return out
}

// sourceLine renders the statement at addr back to its label (or a
// placeholder for statements with none), used to populate a Notation's
// SourceLine field for display without needing a full pretty-printer.
func (d *Database) sourceLine(addr types.Address) string {
	stmt, ok := d.Statement(addr)
	if !ok {
		return ""
	}
	if stmt.Label != "" {
		return stmt.Label
	}
	return fmt.Sprintf("<%s>", addr)
}

// Export renders label's proof as a `.mmp` proof-preview document — the
// export collaborator of spec.md §6. It runs verify_pass first but does not
// consult its result: the proof is rendered whether or not it verified.
func (d *Database) Export(label string) (string, error) {
	ns := d.NamePass()
	sc := d.ScopePass()
	d.VerifyPass()
	return export.MMP(ns, sc, label)
}
