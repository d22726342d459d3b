package segment

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/marnix/metamath-knife/internal/config"
	"github.com/marnix/metamath-knife/internal/diag"
	"github.com/marnix/metamath-knife/internal/executor"
	"github.com/marnix/metamath-knife/internal/mm"
	"github.com/marnix/metamath-knife/internal/types"
)

// pieceRecord remembers one piece's content and the segments it produced, so
// a later Read can tell whether that piece is unchanged and skip rescanning
// it, per spec.md §4.2's "unchanged files ... are skipped" rule.
type pieceRecord struct {
	offset   int
	content  []byte
	segments []*Segment
}

// Set keeps the database's sequence of segments in sync with a named set of
// input buffers or on-disk files, producing stable SegmentIds and a usable
// Order (spec.md §4.2). It owns an Executor for dispatching per-piece
// parsing and a Order for positioning newly created segments relative to
// their neighbors.
type Set struct {
	opts  config.DbOptions
	exec  *executor.Executor
	order *Order

	mu          sync.RWMutex
	baseDir     string
	segments    []*Segment
	byID        map[types.SegmentID]*Segment
	pieceCache  map[string][]*pieceRecord
	diagnostics []diag.Diagnostic
}

// New returns an empty Set configured by opts. The returned Set owns exec
// for its lifetime; callers that want workers to stop should Close exec
// themselves after discarding the Set (spec.md §4.1 does not specify
// executor teardown).
func New(opts config.DbOptions, exec *executor.Executor) *Set {
	return &Set{
		opts:       opts,
		exec:       exec,
		order:      NewOrder(),
		byID:       make(map[types.SegmentID]*Segment),
		pieceCache: make(map[string][]*pieceRecord),
	}
}

// readSlot is one entry of the final left-to-right segment sequence being
// assembled by Read, before SegmentIds are assigned to any newly created
// Segment (identified by ID == 0).
type readSlot struct {
	seg *Segment
}

// Read updates the segment set so that Segments reflects the union of
// everything transitively reachable from start by way of `$[ ... $]`
// includes. text supplies named in-memory buffers consulted before falling
// back to disk; missing includes resolve relative to start's directory.
// Every source is read again; a piece whose offset and content bytes are
// unchanged is not rescanned, and the segments it previously produced keep
// their SegmentIds. Disk sources are compared by content, not by mtime.
func (s *Set) Read(start string, text map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.diagnostics = nil
	if _, ok := text[start]; !ok {
		s.baseDir = filepath.Dir(start)
	} else {
		s.baseDir = ""
	}

	var slots []readSlot
	visiting := make(map[string]bool)
	newCache := make(map[string][]*pieceRecord)
	if err := s.readInto(&slots, start, text, visiting, newCache); err != nil {
		return err
	}

	s.assignIDs(slots)

	s.segments = make([]*Segment, len(slots))
	s.byID = make(map[types.SegmentID]*Segment, len(slots))
	for i, sl := range slots {
		s.segments[i] = sl.seg
		s.byID[sl.seg.ID] = sl.seg
	}
	s.pieceCache = newCache
	return nil
}

// readInto recursively parses path (resolved against text, else disk),
// appending its segments — and, depth-first, the segments of every file it
// includes — onto slots. A cycle (a file transitively including itself)
// is reported as a diagnostic and otherwise ignored, rather than recursing
// forever.
func (s *Set) readInto(slots *[]readSlot, path string, text map[string][]byte, visiting map[string]bool, newCache map[string][]*pieceRecord) error {
	if visiting[path] {
		s.diagnostics = append(s.diagnostics, diag.Diagnostic{
			Class:   diag.ClassParse,
			Kind:    diag.KindCyclicInclude,
			Message: fmt.Sprintf("cyclic include of %q", path),
		})
		return nil
	}
	visiting[path] = true
	defer delete(visiting, path)

	src, content, err := s.resolve(path, text)
	if err != nil {
		// spec.md §9's open question resolves here: an unresolved include is
		// a diagnostic, not a failed Read — parsing continues on the rest
		// of the tree.
		s.diagnostics = append(s.diagnostics, diag.Diagnostic{
			Class:   diag.ClassParse,
			Kind:    diag.KindUnresolvedInclude,
			Message: fmt.Sprintf("cannot resolve include %q: %v", path, err),
		})
		return nil
	}

	pieces := splitPieces(src, content, s.opts.Autosplit)
	fileKey := src.key()
	prevRecords := s.pieceCache[fileKey]

	var records []*pieceRecord
	for _, p := range pieces {
		var segs []*Segment
		if prev := findReusablePiece(prevRecords, p); prev != nil {
			segs = prev.segments
		} else {
			segs = s.scanPiece(p)
		}
		records = append(records, &pieceRecord{offset: p.Offset, content: p.Content, segments: segs})

		for _, seg := range segs {
			*slots = append(*slots, readSlot{seg: seg})
			if last := seg.lastStatement(); last != nil && last.Kind == mm.StmtInclude {
				if err := s.readInto(slots, last.Include, text, visiting, newCache); err != nil {
					return err
				}
			}
		}
	}
	newCache[fileKey] = records
	return nil
}

// scanPiece tokenizes a freshly-seen or changed piece through the executor
// and groups its statements into segments, breaking the run immediately
// after every include directive — spec.md §4.2's "a file with N includes
// yields N+1 segments" rule, applied per piece. New segments start with
// ID 0; assignIDs fills these in once the whole tree is known.
func (s *Set) scanPiece(p Piece) []*Segment {
	promise := executor.Exec(s.exec, len(p.Content), func() *mm.Result {
		return mm.Scan(p.Content)
	})
	result := promise.Wait()

	for _, e := range result.Errors {
		s.diagnostics = append(s.diagnostics, diag.Diagnostic{
			Class:   diag.ClassParse,
			Kind:    diag.KindMalformedSource,
			Offset:  p.Offset + e.Offset,
			Message: e.Message,
		})
	}

	var segs []*Segment
	var cur []mm.Statement
	flush := func() {
		seg := &Segment{Source: p.Source, Statements: cur}
		if len(segs) == 0 {
			seg.Directives = result.Directives
		}
		segs = append(segs, seg)
		cur = nil
	}
	for _, stmt := range result.Statements {
		cur = append(cur, stmt)
		if stmt.Kind == mm.StmtInclude {
			flush()
		}
	}
	flush()
	assignComments(segs, result.Comments)
	return segs
}

// assignComments distributes a piece's ordinary comments across the
// segments it produced: each comment is attached to the first segment
// whose last statement comes at or after it in the source (the segment it
// precedes), or to the final segment if it trails every statement. Within
// a segment, internal/outline merges Comments and Statements back into
// source order by Offset.
func assignComments(segs []*Segment, comments []mm.Comment) {
	ci := 0
	for segIdx, seg := range segs {
		segEnd := -1
		if n := len(seg.Statements); n > 0 {
			segEnd = seg.Statements[n-1].Offset
		}
		last := segIdx == len(segs)-1
		for ci < len(comments) && (last || segEnd < 0 || comments[ci].Offset <= segEnd) {
			seg.Comments = append(seg.Comments, comments[ci])
			ci++
		}
	}
}

// resolve finds the bytes for path: first among the supplied in-memory
// buffers (keyed literally), else relative to baseDir on disk.
func (s *Set) resolve(path string, text map[string][]byte) (Source, []byte, error) {
	if content, ok := text[path]; ok {
		return memSource(path, content), content, nil
	}
	resolved := path
	if s.baseDir != "" && !filepath.IsAbs(path) {
		resolved = filepath.Join(s.baseDir, path)
	}
	return diskSource(resolved)
}

func findReusablePiece(prev []*pieceRecord, p Piece) *pieceRecord {
	for _, r := range prev {
		if r.offset == p.Offset && bytes.Equal(r.content, p.Content) {
			return r
		}
	}
	return nil
}

// assignIDs gives every slot's Segment a stable ID: slots whose Segment was
// reused from a prior Read already carry one (ID != 0) and keep it; fresh
// segments are inserted into Order between their nearest assigned neighbors,
// in left-to-right order, satisfying the "relative order of previously
// existing live IDs never changes" rule (spec.md §4.2 rule 4) and the
// SegmentId stability testable property (spec.md §8).
func (s *Set) assignIDs(slots []readSlot) {
	live := make(map[types.SegmentID]bool, len(slots))
	for _, sl := range slots {
		if sl.seg.ID != 0 {
			live[sl.seg.ID] = true
		}
	}
	for id := range s.byID {
		if !live[id] {
			s.order.Remove(id)
		}
	}

	nextFixed := make([]types.SegmentID, len(slots)+1)
	for i := len(slots) - 1; i >= 0; i-- {
		if slots[i].seg.ID != 0 {
			nextFixed[i] = slots[i].seg.ID
		} else {
			nextFixed[i] = nextFixed[i+1]
		}
	}

	var lastID types.SegmentID
	for i, sl := range slots {
		if sl.seg.ID == 0 {
			sl.seg.ID = s.order.InsertBetween(lastID, nextFixed[i+1])
		}
		lastID = sl.seg.ID
	}
}

// Segments returns the current ordered sequence of segments. The returned
// slice is owned by Set and must not be mutated.
func (s *Set) Segments() []*Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.segments
}

// Statement returns the statement at addr, and whether it exists.
func (s *Set) Statement(addr types.Address) (mm.Statement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seg, ok := s.byID[addr.Segment]
	if !ok || int(addr.Index) < 0 || int(addr.Index) >= len(seg.Statements) {
		return mm.Statement{}, false
	}
	return seg.Statements[addr.Index], true
}

// ParseDiagnostics returns the diagnostics recorded by the most recent Read.
func (s *Set) ParseDiagnostics() []diag.Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.diagnostics
}

// Clear discards all segments, diagnostics, and piece-reuse history, as if
// Read had never been called.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = nil
	s.byID = make(map[types.SegmentID]*Segment)
	s.pieceCache = make(map[string][]*pieceRecord)
	s.diagnostics = nil
	s.order = NewOrder()
}

// Clone returns an independent deep copy sharing no mutable state with s,
// satisfying cow.Cloner so a Set can live inside a cow.Box. Segment values
// themselves are treated as immutable after construction (replaced
// wholesale by Read, never mutated in place), so they are shared rather
// than deep-copied; only the container structures are duplicated.
func (s *Set) Clone() *Set {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := &Set{
		opts:        s.opts,
		exec:        s.exec,
		order:       s.order.clone(),
		baseDir:     s.baseDir,
		segments:    append([]*Segment(nil), s.segments...),
		byID:        make(map[types.SegmentID]*Segment, len(s.byID)),
		pieceCache:  make(map[string][]*pieceRecord, len(s.pieceCache)),
		diagnostics: append([]diag.Diagnostic(nil), s.diagnostics...),
	}
	for id, seg := range s.byID {
		clone.byID[id] = seg
	}
	for k, v := range s.pieceCache {
		clone.pieceCache[k] = v
	}
	return clone
}
