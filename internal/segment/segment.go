package segment

import (
	"github.com/marnix/metamath-knife/internal/mm"
	"github.com/marnix/metamath-knife/internal/types"
)

// Segment is a contiguous run of statements parsed as a unit. Grouping
// constructs and `$e` hypothesis scopes never cross a segment boundary
// (enforced by how SegmentSet splits statements around include directives).
// Replaced wholesale on reparse; its ID is stable across reparses as long as
// the replacement occupies the same logical position in the Order.
type Segment struct {
	ID         types.SegmentID
	Source     Source
	Statements []mm.Statement
	// Directives holds every `$( $j ... $)` directive comment scanned from
	// this segment's piece; only the first segment produced by a given
	// piece carries them; see internal/grammar.
	Directives []mm.Directive
	// Comments holds every ordinary `$( ... $)` comment whose offset falls
	// within this segment's span of the source piece; see internal/outline.
	Comments []mm.Comment
}

// lastStatement returns the final statement of the segment, or nil if it has
// none (only possible for a trailing empty segment at end of file).
func (s *Segment) lastStatement() *mm.Statement {
	if len(s.Statements) == 0 {
		return nil
	}
	return &s.Statements[len(s.Statements)-1]
}
