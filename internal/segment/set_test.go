package segment

import (
	"testing"

	"github.com/marnix/metamath-knife/internal/config"
	"github.com/marnix/metamath-knife/internal/executor"
	"github.com/marnix/metamath-knife/internal/mm"
	"github.com/marnix/metamath-knife/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSet() *Set {
	return New(config.Default(), executor.New(1))
}

func mathStrings(stmt mm.Statement) []string {
	out := make([]string, len(stmt.Math))
	for i, tok := range stmt.Math {
		out[i] = string(tok)
	}
	return out
}

// TestReadSplitsOnIncludeIntoNPlusOneSegments checks spec.md §4.2's "a file
// with N includes yields N+1 segments" rule, with the included file's own
// segment spliced between the two halves.
func TestReadSplitsOnIncludeIntoNPlusOneSegments(t *testing.T) {
	s := newTestSet()
	text := map[string][]byte{
		"parent.mm": []byte("$c wff $. $[ child.mm $] $v x $."),
		"child.mm":  []byte("$v y $."),
	}
	require.NoError(t, s.Read("parent.mm", text))

	segs := s.Segments()
	require.Len(t, segs, 3)

	require.Len(t, segs[0].Statements, 2)
	assert.Equal(t, mm.StmtConstants, segs[0].Statements[0].Kind)
	assert.Equal(t, mm.StmtInclude, segs[0].Statements[1].Kind)
	assert.Equal(t, "child.mm", segs[0].Statements[1].Include)

	require.Len(t, segs[1].Statements, 1)
	assert.Equal(t, mm.StmtVariables, segs[1].Statements[0].Kind)
	assert.Equal(t, []string{"y"}, mathStrings(segs[1].Statements[0]))

	require.Len(t, segs[2].Statements, 1)
	assert.Equal(t, mm.StmtVariables, segs[2].Statements[0].Kind)
	assert.Equal(t, []string{"x"}, mathStrings(segs[2].Statements[0]))
}

// TestSegmentIDStabilityAcrossReparse checks spec.md §8's "Segment ID
// stability" property: reparsing after a change confined to one segment
// leaves every other segment's ID unchanged.
func TestSegmentIDStabilityAcrossReparse(t *testing.T) {
	s := newTestSet()
	text := map[string][]byte{
		"parent.mm": []byte("$c wff $. $[ child.mm $] $v x $."),
		"child.mm":  []byte("$v y $."),
	}
	require.NoError(t, s.Read("parent.mm", text))
	before := s.Segments()
	idBefore := make([]types.SegmentID, len(before))
	for i, seg := range before {
		idBefore[i] = seg.ID
	}

	text2 := map[string][]byte{
		"parent.mm": []byte("$c wff $. $[ child.mm $] $v x $."),
		"child.mm":  []byte("$v z $."), // content changed, same position
	}
	require.NoError(t, s.Read("parent.mm", text2))
	after := s.Segments()
	require.Len(t, after, 3)

	assert.Equal(t, idBefore[0], after[0].ID, "segment before the include must keep its ID")
	assert.Equal(t, idBefore[2], after[2].ID, "segment after the include must keep its ID")
	assert.Equal(t, []string{"z"}, mathStrings(after[1].Statements[0]))
}

func TestStatementLooksUpByAddress(t *testing.T) {
	s := newTestSet()
	text := map[string][]byte{"a.mm": []byte("$c wff $.")}
	require.NoError(t, s.Read("a.mm", text))

	segs := s.Segments()
	require.Len(t, segs, 1)

	stmt, ok := s.Statement(types.Address{Segment: segs[0].ID, Index: 0})
	require.True(t, ok)
	assert.Equal(t, mm.StmtConstants, stmt.Kind)

	_, ok = s.Statement(types.Address{Segment: segs[0].ID, Index: 5})
	assert.False(t, ok)
}

func TestReadReportsUnresolvedInclude(t *testing.T) {
	s := newTestSet()
	text := map[string][]byte{"a.mm": []byte("$[ missing.mm $]")}
	require.NoError(t, s.Read("a.mm", text))

	diags := s.ParseDiagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, "missing.mm", func() string {
		return segs0Include(s)
	}())
}

func segs0Include(s *Set) string {
	segs := s.Segments()
	if len(segs) == 0 || len(segs[0].Statements) == 0 {
		return ""
	}
	return segs[0].Statements[len(segs[0].Statements)-1].Include
}

func TestClearResetsState(t *testing.T) {
	s := newTestSet()
	text := map[string][]byte{"a.mm": []byte("$c wff $.")}
	require.NoError(t, s.Read("a.mm", text))
	require.NotEmpty(t, s.Segments())

	s.Clear()
	assert.Empty(t, s.Segments())
	assert.Empty(t, s.ParseDiagnostics())
}

func TestCloneIsIndependent(t *testing.T) {
	s := newTestSet()
	text := map[string][]byte{"a.mm": []byte("$c wff $.")}
	require.NoError(t, s.Read("a.mm", text))

	clone := s.Clone()
	require.NoError(t, s.Read("a.mm", map[string][]byte{"a.mm": []byte("$c wff $. $v x $.")}))

	assert.Len(t, clone.Segments(), 1)
	assert.Len(t, s.Segments(), 1)
	assert.Len(t, clone.Segments()[0].Statements, 1)
	assert.Len(t, s.Segments()[0].Statements, 2)
}
