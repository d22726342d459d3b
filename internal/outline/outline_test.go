package outline

import (
	"strings"
	"testing"

	"github.com/marnix/metamath-knife/internal/mm"
	"github.com/marnix/metamath-knife/internal/segment"
	"github.com/marnix/metamath-knife/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func banner(char byte, title string) string {
	line := strings.Repeat(string(char), 20)
	return line + "\n" + title + "\n" + line
}

func TestClassifyRecognizesBannerLevels(t *testing.T) {
	lvl, title, ok := classify(banner('#', "Propositional calculus"))
	require.True(t, ok)
	assert.Equal(t, LevelChapter, lvl)
	assert.Equal(t, "Propositional calculus", title)

	lvl, _, ok = classify(banner('=', "Axioms"))
	require.True(t, ok)
	assert.Equal(t, LevelSection, lvl)

	_, _, ok = classify("just a plain comment, no banner here")
	assert.False(t, ok)
}

func TestBuildNestsSectionsByBannerDepth(t *testing.T) {
	seg := &segment.Segment{
		ID: types.SegmentID(1),
		Statements: []mm.Statement{
			{Kind: mm.StmtConstants, Math: [][]byte{[]byte("wff")}, Offset: 100},
			{Kind: mm.StmtAxiom, Label: "ax-1", Offset: 300},
			{Kind: mm.StmtAxiom, Label: "ax-2", Offset: 500},
		},
		Comments: []mm.Comment{
			{Text: banner('#', "Chapter one"), Offset: 0},
			{Text: banner('=', "Section one"), Offset: 200},
			{Text: "just prose, not a heading", Offset: 400},
		},
	}

	o := Build([]*segment.Segment{seg})
	require.Len(t, o.Root.Children, 1)
	ch := o.Root.Children[0]
	assert.Equal(t, LevelChapter, ch.Level)
	assert.Equal(t, "Chapter one", ch.Title)
	assert.Len(t, ch.Statements, 1, "the $c statement precedes the first heading's section but follows the chapter")

	require.Len(t, ch.Children, 1)
	sec := ch.Children[0]
	assert.Equal(t, LevelSection, sec.Level)
	assert.Equal(t, "Section one", sec.Title)
	// ax-1 and ax-2 both fall after the section heading; the prose comment
	// in between is not a heading and does not start a new section.
	assert.Len(t, sec.Statements, 2)
}

func TestBuildHandlesNoHeadingsAtAll(t *testing.T) {
	seg := &segment.Segment{
		ID: types.SegmentID(1),
		Statements: []mm.Statement{
			{Kind: mm.StmtAxiom, Label: "ax-1", Offset: 0},
		},
	}
	o := Build([]*segment.Segment{seg})
	assert.Empty(t, o.Root.Children)
	assert.Len(t, o.Root.Statements, 1)
}
