// Package outline is the outline pass: it builds the section tree implied
// by banner-delimited `$( ... $)` heading comments, grouping every
// statement under the nearest enclosing heading. Grounded in
// original_source's database.rs outline_pass/OutlineNode, which derives the
// same tree from set.mm's chapter/section banner convention (a comment
// whose first and last non-blank lines are a run of one repeated
// punctuation character, classifying the heading's depth).
package outline

import (
	"sort"
	"strings"

	"github.com/marnix/metamath-knife/internal/mm"
	"github.com/marnix/metamath-knife/internal/segment"
	"github.com/marnix/metamath-knife/internal/types"
)

// Level is a heading's nesting depth, derived from its banner character.
type Level int

const (
	LevelNone Level = iota
	LevelChapter
	LevelSection
	LevelSubsection
	LevelSubsubsection
)

// bannerChars maps set.mm's banner punctuation to heading depth, deepest
// last. Any other comment is prose, not a heading.
var bannerChars = map[byte]Level{
	'#': LevelChapter,
	'=': LevelSection,
	'-': LevelSubsection,
	'.': LevelSubsubsection,
}

// Section is one node of the outline tree: a heading (or the synthetic
// root, Level == LevelNone) together with the statements that fall
// directly under it (before any nested heading) and its nested sections.
type Section struct {
	Level      Level
	Title      string
	Heading    types.Address // zero Address for the synthetic root
	Statements []types.Address
	Children   []*Section
}

// Outline is the whole tree produced by Build.
type Outline struct {
	Root *Section
}

// Build walks segs in order, merging each segment's Comments and
// Statements back into source order by byte offset, and assembles the
// section tree: a heading comment pops the stack back to its own depth (or
// shallower) and pushes a new Section; every other statement attaches to
// whichever Section is currently on top of the stack.
func Build(segs []*segment.Segment) *Outline {
	root := &Section{Level: LevelNone}
	stack := []*Section{root}

	for _, seg := range segs {
		for _, ev := range mergeEvents(seg) {
			if ev.comment != nil {
				lvl, title, ok := classify(ev.comment.Text)
				if !ok {
					continue
				}
				for len(stack) > 1 && stack[len(stack)-1].Level >= lvl {
					stack = stack[:len(stack)-1]
				}
				addr := types.Address{Segment: seg.ID, Index: types.StatementIndex(ev.statementIdx)}
				sec := &Section{Level: lvl, Title: title, Heading: addr}
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, sec)
				stack = append(stack, sec)
				continue
			}
			top := stack[len(stack)-1]
			top.Statements = append(top.Statements, types.Address{Segment: seg.ID, Index: types.StatementIndex(ev.statementIdx)})
		}
	}
	return &Outline{Root: root}
}

// event is one chronological position within a segment: either a comment
// (a heading candidate) or the statement index immediately following it.
// statementIdx is always the index of the next statement after the event's
// offset, so a heading comment's Address points at the statement it
// introduces (or one past the end, if it heads nothing).
type event struct {
	offset       int
	comment      *mm.Comment
	statementIdx int
}

func mergeEvents(seg *segment.Segment) []event {
	events := make([]event, 0, len(seg.Comments)+len(seg.Statements))
	for i, c := range seg.Comments {
		idx := nextStatementAt(seg, c.Offset)
		events = append(events, event{offset: c.Offset, comment: &seg.Comments[i], statementIdx: idx})
	}
	for i, stmt := range seg.Statements {
		events = append(events, event{offset: stmt.Offset, statementIdx: i})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].offset < events[j].offset })
	return events
}

func nextStatementAt(seg *segment.Segment, offset int) int {
	for i, stmt := range seg.Statements {
		if stmt.Offset >= offset {
			return i
		}
	}
	return len(seg.Statements)
}

// classify recognizes a banner-delimited heading: at least one line must be
// entirely a repetition (8+ times) of one of bannerChars, and the
// non-banner lines, trimmed and joined with a space, become the title.
// Ordinary prose comments (no banner line) return ok=false.
func classify(text string) (level Level, title string, ok bool) {
	var titleParts []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if lvl, isBanner := bannerLevel(trimmed); isBanner {
			level = lvl
			ok = true
			continue
		}
		if trimmed != "" {
			titleParts = append(titleParts, trimmed)
		}
	}
	if !ok {
		return LevelNone, "", false
	}
	return level, strings.Join(titleParts, " "), true
}

func bannerLevel(line string) (Level, bool) {
	if len(line) < 8 {
		return LevelNone, false
	}
	lvl, known := bannerChars[line[0]]
	if !known {
		return LevelNone, false
	}
	for i := 1; i < len(line); i++ {
		if line[i] != line[0] {
			return LevelNone, false
		}
	}
	return lvl, true
}
