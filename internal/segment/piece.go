package segment

import (
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
)

// pieceSizeLimit is spec.md §4.2's 1 MiB autosplit threshold.
const pieceSizeLimit = 1 << 20

// chapterHeaderNeedle is the conventional Metamath chapter-header marker: a
// long run of '#' characters opening a `$( ... $)` comment. set.mm uses this
// convention; segment_set.rs (the file this splitter is ported from) was
// filtered out of the kept original source, so the needle length and the
// search itself are original to this port rather than a literal transcription.
var chapterHeaderNeedle = []byte("####################")

// Source identifies where a file's bytes came from: a disk path (compared by
// path + mtime) or an in-memory buffer (compared by name + content hash).
// This is SPEC_FULL.md §3's FileSource, grounded in database.rs's
// `parse(start, text: Vec<(String, Vec<u8>)>)` split between disk and
// supplied-buffer inputs.
type Source struct {
	Path    string
	Name    string
	ModTime time.Time
	Hash    uint64
}

// diskSource stats path and returns its identity, reading its content.
func diskSource(path string) (Source, []byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Source{}, nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, nil, err
	}
	return Source{Path: path, ModTime: info.ModTime()}, content, nil
}

// memSource builds the identity of an in-memory buffer.
func memSource(name string, content []byte) Source {
	return Source{Name: name, Hash: xxhash.Sum64(content)}
}

// Same reports whether two sources refer to the same logical content: same
// disk path and mtime, or same memory name and content hash. A disk source
// is never considered the same as a memory source.
func (s Source) Same(other Source) bool {
	if s.Path != "" || other.Path != "" {
		return s.Path == other.Path && s.ModTime.Equal(other.ModTime)
	}
	return s.Name == other.Name && s.Hash == other.Hash
}

// key is the identity used to look up a piece across reparses: path for disk
// sources, name for memory ones.
func (s Source) key() string {
	if s.Path != "" {
		return "disk:" + s.Path
	}
	return "mem:" + s.Name
}

// Piece is a byte-range of a source file: the whole file if <= 1 MiB, else
// one of several ranges split at chapter-header boundaries.
type Piece struct {
	Source  Source
	Offset  int // byte offset of Content within the full source buffer
	Content []byte
}

// splitPieces splits content into one or more Pieces. If autosplit is false
// or content is within the size limit, it returns a single piece spanning
// the whole buffer.
func splitPieces(src Source, content []byte, autosplit bool) []Piece {
	if !autosplit || len(content) <= pieceSizeLimit {
		return []Piece{{Source: src, Offset: 0, Content: content}}
	}

	cuts := findChapterHeaders(content)
	if len(cuts) == 0 {
		return []Piece{{Source: src, Offset: 0, Content: content}}
	}

	var pieces []Piece
	start := 0
	for _, cut := range cuts {
		if cut == 0 || cut <= start {
			continue
		}
		pieces = append(pieces, Piece{Source: src, Offset: start, Content: content[start:cut]})
		start = cut
	}
	pieces = append(pieces, Piece{Source: src, Offset: start, Content: content[start:]})
	return pieces
}

// findChapterHeaders locates every occurrence of chapterHeaderNeedle using a
// Boyer–Moore-Horspool search: the bad-character table lets the scan skip
// ahead by the needle's last-occurrence distance instead of re-checking
// every byte. The search compares one byte at a time; it does not compare
// machine words.
func findChapterHeaders(data []byte) []int {
	n := len(chapterHeaderNeedle)
	if n == 0 || len(data) < n {
		return nil
	}

	var badChar [256]int
	for i := range badChar {
		badChar[i] = n
	}
	for i := 0; i < n-1; i++ {
		badChar[chapterHeaderNeedle[i]] = n - 1 - i
	}

	var cuts []int
	i := 0
	for i <= len(data)-n {
		j := n - 1
		for j >= 0 && data[i+j] == chapterHeaderNeedle[j] {
			j--
		}
		if j < 0 {
			cuts = append(cuts, i)
			i += n
			continue
		}
		i += badChar[data[i+n-1]]
	}
	return cuts
}
