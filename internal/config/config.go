// Package config defines DbOptions (spec.md §6's database options struct)
// and an optional `.mmknife.kdl` loader overlaying it, mirroring the
// teacher's `.lci.kdl`/LoadKDL pattern (internal/config/kdl_config.go) with
// github.com/sblinch/kdl-go.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// DbOptions affects database processing and must stay constant for the
// lifetime of a Database, per spec.md §6.
type DbOptions struct {
	// Autosplit enables >1 MiB file splitting at chapter headers.
	Autosplit bool
	// Timing prints "<pass> <N>ms" after each phase.
	Timing bool
	// TraceRecalc is loaded from config and flags, but no pass reads it;
	// nothing is printed about recomputed segments.
	TraceRecalc bool
	// Incremental is loaded from config and flags, but no pass reads it; no
	// per-segment usage metadata is recorded.
	Incremental bool
	// Jobs is the worker count; <=1 runs synchronously.
	Jobs int
}

// Default mirrors original_source/src/database.rs's DbOptions::default():
// autosplit off, no instrumentation, synchronous execution.
func Default() DbOptions {
	return DbOptions{Jobs: 1}
}

// Load reads `<dir>/.mmknife.kdl` if present, overlaying its fields onto
// Default(). A missing file is not an error: it returns Default().
func Load(dir string) (DbOptions, error) {
	opts := Default()

	path := filepath.Join(dir, ".mmknife.kdl")
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return opts, nil
	}
	if err != nil {
		return opts, fmt.Errorf("config: reading %s: %w", path, err)
	}

	doc, err := kdl.Parse(bytes.NewReader(content))
	if err != nil {
		return opts, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "autosplit":
			if b, ok := firstBoolArg(n); ok {
				opts.Autosplit = b
			}
		case "timing":
			if b, ok := firstBoolArg(n); ok {
				opts.Timing = b
			}
		case "trace_recalc":
			if b, ok := firstBoolArg(n); ok {
				opts.TraceRecalc = b
			}
		case "incremental":
			if b, ok := firstBoolArg(n); ok {
				opts.Incremental = b
			}
		case "jobs":
			if v, ok := firstIntArg(n); ok {
				opts.Jobs = v
			}
		}
	}
	return opts, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}
