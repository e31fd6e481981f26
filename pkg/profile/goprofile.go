// Package profile loads coverage data produced by instrumentation into
// file records: Go cover profiles, or a JSON document carrying records and
// call-site edges for any language.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/cover"

	"github.com/jupierce/covreport/pkg/coverage"
	"github.com/jupierce/covreport/pkg/log"
)

// Options controls how Go cover profiles are resolved against sources.
type Options struct {
	// SourceRoot is the directory profile paths are resolved against.
	SourceRoot string
	// ModulePath is stripped from profile file names to get repo-relative
	// paths (e.g. "github.com/org/repo").
	ModulePath string
	// CommentsRunByDefault marks comment lines as run.
	CommentsRunByDefault bool
	Logger               *log.Logger
}

type blockKey struct {
	startLine, startCol, endLine, endCol int
}

// LoadGoProfiles parses and merges the given cover profiles and builds one
// record per source file that can be read. Blocks reported by more than one
// profile keep the highest count.
func LoadGoProfiles(paths []string, opts Options) ([]*coverage.FileRecord, error) {
	merged := make(map[string]map[blockKey]cover.ProfileBlock)

	for _, p := range paths {
		profiles, err := cover.ParseProfiles(p)
		if err != nil {
			return nil, fmt.Errorf("parse profiles %s: %w", p, err)
		}
		for _, prof := range profiles {
			blocks, ok := merged[prof.FileName]
			if !ok {
				blocks = make(map[blockKey]cover.ProfileBlock)
				merged[prof.FileName] = blocks
			}
			for _, b := range prof.Blocks {
				k := blockKey{b.StartLine, b.StartCol, b.EndLine, b.EndCol}
				if existing, exists := blocks[k]; exists && existing.Count >= b.Count {
					continue
				}
				blocks[k] = b
			}
		}
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	var records []*coverage.FileRecord
	for _, name := range names {
		relPath := name
		if opts.ModulePath != "" && strings.HasPrefix(relPath, opts.ModulePath) {
			relPath = strings.TrimPrefix(relPath, opts.ModulePath)
			relPath = strings.TrimPrefix(relPath, "/")
		}

		absPath := relPath
		if !filepath.IsAbs(absPath) {
			absPath = filepath.Join(opts.SourceRoot, relPath)
		}
		src, err := os.ReadFile(absPath)
		if err != nil {
			// Generated or vendored files are often missing from the checkout.
			opts.Logger.Warning("skipping %s: %v", name, err)
			continue
		}

		blocks := make([]cover.ProfileBlock, 0, len(merged[name]))
		for _, b := range merged[name] {
			blocks = append(blocks, b)
		}
		rec := buildRecord(relPath, string(src), blocks)
		if opts.CommentsRunByDefault {
			markComments(rec)
		}
		records = append(records, rec)
	}

	opts.Logger.Debug("loaded %d of %d profiled files", len(records), len(names))
	return records, nil
}

func splitLines(src string) []string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	lines := strings.Split(src, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// buildRecord derives per-line counts, code flags and marks from blocks.
func buildRecord(name, src string, blocks []cover.ProfileBlock) *coverage.FileRecord {
	lines := splitLines(src)
	n := len(lines)

	counts := make([]int, n)
	code := make([]bool, n)
	for _, b := range blocks {
		for line := b.StartLine; line <= b.EndLine && line <= n; line++ {
			if line < 1 {
				continue
			}
			code[line-1] = true
			if b.Count > counts[line-1] {
				counts[line-1] = b.Count
			}
		}
	}

	marks := make([]coverage.Mark, n)
	for i := range marks {
		if code[i] && counts[i] > 0 {
			marks[i] = coverage.Covered
		}
	}
	inferMarks(marks, code)

	return &coverage.FileRecord{Name: name, Lines: lines, Marks: marks, Counts: counts, Code: code}
}

// inferMarks marks a non-code line as inferred when the nearest code lines
// above and below it were executed. The file edges count as executed.
func inferMarks(marks []coverage.Mark, code []bool) {
	n := len(marks)
	above := make([]bool, n)
	run := true
	for i := 0; i < n; i++ {
		if code[i] {
			run = marks[i] == coverage.Covered
			continue
		}
		above[i] = run
	}
	run = true
	for i := n - 1; i >= 0; i-- {
		if code[i] {
			run = marks[i] == coverage.Covered
			continue
		}
		if above[i] && run {
			marks[i] = coverage.Inferred
		}
	}
}

func markComments(rec *coverage.FileRecord) {
	for i, line := range rec.Lines {
		if !rec.Code[i] && strings.HasPrefix(strings.TrimSpace(line), "//") {
			rec.Marks[i] = coverage.Inferred
		}
	}
}
