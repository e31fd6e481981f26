package coverage

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// GlobPrefix marks a file pattern written in glob syntax instead of a
// regular expression.
const GlobPrefix = "glob:"

// DefaultExcludes are skipped unless an include pattern rescues them.
var DefaultExcludes = []string{`_test\.go$`, `(^|/)vendor/`, `(^|/)testdata/`}

// Pattern matches file names.
type Pattern interface {
	Match(name string) bool
	String() string
}

type regexpPattern struct {
	re *regexp.Regexp
}

func (p regexpPattern) Match(name string) bool { return p.re.MatchString(name) }
func (p regexpPattern) String() string         { return p.re.String() }

type globPattern struct {
	src string
	g   glob.Glob
}

func (p globPattern) Match(name string) bool { return p.g.Match(name) }
func (p globPattern) String() string         { return GlobPrefix + p.src }

// CompilePattern compiles a single pattern.
func CompilePattern(s string) (Pattern, error) {
	if src, ok := strings.CutPrefix(s, GlobPrefix); ok {
		g, err := glob.Compile(src, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid file pattern %q: %w", s, err)
		}
		return globPattern{src: src, g: g}, nil
	}
	re, err := regexp.Compile(s)
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", s, err)
	}
	return regexpPattern{re: re}, nil
}

// CompilePatterns compiles a list of patterns and fails on the first bad one.
func CompilePatterns(list []string) ([]Pattern, error) {
	out := make([]Pattern, 0, len(list))
	for _, s := range list {
		p, err := CompilePattern(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func matchAny(patterns []Pattern, name string) bool {
	for _, p := range patterns {
		if p.Match(name) {
			return true
		}
	}
	return false
}

// Filter drops records matching an exclude pattern unless an include
// pattern matches them too. The input order is kept.
func Filter(records []*FileRecord, exclude, include []Pattern) []*FileRecord {
	var out []*FileRecord
	for _, rec := range records {
		if matchAny(exclude, rec.Name) && !matchAny(include, rec.Name) {
			continue
		}
		out = append(out, rec)
	}
	return out
}
