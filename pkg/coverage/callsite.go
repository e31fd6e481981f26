package coverage

import "sort"

// Role tells which side of a call edge a reference describes.
type Role int

const (
	// RoleDefinition references the definition of a method called from the
	// rendered line.
	RoleDefinition Role = iota
	// RoleCall references a place that calls the method defined at the
	// rendered line.
	RoleCall
)

// CallSite is one call-graph edge touching a rendered line. File is empty
// for native or otherwise untraced code.
type CallSite struct {
	Class  string
	Method string
	File   string
	Line   int
	Count  int
	Role   Role
}

// Analyzer answers call-graph lookups for a file:line.
type Analyzer interface {
	// DefSites returns the definitions of the methods called from file:line.
	DefSites(file string, line int) []CallSite
	// CallSites returns the callers of the method defined at file:line.
	CallSites(file string, line int) []CallSite
}

// Location is a method position in the source tree.
type Location struct {
	Class  string `json:"class"`
	Method string `json:"method"`
	File   string `json:"file,omitempty"`
	Line   int    `json:"line"`
}

// Edge is a call from Caller (the call expression) to Callee (the method
// definition), exercised Count times.
type Edge struct {
	Caller Location `json:"caller"`
	Callee Location `json:"callee"`
	Count  int      `json:"count"`
}

type siteKey struct {
	file string
	line int
}

// Graph is an in-memory Analyzer built from call edges.
type Graph struct {
	byCaller map[siteKey][]CallSite
	byCallee map[siteKey][]CallSite
}

// NewGraph indexes the edges by caller and callee position. File names are
// normalized so lookups match record names.
func NewGraph(edges []Edge) *Graph {
	g := &Graph{
		byCaller: make(map[siteKey][]CallSite),
		byCallee: make(map[siteKey][]CallSite),
	}
	for _, e := range edges {
		if e.Caller.File != "" {
			k := siteKey{NormalizeName(e.Caller.File), e.Caller.Line}
			g.byCaller[k] = append(g.byCaller[k], CallSite{
				Class:  e.Callee.Class,
				Method: e.Callee.Method,
				File:   e.Callee.File,
				Line:   e.Callee.Line,
				Count:  e.Count,
				Role:   RoleDefinition,
			})
		}
		if e.Callee.File != "" {
			k := siteKey{NormalizeName(e.Callee.File), e.Callee.Line}
			g.byCallee[k] = append(g.byCallee[k], CallSite{
				Class:  e.Caller.Class,
				Method: e.Caller.Method,
				File:   e.Caller.File,
				Line:   e.Caller.Line,
				Count:  e.Count,
				Role:   RoleCall,
			})
		}
	}
	return g
}

// DefSites returns copies of the callee sites called from file:line.
func (g *Graph) DefSites(file string, line int) []CallSite {
	return cloneSites(g.byCaller[siteKey{NormalizeName(file), line}])
}

// CallSites returns copies of the caller sites of the method at file:line.
func (g *Graph) CallSites(file string, line int) []CallSite {
	return cloneSites(g.byCallee[siteKey{NormalizeName(file), line}])
}

func cloneSites(s []CallSite) []CallSite {
	if len(s) == 0 {
		return nil
	}
	return append([]CallSite(nil), s...)
}

// SortSites orders references by count descending; ties fall back to
// class, method, file and line so output is deterministic.
func SortSites(sites []CallSite) {
	sort.SliceStable(sites, func(i, j int) bool {
		a, b := sites[i], sites[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Class != b.Class {
			return a.Class < b.Class
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
}
