package profile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jupierce/covreport/pkg/coverage"
)

type fileJSON struct {
	Name   string          `json:"name"`
	Lines  []string        `json:"lines"`
	Marks  []coverage.Mark `json:"marks"`
	Counts []*int          `json:"counts"`
	Code   []bool          `json:"code,omitempty"`
}

type recordsJSON struct {
	Files     []fileJSON      `json:"files"`
	Callsites []coverage.Edge `json:"callsites,omitempty"`
}

// LoadRecords reads a JSON records document. The returned analyzer is nil
// when the document carries no call-site edges.
func LoadRecords(path string) ([]*coverage.FileRecord, coverage.Analyzer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read records: %w", err)
	}
	return ParseRecords(data)
}

// ParseRecords decodes a JSON records document.
func ParseRecords(data []byte) ([]*coverage.FileRecord, coverage.Analyzer, error) {
	var doc recordsJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode records: %w", err)
	}

	records := make([]*coverage.FileRecord, 0, len(doc.Files))
	for _, f := range doc.Files {
		rec := &coverage.FileRecord{
			Name:   coverage.NormalizeName(f.Name),
			Lines:  f.Lines,
			Marks:  f.Marks,
			Counts: make([]int, len(f.Counts)),
			Code:   f.Code,
		}
		for i, c := range f.Counts {
			if c != nil {
				rec.Counts[i] = *c
			}
		}
		if err := rec.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invalid record: %w", err)
		}
		records = append(records, rec)
	}

	if len(doc.Callsites) == 0 {
		return records, nil, nil
	}
	return records, coverage.NewGraph(doc.Callsites), nil
}
