package bqexport

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/jupierce/covreport/pkg/coverage"
	"github.com/jupierce/covreport/pkg/log"
)

func TestBuildRows(t *testing.T) {
	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	recs := []*coverage.FileRecord{{
		Name:   "lib/a.go",
		Lines:  []string{"func A() {", "", "}"},
		Marks:  []coverage.Mark{coverage.Covered, coverage.Inferred, coverage.Uncovered},
		Counts: []int{4, 0, 0},
		Code:   []bool{true, false, true},
	}}

	lines, files := BuildRows(recs, "run-1", ts)
	require.Len(t, lines, 3)
	assert.Equal(t, LineRow{
		IngestionTime:    ts,
		CollectionID:     "run-1",
		SourceFilename:   "lib/a.go",
		SourceLine:       "func A() {",
		SourceLineNumber: 1,
		LineExecutions:   4,
		Mark:             "covered",
		IsCode:           true,
	}, lines[0])
	assert.Equal(t, 3, lines[2].SourceLineNumber)
	assert.False(t, lines[1].IsCode)

	require.Len(t, files, 1)
	assert.Equal(t, 3, files[0].NumLines)
	assert.Equal(t, 2, files[0].NumCodeLines)
	assert.InDelta(t, 0.5, files[0].CodeCoverage, 1e-9)
}

type fakePutter struct {
	batches []int
	failAt  int
}

func (p *fakePutter) Put(_ context.Context, src interface{}) error {
	rows := src.([]*LineRow)
	p.batches = append(p.batches, len(rows))
	if len(p.batches) == p.failAt {
		return errors.New("quota exceeded")
	}
	return nil
}

func TestPutBatches(t *testing.T) {
	rows := make([]LineRow, 1201)
	p := &fakePutter{failAt: 2}

	inserted := putBatches(context.Background(), p, rows, log.Discard())
	assert.Equal(t, []int{500, 500, 201}, p.batches)
	assert.Equal(t, 701, inserted)
}

func TestAlreadyExists(t *testing.T) {
	assert.True(t, alreadyExists(&googleapi.Error{Code: http.StatusConflict}))
	assert.False(t, alreadyExists(&googleapi.Error{Code: http.StatusForbidden}))
	assert.False(t, alreadyExists(errors.New("409")))
}
