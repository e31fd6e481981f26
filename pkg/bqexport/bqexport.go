// Package bqexport loads per-line and per-file coverage into BigQuery for
// analysis across runs.
package bqexport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/jupierce/covreport/pkg/coverage"
	"github.com/jupierce/covreport/pkg/log"
)

const (
	LinesTable = "coverage_lines"
	FilesTable = "coverage_files"

	batchSize = 500
)

// LineRow is one source line of one file.
type LineRow struct {
	IngestionTime    time.Time `bigquery:"ingestion_time"`
	CollectionID     string    `bigquery:"collection_id"`
	SourceFilename   string    `bigquery:"source_filename"`
	SourceLine       string    `bigquery:"source_line"`
	SourceLineNumber int       `bigquery:"source_line_number"`
	LineExecutions   int       `bigquery:"line_executions"`
	Mark             string    `bigquery:"mark"`
	IsCode           bool      `bigquery:"is_code"`
}

// FileRow carries the statistics of one file.
type FileRow struct {
	IngestionTime  time.Time `bigquery:"ingestion_time"`
	CollectionID   string    `bigquery:"collection_id"`
	SourceFilename string    `bigquery:"source_filename"`
	NumLines       int       `bigquery:"num_lines"`
	NumCodeLines   int       `bigquery:"num_code_lines"`
	TotalCoverage  float64   `bigquery:"total_coverage"`
	CodeCoverage   float64   `bigquery:"code_coverage"`
}

var linesSchema = bigquery.Schema{
	{Name: "ingestion_time", Type: bigquery.TimestampFieldType, Required: true},
	{Name: "collection_id", Type: bigquery.StringFieldType, Required: true},
	{Name: "source_filename", Type: bigquery.StringFieldType, Required: true},
	{Name: "source_line", Type: bigquery.StringFieldType},
	{Name: "source_line_number", Type: bigquery.IntegerFieldType, Required: true},
	{Name: "line_executions", Type: bigquery.IntegerFieldType, Required: true},
	{Name: "mark", Type: bigquery.StringFieldType, Required: true},
	{Name: "is_code", Type: bigquery.BooleanFieldType, Required: true},
}

var filesSchema = bigquery.Schema{
	{Name: "ingestion_time", Type: bigquery.TimestampFieldType, Required: true},
	{Name: "collection_id", Type: bigquery.StringFieldType, Required: true},
	{Name: "source_filename", Type: bigquery.StringFieldType, Required: true},
	{Name: "num_lines", Type: bigquery.IntegerFieldType, Required: true},
	{Name: "num_code_lines", Type: bigquery.IntegerFieldType, Required: true},
	{Name: "total_coverage", Type: bigquery.FloatFieldType, Required: true},
	{Name: "code_coverage", Type: bigquery.FloatFieldType, Required: true},
}

// BuildRows flattens records into table rows.
func BuildRows(records []*coverage.FileRecord, collectionID string, ingestionTime time.Time) ([]LineRow, []FileRow) {
	var lines []LineRow
	files := make([]FileRow, 0, len(records))
	for _, rec := range records {
		for i, text := range rec.Lines {
			lines = append(lines, LineRow{
				IngestionTime:    ingestionTime,
				CollectionID:     collectionID,
				SourceFilename:   rec.Name,
				SourceLine:       text,
				SourceLineNumber: i + 1,
				LineExecutions:   rec.Counts[i],
				Mark:             rec.Marks[i].String(),
				IsCode:           rec.IsCode(i),
			})
		}
		files = append(files, FileRow{
			IngestionTime:  ingestionTime,
			CollectionID:   collectionID,
			SourceFilename: rec.Name,
			NumLines:       rec.NumLines(),
			NumCodeLines:   rec.NumCodeLines(),
			TotalCoverage:  rec.TotalCoverage(),
			CodeCoverage:   rec.CodeCoverage(),
		})
	}
	return lines, files
}

// putter is the part of *bigquery.Inserter the export needs.
type putter interface {
	Put(ctx context.Context, src interface{}) error
}

// putBatches inserts rows in chunks and returns how many were accepted.
func putBatches[T any](ctx context.Context, ins putter, rows []T, logger *log.Logger) int {
	inserted := 0
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		batch := make([]*T, 0, end-start)
		for i := start; i < end; i++ {
			batch = append(batch, &rows[i])
		}
		if err := ins.Put(ctx, batch); err != nil {
			logger.Warning("batch insert failed at offset %d: %v", start, err)
			continue
		}
		inserted += len(batch)
	}
	return inserted
}

func alreadyExists(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}

func ensureTable(ctx context.Context, t *bigquery.Table, schema bigquery.Schema, clustering []string, logger *log.Logger) error {
	err := t.Create(ctx, &bigquery.TableMetadata{
		Schema:           schema,
		TimePartitioning: &bigquery.TimePartitioning{Field: "ingestion_time"},
		Clustering:       &bigquery.Clustering{Fields: clustering},
	})
	if err != nil && !alreadyExists(err) {
		return fmt.Errorf("create table %s: %w", t.TableID, err)
	}
	if err == nil {
		logger.Info("Created table %s", t.TableID)
	}
	return nil
}

// EnsureDataset creates the dataset and both tables when they are missing.
func EnsureDataset(ctx context.Context, client *bigquery.Client, datasetID string, logger *log.Logger) error {
	dataset := client.Dataset(datasetID)
	if err := dataset.Create(ctx, &bigquery.DatasetMetadata{}); err != nil {
		if !alreadyExists(err) {
			return fmt.Errorf("create dataset: %w", err)
		}
	} else {
		logger.Info("Created dataset %s", datasetID)
	}
	if err := ensureTable(ctx, dataset.Table(LinesTable), linesSchema, []string{"collection_id", "source_filename"}, logger); err != nil {
		return err
	}
	return ensureTable(ctx, dataset.Table(FilesTable), filesSchema, []string{"collection_id", "source_filename"}, logger)
}

// Result counts the rows accepted by BigQuery.
type Result struct {
	LineRows int
	FileRows int
}

// Export writes records into datasetID, creating it if needed. Failed
// batches are logged and skipped.
func Export(ctx context.Context, client *bigquery.Client, datasetID string, records []*coverage.FileRecord, collectionID string, ingestionTime time.Time, logger *log.Logger) (Result, error) {
	if err := EnsureDataset(ctx, client, datasetID, logger); err != nil {
		return Result{}, err
	}
	lines, files := BuildRows(records, collectionID, ingestionTime)
	dataset := client.Dataset(datasetID)

	var res Result
	res.FileRows = putBatches(ctx, dataset.Table(FilesTable).Inserter(), files, logger)
	res.LineRows = putBatches(ctx, dataset.Table(LinesTable).Inserter(), lines, logger)
	return res, nil
}
