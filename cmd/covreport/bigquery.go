package main

import (
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jupierce/covreport/pkg/bqexport"
	"github.com/jupierce/covreport/pkg/config"
	"github.com/jupierce/covreport/pkg/coverage"
)

var (
	bqProject      string
	bqDataset      string
	bqCollectionID string
	bqFiles        []string
)

var bigqueryCmd = &cobra.Command{
	Use:   "bigquery",
	Short: "BigQuery operations",
	Long:  `Export coverage records to Google BigQuery for cross-run analysis.`,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest coverage records into BigQuery",
	Long: `Ingest per-line and per-file coverage into BigQuery.

Creates two tables in the specified dataset:
  - coverage_lines: one row per source line with its mark and count
  - coverage_files: one row per file with line totals and coverage ratios

The dataset and tables are created if they don't exist. The default and
configured exclude patterns apply as they do for render.`,
	Example: `  # Ingest a Go cover profile
  covreport bigquery --project my-project --dataset my_dataset \
    ingest --coverprofile cover.out --source-root .

  # Ingest only some files under a fixed collection id
  covreport bigquery --project my-project --dataset my_dataset \
    ingest --records run.json --collection-id nightly-42 \
    --file 'pkg/**' --file 'cmd/*/main.go'`,
	RunE: runIngest,
}

func init() {
	bigqueryCmd.PersistentFlags().StringVar(&bqProject, "project", "", "GCP project ID (required)")
	bigqueryCmd.PersistentFlags().StringVar(&bqDataset, "dataset", "", "BigQuery dataset name (required)")
	bigqueryCmd.MarkPersistentFlagRequired("project")
	bigqueryCmd.MarkPersistentFlagRequired("dataset")

	ingestCmd.Flags().StringVar(&bqCollectionID, "collection-id", "", "Identifier stored with every row (default: a random UUID)")
	ingestCmd.Flags().StringArrayVar(&bqFiles, "file", nil, "File name glob patterns to ingest (repeatable, OR logic)")

	bigqueryCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(bigqueryCmd)
}

// selectFiles keeps records whose name matches one of the globs. No globs
// keeps everything.
func selectFiles(records []*coverage.FileRecord, globs []string) ([]*coverage.FileRecord, error) {
	if len(globs) == 0 {
		return records, nil
	}
	patterns := make([]coverage.Pattern, 0, len(globs))
	for _, g := range globs {
		p, err := coverage.CompilePattern(coverage.GlobPrefix + g)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	var out []*coverage.FileRecord
	for _, rec := range records {
		for _, p := range patterns {
			if p.Match(rec.Name) {
				out = append(out, rec)
				break
			}
		}
	}
	return out, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ingestionTime := time.Now().UTC()

	s, err := loadSettings(cmd, nil)
	if err != nil {
		return err
	}
	logger, err := newLogger(s)
	if err != nil {
		return err
	}
	defer logger.Close()

	opts, err := config.Resolve(s)
	if err != nil {
		return err
	}
	records, _, err := loadInputs(s, opts.CommentsRunByDefault, logger)
	if err != nil {
		return err
	}
	records = coverage.Filter(records, opts.Exclude, opts.Include)
	records, err = selectFiles(records, bqFiles)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		logger.Warning("No files match the filter criteria")
		return nil
	}

	collectionID := bqCollectionID
	if collectionID == "" {
		collectionID = uuid.NewString()
	}
	logger.Info("Ingesting %d file(s) as collection %s", len(records), collectionID)
	logger.Info("BigQuery target: %s.%s", bqProject, bqDataset)

	client, err := bigquery.NewClient(ctx, bqProject)
	if err != nil {
		return fmt.Errorf("create BigQuery client: %w", err)
	}
	defer client.Close()

	res, err := bqexport.Export(ctx, client, bqDataset, records, collectionID, ingestionTime, logger)
	if err != nil {
		return fmt.Errorf("setup BigQuery: %w", err)
	}
	logger.Success("Inserted %d line row(s) and %d file row(s)", res.LineRows, res.FileRows)
	return nil
}
