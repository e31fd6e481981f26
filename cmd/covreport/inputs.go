package main

import (
	"errors"
	"fmt"

	"github.com/jupierce/covreport/pkg/config"
	"github.com/jupierce/covreport/pkg/coverage"
	"github.com/jupierce/covreport/pkg/log"
	"github.com/jupierce/covreport/pkg/profile"
)

// loadInputs reads the records named by s: Go cover profiles, a JSON
// records document, or both. The analyzer comes from the JSON document.
func loadInputs(s config.Settings, commentsRun bool, logger *log.Logger) ([]*coverage.FileRecord, coverage.Analyzer, error) {
	if len(s.CoverProfiles) == 0 && s.Records == "" {
		return nil, nil, errors.New("no coverage input: pass --coverprofile or --records")
	}

	var (
		records  []*coverage.FileRecord
		analyzer coverage.Analyzer
	)
	if len(s.CoverProfiles) > 0 {
		logger.Progress("Loading %d cover profile(s)", len(s.CoverProfiles))
		recs, err := profile.LoadGoProfiles(s.CoverProfiles, profile.Options{
			SourceRoot:           s.SourceRoot,
			ModulePath:           s.Module,
			CommentsRunByDefault: commentsRun,
			Logger:               logger,
		})
		if err != nil {
			return nil, nil, err
		}
		records = append(records, recs...)
	}
	if s.Records != "" {
		logger.Progress("Loading records from %s", s.Records)
		recs, a, err := profile.LoadRecords(s.Records)
		if err != nil {
			return nil, nil, err
		}
		if commentsRun {
			coverage.MarkCommentsRun(recs)
		}
		records = append(records, recs...)
		analyzer = a
	}

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if seen[rec.Name] {
			return nil, nil, fmt.Errorf("file %s appears in more than one input", rec.Name)
		}
		seen[rec.Name] = true
	}
	logger.Info("Loaded %d file record(s)", len(records))
	return records, analyzer, nil
}
