package coverage

// Summary aggregates a set of records. Ratios are weighted by line counts.
type Summary struct {
	Files            int
	NumLines         int
	NumCodeLines     int
	CoveredLines     int
	CoveredCodeLines int
}

// Summarize computes the aggregate statistics over records.
func Summarize(records []*FileRecord) Summary {
	var s Summary
	for _, rec := range records {
		s.Files++
		s.NumLines += rec.NumLines()
		s.NumCodeLines += rec.NumCodeLines()
		s.CoveredLines += rec.CoveredLines()
		s.CoveredCodeLines += rec.CoveredCodeLines()
	}
	return s
}

func (s Summary) TotalCoverage() float64 {
	if s.NumLines == 0 {
		return 0
	}
	return float64(s.CoveredLines) / float64(s.NumLines)
}

func (s Summary) CodeCoverage() float64 {
	if s.NumCodeLines == 0 {
		return 1
	}
	return float64(s.CoveredCodeLines) / float64(s.NumCodeLines)
}
