package coverage

import (
	"fmt"
	"sort"
)

// SortKey selects the file ordering of a report.
type SortKey string

const (
	SortByName     SortKey = "name"
	SortByLOC      SortKey = "loc"
	SortByCoverage SortKey = "coverage"
)

// ParseSortKey validates a sort criterion.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortByName, SortByLOC, SortByCoverage:
		return k, nil
	case "":
		return SortByName, nil
	default:
		return "", fmt.Errorf("invalid sort criterion %q (valid: name, loc, coverage)", s)
	}
}

// Sort returns a sorted copy of records. Ties are broken by name, and
// reverse yields the exact reversal of the ascending order.
func Sort(records []*FileRecord, key SortKey, reverse bool) []*FileRecord {
	out := append([]*FileRecord(nil), records...)

	less := func(a, b *FileRecord) bool { return a.Name < b.Name }
	switch key {
	case SortByLOC:
		less = func(a, b *FileRecord) bool {
			if la, lb := a.NumCodeLines(), b.NumCodeLines(); la != lb {
				return la < lb
			}
			return a.Name < b.Name
		}
	case SortByCoverage:
		less = func(a, b *FileRecord) bool {
			if ca, cb := a.CodeCoverage(), b.CodeCoverage(); ca != cb {
				return ca < cb
			}
			return a.Name < b.Name
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })

	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}
