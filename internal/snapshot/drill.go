package snapshot

import (
	"sort"
	"strings"

	"github.com/Veraticus/rfm-segments/internal/model"
)

// DefaultDrillLimit caps how many customers a drill-down returns.
const DefaultDrillLimit = 100

// DrillFilter narrows the customers shown for one segment.
type DrillFilter struct {
	IDContains string
	MinVisits  int
	MinSpend   float64
	Limit      int
}

// Drill returns the customers of a segment that pass the filter, highest
// spend first. The snapshot is not modified.
func Drill(s *model.Snapshot, name model.SegmentName, f DrillFilter) []model.CustomerSummary {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultDrillLimit
	}
	needle := strings.ToLower(f.IDContains)

	var out []model.CustomerSummary
	for _, c := range s.Customers(name) {
		if needle != "" && !strings.Contains(strings.ToLower(c.ID), needle) {
			continue
		}
		if c.Visits < f.MinVisits || c.Spend < f.MinSpend {
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Spend > out[j].Spend
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
