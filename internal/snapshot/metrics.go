// Package snapshot computes KPIs, comparisons and drill-down views over
// analysis snapshots.
package snapshot

import (
	"slices"

	"github.com/Veraticus/rfm-segments/internal/model"
)

// Metrics computes the headline KPIs of a snapshot. A nil snapshot yields
// zero values.
func Metrics(s *model.Snapshot) model.KPIs {
	if s == nil {
		return model.KPIs{}
	}

	unique := make(map[string]struct{})
	var totalSpend float64
	for _, name := range names(s) {
		for _, c := range s.Segments[name].Customers {
			unique[c.ID] = struct{}{}
			totalSpend += c.Spend
		}
	}

	kpis := model.KPIs{
		TotalCustomers: len(unique),
		AtRiskCount:    s.Count(model.SegmentAtRisk),
		ChampionCount:  s.Count(model.SegmentChampions),
	}
	if kpis.TotalCustomers > 0 {
		kpis.AvgSpend = totalSpend / float64(kpis.TotalCustomers)
	}
	return kpis
}

// Compare computes percentage deltas of current against historical. A delta
// is left nil when there is no historical snapshot, when the historical
// value is zero, or when the value did not change.
func Compare(current, historical *model.Snapshot) model.Comparison {
	cmp := model.Comparison{Current: Metrics(current)}
	if historical == nil {
		return cmp
	}

	hist := Metrics(historical)
	cmp.Historical = &hist
	cmp.TotalCustomersDelta = Delta(float64(cmp.Current.TotalCustomers), float64(hist.TotalCustomers))
	cmp.AvgSpendDelta = Delta(cmp.Current.AvgSpend, hist.AvgSpend)
	cmp.AtRiskCountDelta = Delta(float64(cmp.Current.AtRiskCount), float64(hist.AtRiskCount))
	cmp.ChampionCountDelta = Delta(float64(cmp.Current.ChampionCount), float64(hist.ChampionCount))
	return cmp
}

// Delta returns the percentage change from historical to current, or nil
// when it is undefined or zero.
func Delta(current, historical float64) *float64 {
	if historical == 0 || current == historical {
		return nil
	}
	d := (current - historical) / historical * 100
	return &d
}

// SegmentAverages returns the average spend per segment, zero for empty ones.
func SegmentAverages(s *model.Snapshot) map[model.SegmentName]float64 {
	out := make(map[model.SegmentName]float64, len(model.SegmentOrder))
	if s == nil {
		return out
	}
	for name, seg := range s.Segments {
		if len(seg.Customers) == 0 {
			out[name] = 0
			continue
		}
		var total float64
		for _, c := range seg.Customers {
			total += c.Spend
		}
		out[name] = total / float64(len(seg.Customers))
	}
	return out
}

// LargestSegment picks the segment to open by default: the one with the most
// customers, ties resolved in cascade order.
func LargestSegment(s *model.Snapshot) model.SegmentName {
	best := model.SegmentChampions
	bestCount := 0
	for _, name := range names(s) {
		if n := s.Count(name); n > bestCount {
			best, bestCount = name, n
		}
	}
	return best
}

// names lists the known segments first in cascade order, then any extra
// segments a stored snapshot might carry.
func names(s *model.Snapshot) []model.SegmentName {
	if s == nil {
		return nil
	}
	out := make([]model.SegmentName, 0, len(s.Segments))
	for _, name := range model.SegmentOrder {
		if _, ok := s.Segments[name]; ok {
			out = append(out, name)
		}
	}
	var extra []model.SegmentName
	for name := range s.Segments {
		if !name.Valid() {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}
