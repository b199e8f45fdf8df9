// Package segment assigns every customer to exactly one behavioural segment.
package segment

import (
	"fmt"
	"sort"

	"github.com/Veraticus/rfm-segments/internal/model"
)

// Rule is one step of the classification cascade.
type Rule struct {
	Match   func(rec model.RFMRecord, s model.SegmentSettings) bool
	Segment model.SegmentName
}

// Rules is the ordered cascade. The first matching rule wins; Hibernating
// catches everyone else. The "AtRiskRecency-1" bound on Loyal leaves
// recency == AtRiskRecency to fall through to New or Hibernating.
var Rules = []Rule{
	{
		Segment: model.SegmentChampions,
		Match: func(rec model.RFMRecord, s model.SegmentSettings) bool {
			return rec.Recency <= s.ChampionRecency && rec.Frequency >= s.ChampionFrequency
		},
	},
	{
		Segment: model.SegmentLoyal,
		Match: func(rec model.RFMRecord, s model.SegmentSettings) bool {
			return rec.Recency <= s.AtRiskRecency-1 && rec.Frequency >= 2
		},
	},
	{
		Segment: model.SegmentAtRisk,
		Match: func(rec model.RFMRecord, s model.SegmentSettings) bool {
			return rec.Recency > s.AtRiskRecency && rec.Frequency > 1
		},
	},
	{
		Segment: model.SegmentNew,
		Match: func(rec model.RFMRecord, _ model.SegmentSettings) bool {
			return rec.Frequency == 1
		},
	},
}

// Assign returns the segment for a single record.
func Assign(rec model.RFMRecord, s model.SegmentSettings) model.SegmentName {
	for _, rule := range Rules {
		if rule.Match(rec, s) {
			return rule.Segment
		}
	}
	return model.SegmentHibernating
}

// Classify builds a snapshot from RFM records. Settings are taken by value so
// the whole run sees one consistent set of thresholds. Customers are listed
// in id order inside each segment, which makes the output deterministic.
func Classify(records map[string]model.RFMRecord, s model.SegmentSettings) *model.Snapshot {
	snap := model.NewSnapshot()

	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rec := records[id]
		name := Assign(rec, s)

		seg := snap.Segments[name]
		seg.Customers = append(seg.Customers, model.CustomerSummary{
			ID:        id,
			LastVisit: rec.Recency,
			Visits:    rec.Frequency,
			Spend:     rec.Monetary,
		})
		snap.Segments[name] = seg
	}

	return snap
}

// CheckPartition verifies that every record appears in exactly one segment
// and that the snapshot holds no unknown customers.
func CheckPartition(snap *model.Snapshot, records map[string]model.RFMRecord) error {
	seen := make(map[string]model.SegmentName, len(records))
	for _, name := range model.SegmentOrder {
		for _, c := range snap.Customers(name) {
			if prev, dup := seen[c.ID]; dup {
				return fmt.Errorf("customer %q appears in both %s and %s", c.ID, prev, name)
			}
			if _, ok := records[c.ID]; !ok {
				return fmt.Errorf("customer %q in %s has no RFM record", c.ID, name)
			}
			seen[c.ID] = name
		}
	}
	for name := range snap.Segments {
		if !name.Valid() {
			return fmt.Errorf("unknown segment %q", name)
		}
	}
	if len(seen) != len(records) {
		return fmt.Errorf("snapshot holds %d customers, expected %d", len(seen), len(records))
	}
	return nil
}
