package segment

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/Veraticus/rfm-segments/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssign(t *testing.T) {
	defaults := model.DefaultSegmentSettings()

	tests := []struct {
		name string
		want model.SegmentName
		rec  model.RFMRecord
	}{
		{name: "recent and frequent", rec: model.RFMRecord{Recency: 30, Frequency: 5}, want: model.SegmentChampions},
		{name: "champion recency edge", rec: model.RFMRecord{Recency: 31, Frequency: 5}, want: model.SegmentLoyal},
		{name: "one visit short of champion", rec: model.RFMRecord{Recency: 0, Frequency: 4}, want: model.SegmentLoyal},
		{name: "loyal upper bound", rec: model.RFMRecord{Recency: 89, Frequency: 2}, want: model.SegmentLoyal},
		{name: "exactly at-risk recency with repeat visits", rec: model.RFMRecord{Recency: 90, Frequency: 2}, want: model.SegmentHibernating},
		{name: "past at-risk recency", rec: model.RFMRecord{Recency: 91, Frequency: 2}, want: model.SegmentAtRisk},
		{name: "lapsed champion", rec: model.RFMRecord{Recency: 400, Frequency: 12}, want: model.SegmentAtRisk},
		{name: "single recent visit", rec: model.RFMRecord{Recency: 3, Frequency: 1}, want: model.SegmentNew},
		{name: "single old visit", rec: model.RFMRecord{Recency: 300, Frequency: 1}, want: model.SegmentNew},
		{name: "exactly at-risk recency single visit", rec: model.RFMRecord{Recency: 90, Frequency: 1}, want: model.SegmentNew},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Assign(tt.rec, defaults))
		})
	}
}

func TestAssign_RuleOrderBoundary(t *testing.T) {
	for _, atRisk := range []int{2, 30, 90, 365} {
		s := model.SegmentSettings{ChampionRecency: 1, ChampionFrequency: 100, AtRiskRecency: atRisk}

		assert.Equal(t, model.SegmentLoyal, Assign(model.RFMRecord{Recency: atRisk - 1, Frequency: 2}, s),
			"at-risk=%d: recency one below the threshold is loyal", atRisk)
		assert.Equal(t, model.SegmentAtRisk, Assign(model.RFMRecord{Recency: atRisk + 1, Frequency: 2}, s),
			"at-risk=%d: recency one above the threshold is at-risk", atRisk)
	}
}

func TestAssign_ChampionsFirst(t *testing.T) {
	// Champion thresholds wider than at-risk still take precedence.
	s := model.SegmentSettings{ChampionRecency: 200, ChampionFrequency: 3, AtRiskRecency: 60}
	assert.Equal(t, model.SegmentChampions, Assign(model.RFMRecord{Recency: 150, Frequency: 3}, s))
	assert.Equal(t, model.SegmentAtRisk, Assign(model.RFMRecord{Recency: 150, Frequency: 2}, s))
}

func TestClassify_Scenario(t *testing.T) {
	records := map[string]model.RFMRecord{
		"C1": {Recency: 1, Frequency: 2, Monetary: 150},
	}

	snap := Classify(records, model.DefaultSegmentSettings())

	require.Equal(t, 1, snap.Len())
	assert.Equal(t, []model.CustomerSummary{{ID: "C1", LastVisit: 1, Visits: 2, Spend: 150}},
		snap.Customers(model.SegmentLoyal))
	assert.Empty(t, snap.Customers(model.SegmentNew))
	assert.NoError(t, CheckPartition(snap, records))
}

func TestClassify_EmptyInput(t *testing.T) {
	snap := Classify(nil, model.DefaultSegmentSettings())

	assert.True(t, snap.IsEmpty())
	assert.Len(t, snap.Segments, len(model.SegmentOrder))
	assert.NoError(t, CheckPartition(snap, nil))
}

func TestClassify_SettingsChangeReclassifies(t *testing.T) {
	records := map[string]model.RFMRecord{
		"A": {Recency: 10, Frequency: 3, Monetary: 90},
		"B": {Recency: 45, Frequency: 2, Monetary: 40},
	}

	before := Classify(records, model.DefaultSegmentSettings())
	assert.Equal(t, 2, before.Count(model.SegmentLoyal))

	after := Classify(records, model.SegmentSettings{ChampionRecency: 15, ChampionFrequency: 3, AtRiskRecency: 40})
	assert.Equal(t, "A", after.Customers(model.SegmentChampions)[0].ID)
	assert.Equal(t, "B", after.Customers(model.SegmentAtRisk)[0].ID)
}

func randomRecords(r *rand.Rand, n int) map[string]model.RFMRecord {
	records := make(map[string]model.RFMRecord, n)
	for i := 0; i < n; i++ {
		records[fmt.Sprintf("cust-%03d", i)] = model.RFMRecord{
			Recency:   r.Intn(200),
			Frequency: 1 + r.Intn(10),
			Monetary:  float64(r.Intn(10000)) / 100,
		}
	}
	return records
}

func TestClassify_PartitionAndDeterminism(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for round := 0; round < 25; round++ {
		records := randomRecords(r, r.Intn(300))
		s := model.SegmentSettings{
			ChampionRecency:   1 + r.Intn(60),
			ChampionFrequency: 1 + r.Intn(8),
			AtRiskRecency:     1 + r.Intn(150),
		}

		first := Classify(records, s)
		require.NoError(t, CheckPartition(first, records))

		second := Classify(records, s)
		assert.Equal(t, first, second)
	}
}

func TestCheckPartition_DetectsViolations(t *testing.T) {
	records := map[string]model.RFMRecord{"A": {Recency: 1, Frequency: 1}}

	dup := model.NewSnapshot()
	for _, name := range []model.SegmentName{model.SegmentNew, model.SegmentHibernating} {
		seg := dup.Segments[name]
		seg.Customers = append(seg.Customers, model.CustomerSummary{ID: "A"})
		dup.Segments[name] = seg
	}
	assert.ErrorContains(t, CheckPartition(dup, records), "appears in both")

	missing := model.NewSnapshot()
	assert.ErrorContains(t, CheckPartition(missing, records), "expected 1")

	stranger := model.NewSnapshot()
	seg := stranger.Segments[model.SegmentNew]
	seg.Customers = append(seg.Customers, model.CustomerSummary{ID: "Z"})
	stranger.Segments[model.SegmentNew] = seg
	assert.ErrorContains(t, CheckPartition(stranger, records), "has no RFM record")
}
