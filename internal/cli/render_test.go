package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/rfm-segments/internal/model"
	"github.com/Veraticus/rfm-segments/internal/snapshot"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		amount float64
	}{
		{name: "zero", amount: 0, want: "₱0.00"},
		{name: "small", amount: 12.5, want: "₱12.50"},
		{name: "thousands", amount: 1234.567, want: "₱1,234.57"},
		{name: "millions", amount: 1234567.891, want: "₱1,234,567.89"},
		{name: "negative", amount: -1500, want: "-₱1,500.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(tt.amount))
		})
	}
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "1,000", FormatCount(1000))
	assert.Equal(t, "12,345,678", FormatCount(12345678))
	assert.Equal(t, "-4,200", FormatCount(-4200))
}

func TestFormatDelta(t *testing.T) {
	up := 20.0
	down := -12.345

	assert.Empty(t, FormatDelta(nil))
	assert.Contains(t, FormatDelta(&up), "+20.0%")
	assert.Contains(t, FormatDelta(&down), "-12.3%")
}

func sampleSnapshot() *model.Snapshot {
	s := model.NewSnapshot()
	s.Segments[model.SegmentChampions] = model.Segment{
		Description: model.SegmentChampions.Description(),
		Customers:   []model.CustomerSummary{{ID: "vip-1", LastVisit: 2, Visits: 9, Spend: 2400}},
	}
	s.Segments[model.SegmentAtRisk] = model.Segment{
		Description: model.SegmentAtRisk.Description(),
		Customers: []model.CustomerSummary{
			{ID: "lapsed-1", LastVisit: 120, Visits: 3, Spend: 300},
			{ID: "lapsed-2", LastVisit: 200, Visits: 2, Spend: 100},
		},
	}
	return s
}

func TestRenderKPIs(t *testing.T) {
	historical := model.NewSnapshot()
	historical.Segments[model.SegmentAtRisk] = model.Segment{
		Customers: []model.CustomerSummary{{ID: "x", Spend: 100}},
	}

	out := RenderKPIs(snapshot.Compare(sampleSnapshot(), historical), "North")
	assert.Contains(t, out, "Total Customers")
	assert.Contains(t, out, "Average Spend")
	assert.Contains(t, out, "₱933.33")
	assert.Contains(t, out, "At-Risk Customers")
	assert.Contains(t, out, "Champion Customers")
	assert.Contains(t, out, "NORTH")
	assert.Contains(t, out, "+200.0%")
}

func TestRenderKPIs_NoHistory(t *testing.T) {
	out := RenderKPIs(snapshot.Compare(sampleSnapshot(), nil), "")
	assert.NotContains(t, out, "%")
}

func TestRenderSegments(t *testing.T) {
	out := RenderSegments(sampleSnapshot())
	lines := strings.Split(out, "\n")

	for _, name := range model.SegmentOrder {
		assert.Contains(t, out, string(name))
	}
	assert.Contains(t, out, "66.7%")
	assert.Contains(t, out, "₱2,400.00")

	// Header plus one line per segment, in cascade order
	champions := strings.Index(out, "Champions")
	hibernating := strings.Index(out, "Hibernating")
	assert.Less(t, champions, hibernating)
	assert.GreaterOrEqual(t, len(lines), len(model.SegmentOrder)+1)
}

func TestRenderDrill(t *testing.T) {
	customers := snapshot.Drill(sampleSnapshot(), model.SegmentAtRisk, snapshot.DrillFilter{})
	out := RenderDrill(model.SegmentAtRisk, customers)

	assert.Contains(t, out, "At-Risk (2 shown)")
	assert.Contains(t, out, "lapsed-1")
	assert.Contains(t, out, "120 days ago")
	assert.Less(t, strings.Index(out, "lapsed-1"), strings.Index(out, "lapsed-2"))

	empty := RenderDrill(model.SegmentNew, nil)
	assert.Contains(t, empty, "No customers match")
}

func TestRenderInsights(t *testing.T) {
	out := RenderInsights(snapshot.Insights(sampleSnapshot()))
	assert.Contains(t, out, "Retention")
	assert.Contains(t, out, "High Churn Risk")
	assert.Contains(t, out, "Nurture Champions")
	assert.NotContains(t, out, "Growth")

	assert.Contains(t, RenderInsights(nil), "No recommendations")
}

func TestRenderHistory(t *testing.T) {
	assert.Contains(t, RenderHistory(nil), "No saved analyses")

	out := RenderHistory([]model.AnalysisSummary{
		{ID: "abc-123", FileName: "march.csv", AnalysisDate: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
	})
	assert.Contains(t, out, "abc-123")
	assert.Contains(t, out, "march.csv")
}

func TestRenderSettings(t *testing.T) {
	out := RenderSettings(model.DefaultSegmentSettings())
	assert.Contains(t, out, "≤ 30 days")
	assert.Contains(t, out, "≥ 5 visits")
	assert.Contains(t, out, "> 90 days")
}

func TestRenderStats(t *testing.T) {
	out := RenderStats(model.RowStats{Read: 1200, Accepted: 1100, FilteredOut: 50, BadDate: 30, BadAmount: 20})
	assert.Contains(t, out, "1,200 rows read")
	assert.Contains(t, out, "1,100 used")
	assert.Contains(t, out, "50 outside the selected location")
	assert.Contains(t, out, "50 skipped")

	clean := RenderStats(model.RowStats{Read: 3, Accepted: 3})
	assert.NotContains(t, clean, "skipped")
}

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "full yes", input: "YES\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty line", input: "\n", want: false},
		{name: "end of input", input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got, err := p.Confirm(context.Background(), "Delete history?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Delete history? [y/N]")
		})
	}
}

func TestPrompter_ConfirmCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocking, release := newBlockingReader()
	defer release()
	p := NewPrompter(blocking, &strings.Builder{})

	_, err := p.Confirm(ctx, "Continue?")
	assert.ErrorIs(t, err, ErrInputCancelled)
}

// blockingReader never returns until closed.
type blockingReader struct {
	done chan struct{}
}

func newBlockingReader() (*blockingReader, func()) {
	r := &blockingReader{done: make(chan struct{})}
	return r, func() { close(r.done) }
}

func (r *blockingReader) Read([]byte) (int, error) {
	<-r.done
	return 0, context.Canceled
}
