package sheets

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/rfm-segments/internal/model"
	"github.com/Veraticus/rfm-segments/internal/snapshot"
)

// SegmentRow is one line of the segment breakdown block.
type SegmentRow struct {
	Segment     model.SegmentName
	Description string
	AvgSpend    decimal.Decimal
	Customers   int
}

// CustomerRow is one line of the customer detail block.
type CustomerRow struct {
	Segment    model.SegmentName
	CustomerID string
	Spend      decimal.Decimal
	LastVisit  int
	Visits     int
}

// SegmentRows summarizes every segment in cascade order.
func SegmentRows(s *model.Snapshot) []SegmentRow {
	averages := snapshot.SegmentAverages(s)
	rows := make([]SegmentRow, 0, len(model.SegmentOrder))
	for _, name := range model.SegmentOrder {
		rows = append(rows, SegmentRow{
			Segment:     name,
			Description: name.Description(),
			AvgSpend:    decimal.NewFromFloat(averages[name]).Round(2),
			Customers:   s.Count(name),
		})
	}
	return rows
}

// CustomerRows lists every customer grouped by segment in cascade order,
// highest spend first within a segment and ties broken by id.
func CustomerRows(s *model.Snapshot) []CustomerRow {
	rows := make([]CustomerRow, 0, s.Len())
	for _, name := range model.SegmentOrder {
		customers := append([]model.CustomerSummary(nil), s.Customers(name)...)
		sort.SliceStable(customers, func(i, j int) bool {
			if customers[i].Spend != customers[j].Spend {
				return customers[i].Spend > customers[j].Spend
			}
			return customers[i].ID < customers[j].ID
		})
		for _, c := range customers {
			rows = append(rows, CustomerRow{
				Segment:    name,
				CustomerID: c.ID,
				Spend:      decimal.NewFromFloat(c.Spend).Round(2),
				LastVisit:  c.LastVisit,
				Visits:     c.Visits,
			})
		}
	}
	return rows
}

// BuildRows lays out the sheet contents for a snapshot: a title line, the
// KPI summary, the segment breakdown and one row per customer.
func BuildRows(title string, generated time.Time, s *model.Snapshot) [][]any {
	kpis := snapshot.Metrics(s)
	segments := SegmentRows(s)
	customers := CustomerRows(s)

	values := make([][]any, 0, 14+len(segments)+len(customers))

	// Add header and summary in one append
	values = append(values,
		[]any{title, generated.Format("Jan 2, 2006 15:04")},
		[]any{}, // Empty row
		[]any{"Summary"},
		[]any{"Total Customers", kpis.TotalCustomers},
		[]any{"Average Spend", decimal.NewFromFloat(kpis.AvgSpend).Round(2).InexactFloat64()},
		[]any{"At-Risk Customers", kpis.AtRiskCount},
		[]any{"Champions", kpis.ChampionCount},
		[]any{}, // Empty row
		[]any{"Segment Breakdown"},
		[]any{"Segment", "Customers", "Avg Spend", "Description"},
	)

	for _, row := range segments {
		values = append(values, []any{
			string(row.Segment),
			row.Customers,
			row.AvgSpend.InexactFloat64(),
			row.Description,
		})
	}

	values = append(values,
		[]any{}, // Empty row
		[]any{}, // Empty row
		[]any{"Customer Details"},
		[]any{"Segment", "Customer ID", "Days Since Last Visit", "Visits", "Total Spend"},
	)

	for _, row := range customers {
		values = append(values, []any{
			string(row.Segment),
			row.CustomerID,
			row.LastVisit,
			row.Visits,
			row.Spend.InexactFloat64(),
		})
	}

	return values
}
