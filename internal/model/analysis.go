package model

import "time"

// Result is what one analysis run hands back to its caller.
type Result struct {
	Anchor    time.Time `json:"anchor"`
	Snapshot  *Snapshot `json:"segmentedData"`
	ColumnMap ColumnMap `json:"columnMap"`
	Stats     RowStats  `json:"stats"`
}

// Analysis is a stored snapshot in a user's history.
type Analysis struct {
	AnalysisDate time.Time
	Snapshot     *Snapshot
	ID           string
	FileName     string
	UserID       int64
}

// AnalysisSummary is the listing view of a stored analysis, without its payload.
type AnalysisSummary struct {
	AnalysisDate time.Time `db:"analysis_date"`
	ID           string    `db:"id"`
	FileName     string    `db:"file_name"`
}

// KPIs are the headline numbers computed from a snapshot.
type KPIs struct {
	TotalCustomers int     `json:"totalCustomers"`
	AvgSpend       float64 `json:"avgSpend"`
	AtRiskCount    int     `json:"atRiskCount"`
	ChampionCount  int     `json:"championCount"`
}

// Comparison pairs current KPIs with historical ones. A nil delta means the
// percentage change is undefined for that KPI.
type Comparison struct {
	Historical          *KPIs    `json:"historical,omitempty"`
	TotalCustomersDelta *float64 `json:"totalCustomersDelta,omitempty"`
	AvgSpendDelta       *float64 `json:"avgSpendDelta,omitempty"`
	AtRiskCountDelta    *float64 `json:"atRiskCountDelta,omitempty"`
	ChampionCountDelta  *float64 `json:"championCountDelta,omitempty"`
	Current             KPIs     `json:"current"`
}

// InsightKind groups insights the way the dashboard lays them out.
type InsightKind string

// Insight kinds.
const (
	InsightRetention InsightKind = "retention"
	InsightGrowth    InsightKind = "growth"
)

// Insight is a canned recommendation triggered by segment sizes.
type Insight struct {
	Kind    InsightKind `json:"kind"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}
