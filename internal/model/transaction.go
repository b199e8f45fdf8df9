package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single normalized row from an uploaded transaction log.
// It only lives for the duration of one analysis pass.
type Transaction struct {
	Date       time.Time
	CustomerID string
	Location   string
	Amount     decimal.Decimal
}

// ColumnMap records which CSV header plays each semantic role.
// It is built once per analysis and not modified afterwards.
type ColumnMap struct {
	Location   *LocationColumn `json:"location,omitempty"`
	CustomerID string          `json:"customerId"`
	Date       string          `json:"date"`
	Amount     string          `json:"amount"`
}

// LocationColumn is the optional location header together with the variant
// that matched it (e.g. "region"), used only to label filters.
type LocationColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// HasLocation reports whether a location column was detected.
func (m ColumnMap) HasLocation() bool {
	return m.Location != nil && m.Location.Name != ""
}

// RowStats tallies how the rows of one upload were handled.
type RowStats struct {
	Read            int `json:"read"`
	Accepted        int `json:"accepted"`
	FilteredOut     int `json:"filteredOut"`
	MissingCustomer int `json:"missingCustomer"`
	BadDate         int `json:"badDate"`
	BadAmount       int `json:"badAmount"`
}

// Skipped returns the number of rows dropped because they could not be parsed.
func (s RowStats) Skipped() int {
	return s.MissingCustomer + s.BadDate + s.BadAmount
}
