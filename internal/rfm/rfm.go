// Package rfm folds transactions into per-customer Recency, Frequency and
// Monetary records.
package rfm

import (
	"math"
	"time"

	"github.com/Veraticus/rfm-segments/internal/model"
	"github.com/shopspring/decimal"
)

const secondsPerDay = 24 * 60 * 60

// epoch is the latest-date seed used when a batch has no transactions.
var epoch = time.Unix(0, 0).UTC()

// Result is the output of one aggregation pass.
type Result struct {
	Anchor  time.Time
	Records map[string]model.RFMRecord
}

// customer is the running total for one customer. It is replaced, not
// mutated, on every fold step.
type customer struct {
	last  time.Time
	total decimal.Decimal
	count int
}

func (c customer) add(txn model.Transaction) customer {
	last := c.last
	if c.count == 0 || txn.Date.After(last) {
		last = txn.Date
	}
	return customer{
		last:  last,
		total: c.total.Add(txn.Amount),
		count: c.count + 1,
	}
}

// Anchor returns the reference date for recency: one calendar day after the
// latest transaction in the batch.
func Anchor(txns []model.Transaction) time.Time {
	if len(txns) == 0 {
		return epoch.AddDate(0, 0, 1)
	}
	latest := txns[0].Date
	for _, txn := range txns[1:] {
		if txn.Date.After(latest) {
			latest = txn.Date
		}
	}
	return latest.AddDate(0, 0, 1)
}

// Aggregate groups transactions by exact customer id and computes one record
// per customer relative to Anchor(txns). Customers only exist if they have at
// least one transaction.
func Aggregate(txns []model.Transaction) Result {
	anchor := Anchor(txns)

	totals := make(map[string]customer)
	for _, txn := range txns {
		totals[txn.CustomerID] = totals[txn.CustomerID].add(txn)
	}

	records := make(map[string]model.RFMRecord, len(totals))
	for id, c := range totals {
		records[id] = model.RFMRecord{
			Recency:   Recency(anchor, c.last),
			Frequency: c.count,
			Monetary:  c.total.InexactFloat64(),
		}
	}

	return Result{Anchor: anchor, Records: records}
}

// Recency is the whole number of days from last to anchor, never negative.
func Recency(anchor, last time.Time) int {
	days := math.Round(float64(anchor.Unix()-last.Unix()) / secondsPerDay)
	if days < 0 {
		return 0
	}
	return int(days)
}
