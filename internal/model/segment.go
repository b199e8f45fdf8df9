// Package model defines the core domain models used throughout the application.
package model

import (
	"encoding/json"
	"fmt"
)

// SegmentName identifies one of the behavioural customer segments.
type SegmentName string

// Segment names, in the order the classifier evaluates them.
const (
	SegmentChampions   SegmentName = "Champions"
	SegmentLoyal       SegmentName = "Loyal Customers"
	SegmentAtRisk      SegmentName = "At-Risk"
	SegmentNew         SegmentName = "New Customers"
	SegmentHibernating SegmentName = "Hibernating"
)

// SegmentOrder lists every segment in cascade order.
var SegmentOrder = []SegmentName{
	SegmentChampions,
	SegmentLoyal,
	SegmentAtRisk,
	SegmentNew,
	SegmentHibernating,
}

var segmentDescriptions = map[SegmentName]string{
	SegmentChampions:   "Your best and most frequent customers. Reward them!",
	SegmentLoyal:       "Consistent customers. Nurture them to become Champions.",
	SegmentAtRisk:      "Good customers who haven't visited recently. Re-engage them!",
	SegmentNew:         "First-time buyers. Encourage a second purchase.",
	SegmentHibernating: "Haven't visited in a long time. Try to win them back.",
}

// Description returns the human readable explanation of the segment.
func (n SegmentName) Description() string {
	return segmentDescriptions[n]
}

// Valid reports whether n is one of the known segments.
func (n SegmentName) Valid() bool {
	_, ok := segmentDescriptions[n]
	return ok
}

// ParseSegmentName resolves a segment from its display name.
func ParseSegmentName(s string) (SegmentName, error) {
	n := SegmentName(s)
	if !n.Valid() {
		return "", fmt.Errorf("unknown segment %q", s)
	}
	return n, nil
}

// CustomerSummary is one customer row inside a segment.
type CustomerSummary struct {
	ID        string  `json:"id"`
	LastVisit int     `json:"lastVisit"`
	Visits    int     `json:"visits"`
	Spend     float64 `json:"spend"`
}

// Segment groups the customers that landed in one bucket.
type Segment struct {
	Description string            `json:"description"`
	Customers   []CustomerSummary `json:"customers"`
}

// Snapshot is the complete output of a single analysis run.
// It serializes as a plain mapping of segment name to segment.
type Snapshot struct {
	Segments map[SegmentName]Segment
}

// NewSnapshot returns a snapshot with every segment present and empty.
func NewSnapshot() *Snapshot {
	s := &Snapshot{Segments: make(map[SegmentName]Segment, len(SegmentOrder))}
	for _, name := range SegmentOrder {
		s.Segments[name] = Segment{
			Description: name.Description(),
			Customers:   []CustomerSummary{},
		}
	}
	return s
}

// Customers returns the customers of the named segment, or nil.
func (s *Snapshot) Customers(name SegmentName) []CustomerSummary {
	if s == nil {
		return nil
	}
	return s.Segments[name].Customers
}

// Count returns how many customers are in the named segment.
func (s *Snapshot) Count(name SegmentName) int {
	return len(s.Customers(name))
}

// Len returns the number of customers across all segments.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, seg := range s.Segments {
		n += len(seg.Customers)
	}
	return n
}

// IsEmpty reports whether no customer was classified.
func (s *Snapshot) IsEmpty() bool {
	return s.Len() == 0
}

// MarshalJSON implements json.Marshaler.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if s.Segments == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.Segments)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	segments := make(map[SegmentName]Segment)
	if err := json.Unmarshal(data, &segments); err != nil {
		return err
	}
	for name, seg := range segments {
		if seg.Customers == nil {
			seg.Customers = []CustomerSummary{}
			segments[name] = seg
		}
	}
	s.Segments = segments
	return nil
}
