package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/Veraticus/rfm-segments/internal/model"
)

// record is the stored form of a snapshot.
type record struct {
	SegmentedData *model.Snapshot `json:"segmentedData"`
}

// Encode serializes a snapshot for opaque storage.
func Encode(s *model.Snapshot) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("cannot encode nil snapshot")
	}
	data, err := json.Marshal(record{SegmentedData: s})
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Decode restores a snapshot written by Encode.
func Decode(data []byte) (*model.Snapshot, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if r.SegmentedData == nil {
		return nil, fmt.Errorf("failed to decode snapshot: missing segmentedData")
	}
	return r.SegmentedData, nil
}
