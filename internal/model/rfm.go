package model

// RFMRecord is the Recency/Frequency/Monetary triple for one customer.
type RFMRecord struct {
	Recency   int     `json:"recency"`
	Frequency int     `json:"frequency"`
	Monetary  float64 `json:"monetary"`
}
