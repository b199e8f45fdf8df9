// Package columns infers the semantic role of CSV headers.
package columns

import (
	"fmt"
	"strings"

	"github.com/Veraticus/rfm-segments/internal/common"
	"github.com/Veraticus/rfm-segments/internal/model"
)

// Role is a semantic column an analysis needs.
type Role string

// Column roles.
const (
	RoleCustomerID Role = "customerId"
	RoleDate       Role = "date"
	RoleAmount     Role = "amount"
	RoleLocation   Role = "location"
)

// Variants lists the accepted header spellings for one role, highest priority first.
type Variants struct {
	Role     Role
	Names    []string
	Optional bool
}

// DefaultVariants is the synonym table used by Detect. Order matters both
// across roles and within each list: the first variant present in the
// headers wins.
var DefaultVariants = []Variants{
	{
		Role:  RoleCustomerID,
		Names: []string{"customer id", "customer_id", "customerid", "cust id", "user id", "userid", "customer"},
	},
	{
		Role:  RoleDate,
		Names: []string{"order date", "invoicedate", "transactiondate", "date", "orderdate", "purchase date", "purchase_date"},
	},
	{
		Role: RoleAmount,
		Names: []string{
			"sales", "transactionamount", "totalamount", "amount", "total amount",
			"total", "total price", "revenue", "amount_spent", "price",
		},
	},
	{
		Role:     RoleLocation,
		Names:    []string{"state", "region", "country", "city", "store", "branch", "location", "store_name", "store name"},
		Optional: true,
	},
}

// MappingReason is the remediation message shown when required headers are missing.
const MappingReason = "Upload failed: The CSV must contain headers for Customer ID, a Date, and Sales/Amount."

// MappingError reports that one or more required roles had no matching header.
type MappingError struct {
	Reason  string
	Missing []Role
}

func (e *MappingError) Error() string {
	names := make([]string, len(e.Missing))
	for i, r := range e.Missing {
		names[i] = string(r)
	}
	return fmt.Sprintf("%s (missing: %s)", e.Reason, strings.Join(names, ", "))
}

// Unwrap lets callers match the error with errors.Is(err, common.ErrColumnMappingFailed).
func (e *MappingError) Unwrap() error {
	return common.ErrColumnMappingFailed
}

// NormalizeHeader trims, lower-cases and drops a leading byte-order mark.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

// Detect maps headers to roles using DefaultVariants.
func Detect(headers []string) (model.ColumnMap, error) {
	return DetectWith(DefaultVariants, headers)
}

// DetectWith maps headers to roles using the given synonym table. The
// returned map always carries the header text as uploaded. Either every
// required role resolves or a *MappingError is returned with an empty map.
func DetectWith(table []Variants, headers []string) (model.ColumnMap, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	var (
		m       model.ColumnMap
		missing []Role
	)

	for _, v := range table {
		header, variant, ok := match(v.Names, headers, normalized)
		if !ok {
			if !v.Optional {
				missing = append(missing, v.Role)
			}
			continue
		}

		switch v.Role {
		case RoleCustomerID:
			m.CustomerID = header
		case RoleDate:
			m.Date = header
		case RoleAmount:
			m.Amount = header
		case RoleLocation:
			m.Location = &model.LocationColumn{Name: header, Type: variant}
		}
	}

	if len(missing) > 0 {
		return model.ColumnMap{}, &MappingError{Reason: MappingReason, Missing: missing}
	}

	return m, nil
}

// match returns the left-most header equal to the first variant that appears at all.
func match(variants, headers, normalized []string) (header, variant string, ok bool) {
	for _, variant := range variants {
		for i, n := range normalized {
			if n == variant {
				return headers[i], variant, true
			}
		}
	}
	return "", "", false
}
