package columns

import (
	"errors"
	"testing"

	"github.com/Veraticus/rfm-segments/internal/common"
	"github.com/Veraticus/rfm-segments/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		want    model.ColumnMap
		name    string
		headers []string
	}{
		{
			name:    "retail export with region",
			headers: []string{"Order Date", "Customer ID", "Total Amount", "Region"},
			want: model.ColumnMap{
				CustomerID: "Customer ID",
				Date:       "Order Date",
				Amount:     "Total Amount",
				Location:   &model.LocationColumn{Name: "Region", Type: "region"},
			},
		},
		{
			name:    "no location column",
			headers: []string{"customer_id", "date", "amount"},
			want: model.ColumnMap{
				CustomerID: "customer_id",
				Date:       "date",
				Amount:     "amount",
			},
		},
		{
			name:    "byte order mark and padding are ignored",
			headers: []string{"\ufeffCustomerID", "  InvoiceDate ", "Revenue"},
			want: model.ColumnMap{
				CustomerID: "\ufeffCustomerID",
				Date:       "  InvoiceDate ",
				Amount:     "Revenue",
			},
		},
		{
			name:    "variant order beats header order for amount",
			headers: []string{"Customer", "Date", "Price", "Total", "Sales"},
			want: model.ColumnMap{
				CustomerID: "Customer",
				Date:       "Date",
				Amount:     "Sales",
			},
		},
		{
			name:    "variant order beats header order for customer",
			headers: []string{"customer", "user id", "purchase_date", "amount_spent"},
			want: model.ColumnMap{
				CustomerID: "user id",
				Date:       "purchase_date",
				Amount:     "amount_spent",
			},
		},
		{
			name:    "first location variant wins",
			headers: []string{"City", "Customer ID", "Date", "Amount", "State"},
			want: model.ColumnMap{
				CustomerID: "Customer ID",
				Date:       "Date",
				Amount:     "Amount",
				Location:   &model.LocationColumn{Name: "State", Type: "state"},
			},
		},
		{
			name:    "duplicate headers resolve to the left-most",
			headers: []string{"Amount", "Customer ID", "Date", "AMOUNT"},
			want: model.ColumnMap{
				CustomerID: "Customer ID",
				Date:       "Date",
				Amount:     "Amount",
			},
		},
		{
			name:    "multi word store name",
			headers: []string{"Customer ID", "Date", "Amount", "Store Name"},
			want: model.ColumnMap{
				CustomerID: "Customer ID",
				Date:       "Date",
				Amount:     "Amount",
				Location:   &model.LocationColumn{Name: "Store Name", Type: "store name"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.headers)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		missing []Role
	}{
		{
			name:    "no amount",
			headers: []string{"Customer ID", "Order Date", "Region"},
			missing: []Role{RoleAmount},
		},
		{
			name:    "nothing recognised",
			headers: []string{"foo", "bar"},
			missing: []Role{RoleCustomerID, RoleDate, RoleAmount},
		},
		{
			name:    "no headers",
			headers: nil,
			missing: []Role{RoleCustomerID, RoleDate, RoleAmount},
		},
		{
			name:    "fuzzy spellings are not accepted",
			headers: []string{"Customer Identifier", "Date", "Amount"},
			missing: []Role{RoleCustomerID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.headers)
			require.Error(t, err)
			assert.Equal(t, model.ColumnMap{}, got)
			assert.True(t, errors.Is(err, common.ErrColumnMappingFailed))

			var mappingErr *MappingError
			require.True(t, errors.As(err, &mappingErr))
			assert.Equal(t, tt.missing, mappingErr.Missing)
			assert.Equal(t, MappingReason, mappingErr.Reason)
		})
	}
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "customer id", NormalizeHeader("\ufeffCustomer ID"))
	assert.Equal(t, "total amount", NormalizeHeader("  TOTAL AMOUNT\t"))
	assert.Equal(t, "", NormalizeHeader("   "))
}

func TestDetectWith_CustomTable(t *testing.T) {
	table := []Variants{
		{Role: RoleCustomerID, Names: []string{"client"}},
		{Role: RoleDate, Names: []string{"when"}},
		{Role: RoleAmount, Names: []string{"eur"}},
	}

	got, err := DetectWith(table, []string{"EUR", "When", "Client"})
	require.NoError(t, err)
	assert.Equal(t, model.ColumnMap{CustomerID: "Client", Date: "When", Amount: "EUR"}, got)
}
