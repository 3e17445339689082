package csvfile

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/common"
)

func TestParseFile_DefaultMapping(t *testing.T) {
	data := `Date,Description,Amount
2024-01-15,STARBUCKS STORE #1234,-25.50
2024-01-18,TRADER JOES #552,-84.19
2024-01-31,ACME CORP PAYROLL,2500.00
`
	parser, err := NewParser(DefaultMapping())
	require.NoError(t, err)

	transactions, err := parser.ParseFile(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, transactions, 3)

	coffee := transactions[0]
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), coffee.Date)
	assert.Equal(t, "STARBUCKS STORE #1234", coffee.Description)
	assert.Equal(t, -25.50, coffee.Amount)
	assert.Empty(t, coffee.ID, "ids are minted at import, not parse")
	assert.Empty(t, coffee.Merchant)

	assert.Equal(t, 2500.00, transactions[2].Amount, "credits stay positive")
}

func TestParseFile_CustomMapping(t *testing.T) {
	// Card exports often put the merchant in its own column, use US dates,
	// and report charges as positive numbers.
	data := `Posted,Payee,Details,Charge
01/15/2024,Netflix,NETFLIX.COM 866-579-7172,15.49
01/20/2024,Whole Foods,WHOLEFDS MKT 10372,125.00
`
	parser, err := NewParser(Mapping{
		DateFormat:        "01/02/2006",
		DateColumn:        0,
		DescriptionColumn: 2,
		AmountColumn:      3,
		MerchantColumn:    1,
		SkipRows:          1,
		NegateAmounts:     true,
	})
	require.NoError(t, err)

	transactions, err := parser.ParseFile(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	netflix := transactions[0]
	assert.Equal(t, "Netflix", netflix.Merchant)
	assert.Equal(t, "NETFLIX.COM 866-579-7172", netflix.Description)
	assert.Equal(t, -15.49, netflix.Amount, "negate turns positive charges into expenses")
	assert.Equal(t, time.January, netflix.Date.Month())
	assert.Equal(t, 15, netflix.Date.Day())
}

func TestParseFile_SkipsBadRows(t *testing.T) {
	data := `Date,Description,Amount
2024-01-15,STARBUCKS,-25.50
not-a-date,MYSTERY,-1.00
2024-01-16,short row
2024-01-17,,-10.00
2024-01-18,SPOTIFY,-10.99
`
	parser, err := NewParser(DefaultMapping())
	require.NoError(t, err)

	transactions, err := parser.ParseFile(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, transactions, 2, "unparsable rows are skipped, not fatal")
	assert.Equal(t, "STARBUCKS", transactions[0].Description)
	assert.Equal(t, "SPOTIFY", transactions[1].Description)
}

func TestParseFile_WrongMappingErrors(t *testing.T) {
	// Every data row fails to parse, which means the mapping does not fit.
	data := `Date,Description,Amount
STARBUCKS,-25.50,2024-01-15
SPOTIFY,-10.99,2024-01-18
`
	parser, err := NewParser(DefaultMapping())
	require.NoError(t, err)

	_, err = parser.ParseFile(context.Background(), strings.NewReader(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestParseFile_HeaderOnly(t *testing.T) {
	parser, err := NewParser(DefaultMapping())
	require.NoError(t, err)

	transactions, err := parser.ParseFile(context.Background(), strings.NewReader("Date,Description,Amount\n"))
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestNewParser_RejectsNegativeRequiredColumns(t *testing.T) {
	_, err := NewParser(Mapping{DateColumn: -1, DescriptionColumn: 1, AmountColumn: 2})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		wantErr  bool
	}{
		{name: "plain", input: "-25.50", expected: -25.50},
		{name: "currency symbol and separators", input: "$1,234.56", expected: 1234.56},
		{name: "accounting negative", input: "(45.99)", expected: -45.99},
		{name: "currency inside parentheses", input: "($45.99)", expected: -45.99},
		{name: "padded", input: "  12.00  ", expected: 12},
		{name: "not a number", input: "N/A", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := parseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}
}
