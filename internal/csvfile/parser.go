// Package csvfile parses bank CSV exports into transactions. Banks disagree
// on column order, date layout, and amount sign, so the caller supplies a
// Mapping describing the file at hand.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"tally/internal/common"
	"tally/internal/model"
)

// Mapping describes how a CSV file's columns line up with transaction fields.
type Mapping struct {
	DateFormat        string // Go reference layout
	DateColumn        int
	DescriptionColumn int
	AmountColumn      int
	MerchantColumn    int // negative when the file has no merchant column
	SkipRows          int // header rows to discard
	NegateAmounts     bool
}

// DefaultMapping covers the common date,description,amount layout with a
// single header row and ISO dates.
func DefaultMapping() Mapping {
	return Mapping{
		DateFormat:        "2006-01-02",
		DateColumn:        0,
		DescriptionColumn: 1,
		AmountColumn:      2,
		MerchantColumn:    -1,
		SkipRows:          1,
	}
}

func (m Mapping) withDefaults() Mapping {
	if m.DateFormat == "" {
		m.DateFormat = "2006-01-02"
	}
	return m
}

func (m Mapping) validate() error {
	if m.DateColumn < 0 || m.DescriptionColumn < 0 || m.AmountColumn < 0 {
		return fmt.Errorf("%w: date, description, and amount columns are required", common.ErrInvalidInput)
	}
	return nil
}

// maxColumn reports the highest column index the mapping reads.
func (m Mapping) maxColumn() int {
	highest := m.DateColumn
	for _, col := range []int{m.DescriptionColumn, m.AmountColumn, m.MerchantColumn} {
		if col > highest {
			highest = col
		}
	}
	return highest
}

// Parser reads CSV statement files under a fixed mapping.
type Parser struct {
	mapping Mapping
}

// NewParser creates a CSV parser for the given column mapping.
func NewParser(mapping Mapping) (*Parser, error) {
	mapping = mapping.withDefaults()
	if err := mapping.validate(); err != nil {
		return nil, err
	}
	return &Parser{mapping: mapping}, nil
}

// ParseFile reads the statement, skipping rows that do not parse under the
// mapping. It errors only when the file yields no transactions at all despite
// containing data rows, which usually means the mapping is wrong.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1

	var transactions []model.Transaction
	var row, skipped int
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", row+1, err)
		}
		row++
		if row <= p.mapping.SkipRows {
			continue
		}

		txn, err := p.convertRecord(record)
		if err != nil {
			slog.Warn("skipping unparsable CSV row", "row", row, "error", err)
			skipped++
			continue
		}
		transactions = append(transactions, txn)
	}

	if len(transactions) == 0 && skipped > 0 {
		return nil, fmt.Errorf("%w: no CSV row matched the column mapping", common.ErrInvalidInput)
	}

	slog.Info("parsed CSV statement", "transactions", len(transactions), "skipped", skipped)
	return transactions, nil
}

func (p *Parser) convertRecord(record []string) (model.Transaction, error) {
	if len(record) <= p.mapping.maxColumn() {
		return model.Transaction{}, fmt.Errorf("row has %d columns, mapping needs %d", len(record), p.mapping.maxColumn()+1)
	}

	date, err := time.Parse(p.mapping.DateFormat, strings.TrimSpace(record[p.mapping.DateColumn]))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("unparsable date %q: %w", record[p.mapping.DateColumn], err)
	}

	description := strings.TrimSpace(record[p.mapping.DescriptionColumn])
	if description == "" {
		return model.Transaction{}, fmt.Errorf("empty description")
	}

	amount, err := parseAmount(record[p.mapping.AmountColumn])
	if err != nil {
		return model.Transaction{}, err
	}
	if p.mapping.NegateAmounts {
		amount = -amount
	}

	txn := model.Transaction{
		Date:        date,
		Description: description,
		Amount:      amount,
		RawPayload:  strings.Join(record, ","),
	}
	if p.mapping.MerchantColumn >= 0 {
		txn.Merchant = strings.TrimSpace(record[p.mapping.MerchantColumn])
	}
	return txn, nil
}

var amountCleaner = strings.NewReplacer("$", "", ",", "", " ", "")

// parseAmount handles the formats banks actually emit: currency symbols,
// thousands separators, and accounting-style parentheses for negatives.
func parseAmount(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}

	value, err := strconv.ParseFloat(amountCleaner.Replace(cleaned), 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable amount %q: %w", raw, err)
	}
	if negative {
		value = -value
	}
	return value, nil
}
