package model

import "time"

// StatementFormat identifies the source file format of an import.
type StatementFormat string

const (
	// FormatOFX covers OFX and QFX statement files.
	FormatOFX StatementFormat = "ofx"
	// FormatCSV covers delimited exports.
	FormatCSV StatementFormat = "csv"
)

// StatementImport records one statement file ingestion.
type StatementImport struct {
	CreatedAt  time.Time
	DateFrom   time.Time
	DateTo     time.Time
	FileName   string
	Format     StatementFormat
	ID         int64
	AccountID  *int64
	Imported   int
	Duplicates int
}

// ImportSummary reports what an import run did.
type ImportSummary struct {
	Imported   int // rows persisted
	Duplicates int // rows suppressed by the duplicate guard
	Linked     int // liability payments created from matched rules or proposals
	Classified int // rows that received a category with confidence > 0
}
