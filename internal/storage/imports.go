package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"tally/internal/model"
)

const importColumns = `id, file_name, format, account_id, imported, duplicates,
	date_from, date_to, created_at`

// RecordStatementImport appends one row to the import history.
func (s *SQLiteStorage) RecordStatementImport(ctx context.Context, imp *model.StatementImport) (*model.StatementImport, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.recordStatementImportTx(ctx, s.db, imp)
}

func (s *SQLiteStorage) recordStatementImportTx(ctx context.Context, q queryable, imp *model.StatementImport) (*model.StatementImport, error) {
	if imp == nil {
		return nil, fmt.Errorf("%w: import", ErrNilParameter)
	}
	if err := validateString(imp.FileName, "fileName"); err != nil {
		return nil, err
	}

	var dateFrom, dateTo any
	if !imp.DateFrom.IsZero() {
		dateFrom = imp.DateFrom
	}
	if !imp.DateTo.IsZero() {
		dateTo = imp.DateTo
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO statement_imports (file_name, format, account_id, imported, duplicates, date_from, date_to)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		imp.FileName,
		string(imp.Format),
		nullInt64(imp.AccountID),
		imp.Imported,
		imp.Duplicates,
		dateFrom,
		dateTo,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record statement import: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get import ID: %w", err)
	}

	slog.Debug("recorded statement import",
		"id", id,
		"file", imp.FileName,
		"format", imp.Format,
		"imported", imp.Imported,
		"duplicates", imp.Duplicates)

	row := q.QueryRowContext(ctx, "SELECT "+importColumns+" FROM statement_imports WHERE id = ?", id)
	saved, err := scanImportFrom(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to read back statement import: %w", err)
	}
	return saved, nil
}

// GetStatementImports returns recent imports, newest first. limit 0 means no
// limit.
func (s *SQLiteStorage) GetStatementImports(ctx context.Context, limit int) ([]model.StatementImport, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getStatementImportsTx(ctx, s.db, limit)
}

func (s *SQLiteStorage) getStatementImportsTx(ctx context.Context, q queryable, limit int) ([]model.StatementImport, error) {
	query := "SELECT " + importColumns + " FROM statement_imports ORDER BY created_at DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query statement imports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var imports []model.StatementImport
	for rows.Next() {
		imp, err := scanImportFrom(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan statement import: %w", err)
		}
		imports = append(imports, *imp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statement imports: %w", err)
	}
	return imports, nil
}

func scanImportFrom(scan func(...any) error) (*model.StatementImport, error) {
	var (
		imp       model.StatementImport
		format    string
		accountID sql.NullInt64
		dateFrom  sql.NullTime
		dateTo    sql.NullTime
	)

	if err := scan(
		&imp.ID,
		&imp.FileName,
		&format,
		&accountID,
		&imp.Imported,
		&imp.Duplicates,
		&dateFrom,
		&dateTo,
		&imp.CreatedAt,
	); err != nil {
		return nil, err
	}

	imp.Format = model.StatementFormat(format)
	if accountID.Valid {
		imp.AccountID = &accountID.Int64
	}
	if dateFrom.Valid {
		imp.DateFrom = dateFrom.Time
	}
	if dateTo.Valid {
		imp.DateTo = dateTo.Time
	}
	return &imp, nil
}
