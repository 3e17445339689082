package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/common"
	"tally/internal/model"
)

const liabilityColumns = `id, name, type, original_amount, current_balance,
	interest_rate, monthly_payment, exclude_from_net_worth, created_at, updated_at`

// CreateLiability stores a new tracked debt.
func (s *SQLiteStorage) CreateLiability(ctx context.Context, liability *model.Liability) (*model.Liability, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.createLiabilityTx(ctx, s.db, liability)
}

func (s *SQLiteStorage) createLiabilityTx(ctx context.Context, q queryable, liability *model.Liability) (*model.Liability, error) {
	if err := validateLiability(liability); err != nil {
		return nil, err
	}
	if liability.Type == "" {
		liability.Type = model.LiabilityTypeOther
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO liabilities (
			name, type, original_amount, current_balance,
			interest_rate, monthly_payment, exclude_from_net_worth
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		liability.Name,
		string(liability.Type),
		liability.OriginalAmount,
		liability.CurrentBalance,
		liability.InterestRate,
		liability.MonthlyPayment,
		liability.ExcludeFromNetWorth,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert liability: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get liability ID: %w", err)
	}

	slog.Info("created liability", "name", liability.Name, "id", id)
	return s.getLiabilityByIDTx(ctx, q, id)
}

// GetLiabilities returns all tracked debts sorted by name.
func (s *SQLiteStorage) GetLiabilities(ctx context.Context) ([]model.Liability, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getLiabilitiesTx(ctx, s.db)
}

func (s *SQLiteStorage) getLiabilitiesTx(ctx context.Context, q queryable) ([]model.Liability, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+liabilityColumns+" FROM liabilities ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query liabilities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var liabilities []model.Liability
	for rows.Next() {
		l, err := scanLiabilityFrom(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan liability: %w", err)
		}
		liabilities = append(liabilities, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating liabilities: %w", err)
	}
	return liabilities, nil
}

// GetLiabilityByID retrieves one liability.
func (s *SQLiteStorage) GetLiabilityByID(ctx context.Context, id int64) (*model.Liability, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getLiabilityByIDTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getLiabilityByIDTx(ctx context.Context, q queryable, id int64) (*model.Liability, error) {
	row := q.QueryRowContext(ctx, "SELECT "+liabilityColumns+" FROM liabilities WHERE id = ?", id)
	l, err := scanLiabilityFrom(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("liability %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query liability: %w", err)
	}
	return l, nil
}

// UpdateLiabilityBalance sets the stored balance. Callers pairing this with a
// payment status change must do both through one transaction.
func (s *SQLiteStorage) UpdateLiabilityBalance(ctx context.Context, id int64, balance float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.updateLiabilityBalanceTx(ctx, s.db, id, balance)
}

func (s *SQLiteStorage) updateLiabilityBalanceTx(ctx context.Context, q queryable, id int64, balance float64) error {
	if balance < 0 {
		return fmt.Errorf("%w: balance cannot be negative", ErrInvalidLiability)
	}

	res, err := q.ExecContext(ctx, `
		UPDATE liabilities SET current_balance = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, balance, id)
	if err != nil {
		return fmt.Errorf("failed to update liability balance: %w", err)
	}
	return requireRowAffected(res, id)
}

// CreateLiabilityPaymentRule stores a matcher that recognizes payments toward
// a liability.
func (s *SQLiteStorage) CreateLiabilityPaymentRule(ctx context.Context, rule *model.LiabilityPaymentRule) (*model.LiabilityPaymentRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.createLiabilityPaymentRuleTx(ctx, s.db, rule)
}

func (s *SQLiteStorage) createLiabilityPaymentRuleTx(ctx context.Context, q queryable, rule *model.LiabilityPaymentRule) (*model.LiabilityPaymentRule, error) {
	if err := validateRule(rule); err != nil {
		return nil, err
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO liability_payment_rules (
			liability_id, merchant_match, description_match, account_id,
			description, auto_apply, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rule.LiabilityID,
		rule.MerchantMatch,
		rule.DescriptionMatch,
		nullInt64(rule.AccountID),
		rule.Description,
		rule.AutoApply,
		rule.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment rule: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get rule ID: %w", err)
	}
	return s.getLiabilityPaymentRuleByIDTx(ctx, q, id)
}

// GetLiabilityPaymentRules returns payment rules in stored (insertion)
// order; that order decides which rule wins when several match.
func (s *SQLiteStorage) GetLiabilityPaymentRules(ctx context.Context, activeOnly bool) ([]model.LiabilityPaymentRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getLiabilityPaymentRulesTx(ctx, s.db, activeOnly)
}

func (s *SQLiteStorage) getLiabilityPaymentRulesTx(ctx context.Context, q queryable, activeOnly bool) ([]model.LiabilityPaymentRule, error) {
	query := `SELECT id, liability_id, merchant_match, description_match, account_id,
		description, auto_apply, is_active, created_at FROM liability_payment_rules`
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY id"

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.LiabilityPaymentRule
	for rows.Next() {
		r, err := scanPaymentRuleFrom(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment rule: %w", err)
		}
		rules = append(rules, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rules: %w", err)
	}
	return rules, nil
}

// SetLiabilityPaymentRuleActive toggles a rule without deleting its history.
func (s *SQLiteStorage) SetLiabilityPaymentRuleActive(ctx context.Context, id int64, active bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.setLiabilityPaymentRuleActiveTx(ctx, s.db, id, active)
}

func (s *SQLiteStorage) setLiabilityPaymentRuleActiveTx(ctx context.Context, q queryable, id int64, active bool) error {
	res, err := q.ExecContext(ctx,
		"UPDATE liability_payment_rules SET is_active = ? WHERE id = ?", active, id)
	if err != nil {
		return fmt.Errorf("failed to update payment rule: %w", err)
	}
	return requireRowAffected(res, id)
}

func (s *SQLiteStorage) getLiabilityPaymentRuleByIDTx(ctx context.Context, q queryable, id int64) (*model.LiabilityPaymentRule, error) {
	row := q.QueryRowContext(ctx, `SELECT id, liability_id, merchant_match, description_match,
		account_id, description, auto_apply, is_active, created_at
		FROM liability_payment_rules WHERE id = ?`, id)
	r, err := scanPaymentRuleFrom(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment rule %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read back payment rule: %w", err)
	}
	return r, nil
}

func scanLiabilityFrom(scan func(...any) error) (*model.Liability, error) {
	var l model.Liability
	var liabilityType string
	if err := scan(
		&l.ID,
		&l.Name,
		&liabilityType,
		&l.OriginalAmount,
		&l.CurrentBalance,
		&l.InterestRate,
		&l.MonthlyPayment,
		&l.ExcludeFromNetWorth,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	l.Type = model.LiabilityType(liabilityType)
	return &l, nil
}

func scanPaymentRuleFrom(scan func(...any) error) (*model.LiabilityPaymentRule, error) {
	var r model.LiabilityPaymentRule
	var accountID sql.NullInt64
	if err := scan(
		&r.ID,
		&r.LiabilityID,
		&r.MerchantMatch,
		&r.DescriptionMatch,
		&accountID,
		&r.Description,
		&r.AutoApply,
		&r.IsActive,
		&r.CreatedAt,
	); err != nil {
		return nil, err
	}
	if accountID.Valid {
		r.AccountID = &accountID.Int64
	}
	return &r, nil
}
