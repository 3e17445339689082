package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tally/internal/model"
)

const preferenceColumns = "id, instruction, source, created_at, updated_at"

// AddUserPreference stores a new classification preference.
func (s *SQLiteStorage) AddUserPreference(ctx context.Context, instruction string, source model.PreferenceSource) (*model.UserPreference, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.addUserPreferenceTx(ctx, s.db, instruction, source)
}

func (s *SQLiteStorage) addUserPreferenceTx(ctx context.Context, q queryable, instruction string, source model.PreferenceSource) (*model.UserPreference, error) {
	if err := validateString(instruction, "instruction"); err != nil {
		return nil, err
	}
	if source == "" {
		source = model.PreferenceSourceUser
	}

	res, err := q.ExecContext(ctx,
		"INSERT INTO user_preferences (instruction, source) VALUES (?, ?)",
		strings.TrimSpace(instruction), string(source))
	if err != nil {
		return nil, fmt.Errorf("failed to insert preference: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get preference ID: %w", err)
	}
	return s.getUserPreferenceByIDTx(ctx, q, id)
}

// GetUserPreferences returns all preferences, most recently updated first.
// That ordering is the precedence order injected into classification
// prompts.
func (s *SQLiteStorage) GetUserPreferences(ctx context.Context) ([]model.UserPreference, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getUserPreferencesTx(ctx, s.db)
}

func (s *SQLiteStorage) getUserPreferencesTx(ctx context.Context, q queryable) ([]model.UserPreference, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+preferenceColumns+" FROM user_preferences ORDER BY updated_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var prefs []model.UserPreference
	for rows.Next() {
		var p model.UserPreference
		var source string
		if err := rows.Scan(&p.ID, &p.Instruction, &source, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		p.Source = model.PreferenceSource(source)
		prefs = append(prefs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preferences: %w", err)
	}
	return prefs, nil
}

// UpsertPreferenceForMerchant replaces the preference keyed by the merchant's
// quoted prefix, or inserts a new one. The update bumps updated_at so the
// refreshed rule sorts to the front of future prompts instead of
// accumulating a duplicate, possibly-conflicting directive.
func (s *SQLiteStorage) UpsertPreferenceForMerchant(ctx context.Context, merchant, instruction string, source model.PreferenceSource) (*model.UserPreference, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.upsertPreferenceForMerchantTx(ctx, s.db, merchant, instruction, source)
}

func (s *SQLiteStorage) upsertPreferenceForMerchantTx(ctx context.Context, q queryable, merchant, instruction string, source model.PreferenceSource) (*model.UserPreference, error) {
	if err := validateString(merchant, "merchant"); err != nil {
		return nil, err
	}
	if err := validateString(instruction, "instruction"); err != nil {
		return nil, err
	}
	if source == "" {
		source = model.PreferenceSourceLearned
	}

	prefix := model.MerchantPreferencePrefix(merchant)
	pattern := escapeLike(prefix) + "%"

	var id int64
	err := q.QueryRowContext(ctx, `
		SELECT id FROM user_preferences
		WHERE UPPER(instruction) LIKE ? ESCAPE '\'
		ORDER BY updated_at DESC, id DESC
		LIMIT 1
	`, pattern).Scan(&id)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.addUserPreferenceTx(ctx, q, instruction, source)
	case err != nil:
		return nil, fmt.Errorf("failed to search preferences: %w", err)
	}

	if _, err := q.ExecContext(ctx, `
		UPDATE user_preferences
		SET instruction = ?, source = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, strings.TrimSpace(instruction), string(source), id); err != nil {
		return nil, fmt.Errorf("failed to update preference: %w", err)
	}

	slog.Debug("refreshed merchant preference", "merchant", merchant, "id", id)
	return s.getUserPreferenceByIDTx(ctx, q, id)
}

// DeleteUserPreference removes a preference.
func (s *SQLiteStorage) DeleteUserPreference(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.deleteUserPreferenceTx(ctx, s.db, id)
}

func (s *SQLiteStorage) deleteUserPreferenceTx(ctx context.Context, q queryable, id int64) error {
	res, err := q.ExecContext(ctx, "DELETE FROM user_preferences WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete preference: %w", err)
	}
	return requireRowAffected(res, id)
}

func (s *SQLiteStorage) getUserPreferenceByIDTx(ctx context.Context, q queryable, id int64) (*model.UserPreference, error) {
	var p model.UserPreference
	var source string
	err := q.QueryRowContext(ctx,
		"SELECT "+preferenceColumns+" FROM user_preferences WHERE id = ?", id).
		Scan(&p.ID, &p.Instruction, &source, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read back preference: %w", err)
	}
	p.Source = model.PreferenceSource(source)
	return &p, nil
}

// escapeLike escapes LIKE wildcards so merchant text is matched literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
