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

// GetCategories returns all categories sorted by name. Classification
// validates against this set on every run; callers must not cache it across
// runs.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getCategoriesTx(ctx, s.db)
}

func (s *SQLiteStorage) getCategoriesTx(ctx context.Context, q queryable) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, name, color, icon, created_at FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Color, &cat.Icon, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategoryByName returns a category by its exact name.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getCategoryByNameTx(ctx, s.db, name)
}

func (s *SQLiteStorage) getCategoryByNameTx(ctx context.Context, q queryable, name string) (*model.Category, error) {
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	var cat model.Category
	err := q.QueryRowContext(ctx,
		"SELECT id, name, color, icon, created_at FROM categories WHERE name = ?", name).
		Scan(&cat.ID, &cat.Name, &cat.Color, &cat.Icon, &cat.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &cat, nil
}

// CreateCategory adds a category to the configured set. Creating an existing
// name returns the stored row unchanged.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name, color, icon string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.createCategoryTx(ctx, s.db, name, color, icon)
}

func (s *SQLiteStorage) createCategoryTx(ctx context.Context, q queryable, name, color, icon string) (*model.Category, error) {
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	existing, err := s.getCategoryByNameTx(ctx, q, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	if _, err := q.ExecContext(ctx,
		"INSERT INTO categories (name, color, icon) VALUES (?, ?, ?)", name, color, icon); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("category %q: %w", name, common.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	slog.Info("created category", "name", name)
	return s.getCategoryByNameTx(ctx, q, name)
}
