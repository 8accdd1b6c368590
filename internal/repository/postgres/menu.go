package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
	"github.com/savoria/orderdesk/internal/repository"
)

// MenuRepository implements port.MenuRepository using PostgreSQL.
type MenuRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewMenuRepository wires a PostgreSQL-backed menu repository.
func NewMenuRepository(exec pgExecutor) *MenuRepository {
	return &MenuRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new menu item.
func (r *MenuRepository) Create(ctx context.Context, item domain.MenuItem) error {
	stmt, args, err := r.builder.
		Insert("restaurant.menu_items").
		Columns("id", "name", "description", "price_cents", "available", "created_at", "updated_at").
		Values(item.ID, item.Name, item.Description, item.PriceCents, item.Available, item.CreatedAt, item.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert menu item sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert menu item: %w", err)
	}

	return nil
}

// GetByID retrieves a menu item by identifier.
func (r *MenuRepository) GetByID(ctx context.Context, id string) (*domain.MenuItem, error) {
	stmt, args, err := r.builder.
		Select("id", "name", "description", "price_cents", "available", "created_at", "updated_at").
		From("restaurant.menu_items").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select menu item sql: %w", err)
	}

	var item domain.MenuItem
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.PriceCents,
		&item.Available,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan menu item: %w", err)
	}

	return &item, nil
}

// List returns menu items, optionally restricted to available ones.
func (r *MenuRepository) List(ctx context.Context, availableOnly bool) ([]domain.MenuItem, error) {
	query := r.builder.
		Select("id", "name", "description", "price_cents", "available", "created_at", "updated_at").
		From("restaurant.menu_items").
		OrderBy("name ASC")

	if availableOnly {
		query = query.Where(squirrel.Eq{"available": true})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list menu items sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.MenuItem, 0)
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Description,
			&item.PriceCents,
			&item.Available,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu items: %w", err)
	}

	return items, nil
}

// Update replaces the mutable fields of a menu item.
func (r *MenuRepository) Update(ctx context.Context, item domain.MenuItem) error {
	stmt, args, err := r.builder.
		Update("restaurant.menu_items").
		Set("name", item.Name).
		Set("description", item.Description).
		Set("price_cents", item.PriceCents).
		Set("available", item.Available).
		Set("updated_at", item.UpdatedAt).
		Where(squirrel.Eq{"id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update menu item sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a menu item.
func (r *MenuRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.
		Delete("restaurant.menu_items").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete menu item sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.MenuRepository = (*MenuRepository)(nil)
