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

// OrderRepository implements port.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool    pgPool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewOrderRepository wires a PostgreSQL-backed order repository.
func NewOrderRepository(pool pgPool) *OrderRepository {
	return &OrderRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts an order and its line items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create order tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stmt, args, err := r.builder.
		Insert("restaurant.orders").
		Columns("id", "account_id", "status", "total_cents", "created_at", "updated_at").
		Values(order.ID, order.AccountID, string(order.Status), order.TotalCents, order.CreatedAt, order.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert order sql: %w", err)
	}

	if _, err := tx.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		stmt, args, err := r.builder.
			Insert("restaurant.order_items").
			Columns("order_id", "menu_item_id", "quantity", "unit_price_cents").
			Values(order.ID, item.MenuItemID, item.Quantity, item.UnitPriceCents).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert order item sql: %w", err)
		}

		if _, err := tx.Exec(ctx, stmt, args...); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create order tx: %w", err)
	}

	return nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	stmt, args, err := r.builder.
		Select("order_id", "menu_item_id", "quantity", "unit_price_cents").
		From("restaurant.order_items").
		Where(squirrel.Eq{"order_id": orderID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select order items sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.OrderID, &item.MenuItemID, &item.Quantity, &item.UnitPriceCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

// GetByID retrieves an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	stmt, args, err := r.builder.
		Select("id", "account_id", "status", "total_cents", "created_at", "updated_at").
		From("restaurant.orders").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select order sql: %w", err)
	}

	var (
		order  domain.Order
		status string
	)
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&order.ID,
		&order.AccountID,
		&status,
		&order.TotalCents,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *OrderRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]domain.Order, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list orders sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			order  domain.Order
			status string
		)
		if err := rows.Scan(
			&order.ID,
			&order.AccountID,
			&status,
			&order.TotalCents,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		order.Status = domain.OrderStatus(status)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

func (r *OrderRepository) baseSelect() squirrel.SelectBuilder {
	return r.builder.
		Select("id", "account_id", "status", "total_cents", "created_at", "updated_at").
		From("restaurant.orders").
		OrderBy("created_at DESC", "id DESC")
}

// ListByAccount returns the account's orders, newest first, without items.
func (r *OrderRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.Order, error) {
	query := r.baseSelect().Where(squirrel.Eq{"account_id": accountID})
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	if offset > 0 {
		query = query.Offset(uint64(offset))
	}
	return r.list(ctx, query)
}

// ListAll returns all orders, newest first, without items.
func (r *OrderRepository) ListAll(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	query := r.baseSelect()
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	if offset > 0 {
		query = query.Offset(uint64(offset))
	}
	return r.list(ctx, query)
}

// UpdateStatus replaces the order status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	stmt, args, err := r.builder.
		Update("restaurant.orders").
		Set("status", string(status)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update order status sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// CountByStatus tallies orders grouped by status across all accounts.
func (r *OrderRepository) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	stmt, args, err := r.builder.
		Select("status", "count(*)").
		From("restaurant.orders").
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count orders sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.OrderStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan order count: %w", err)
		}
		counts[domain.OrderStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order counts: %w", err)
	}

	return counts, nil
}

var _ port.OrderRepository = (*OrderRepository)(nil)
