package port

import (
	"context"

	"github.com/savoria/orderdesk/internal/core/domain"
)

// MenuRepository exposes persistence behavior for menu items.
type MenuRepository interface {
	Create(ctx context.Context, item domain.MenuItem) error
	GetByID(ctx context.Context, id string) (*domain.MenuItem, error)
	List(ctx context.Context, availableOnly bool) ([]domain.MenuItem, error)
	Update(ctx context.Context, item domain.MenuItem) error
	Delete(ctx context.Context, id string) error
}

// OrderRepository exposes persistence behavior for orders and their items.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.Order, error)
	ListAll(ctx context.Context, limit, offset int) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
}
