package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
	"github.com/savoria/orderdesk/internal/repository"
)

const (
	actionOrderPlace  = "order.place"
	actionOrderStatus = "order.status_change"
)

// OrderLine is one requested item in a new order.
type OrderLine struct {
	MenuItemID string
	Quantity   int
}

// OrderService places orders and drives their status lifecycle.
type OrderService struct {
	orders port.OrderRepository
	menu   port.MenuRepository
	audit  *AuditService
	logger *zap.Logger

	now func() time.Time
}

// NewOrderService constructs an OrderService.
func NewOrderService(orders port.OrderRepository, menu port.MenuRepository, audit *AuditService, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders: orders,
		menu:   menu,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// Place creates a pending order. Prices are captured from the menu at
// placement time; unavailable items are rejected.
func (s *OrderService) Place(ctx context.Context, accountID string, lines []OrderLine, sourceIP, userAgent string) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one item", ErrInvalidInput)
	}

	now := s.now().UTC()
	order := domain.Order{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
		}

		item, err := s.menu.GetByID(ctx, line.MenuItemID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: menu item %s not found", ErrInvalidInput, line.MenuItemID)
			}
			return nil, fmt.Errorf("get menu item: %w", err)
		}
		if !item.Available {
			return nil, fmt.Errorf("%w: menu item %q is not available", ErrInvalidInput, item.Name)
		}

		order.Items = append(order.Items, domain.OrderItem{
			OrderID:        order.ID,
			MenuItemID:     item.ID,
			Quantity:       line.Quantity,
			UnitPriceCents: item.PriceCents,
		})
		order.TotalCents += item.PriceCents * int64(line.Quantity)
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:   accountID,
		Action:    actionOrderPlace,
		Outcome:   domain.AuditSuccess,
		SourceIP:  sourceIP,
		UserAgent: userAgent,
	})

	return &order, nil
}

// Get returns one order. Customers may only see their own; staff see all.
func (s *OrderService) Get(ctx context.Context, actorID string, role domain.Role, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	if role == domain.RoleCustomer && order.AccountID != actorID {
		return nil, repository.ErrNotFound
	}

	return order, nil
}

// ListOwn returns the actor's orders.
func (s *OrderService) ListOwn(ctx context.Context, accountID string, limit, offset int) ([]domain.Order, error) {
	orders, err := s.orders.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list own orders: %w", err)
	}
	return orders, nil
}

// ListAll returns every order, for staff.
func (s *OrderService) ListAll(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	orders, err := s.orders.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ChangeStatus advances an order along its lifecycle. Moves outside the
// transition table are refused.
func (s *OrderService) ChangeStatus(ctx context.Context, actorID, orderID string, next domain.OrderStatus, sourceIP, userAgent string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	if !order.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, next)
	}

	if err := s.orders.UpdateStatus(ctx, orderID, next); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = next
	order.UpdatedAt = s.now().UTC()

	s.audit.Record(ctx, AuditEntry{
		ActorID:   actorID,
		Action:    actionOrderStatus,
		Outcome:   domain.AuditSuccess,
		SourceIP:  sourceIP,
		UserAgent: userAgent,
	})

	return order, nil
}
