package usecase

import (
	"context"
	"fmt"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
)

// DashboardSummary aggregates the numbers shown on the staff dashboard.
type DashboardSummary struct {
	OrdersByStatus map[domain.OrderStatus]int
	OpenOrders     int
	MenuItems      int
	AvailableItems int
}

// DashboardService computes operational summaries for staff roles.
type DashboardService struct {
	orders port.OrderRepository
	menu   port.MenuRepository
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(orders port.OrderRepository, menu port.MenuRepository) *DashboardService {
	return &DashboardService{orders: orders, menu: menu}
}

// Summary returns current order volume by status and menu availability.
// Pending, preparing and ready orders count as open.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	counts, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	items, err := s.menu.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}

	summary := &DashboardSummary{
		OrdersByStatus: counts,
		MenuItems:      len(items),
	}
	for _, item := range items {
		if item.Available {
			summary.AvailableItems++
		}
	}
	for _, status := range []domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusPreparing, domain.OrderStatusReady} {
		summary.OpenOrders += counts[status]
	}

	return summary, nil
}
