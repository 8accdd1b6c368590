package usecase

import (
	"context"
	"testing"

	"github.com/savoria/orderdesk/internal/core/domain"
)

func TestDashboardService_Summary(t *testing.T) {
	orders := newTestOrderRepo()
	menu := newTestMenuRepo()
	svc := NewDashboardService(orders, menu)

	orders.orders["o-1"] = domain.Order{ID: "o-1", Status: domain.OrderStatusPending}
	orders.orders["o-2"] = domain.Order{ID: "o-2", Status: domain.OrderStatusPending}
	orders.orders["o-3"] = domain.Order{ID: "o-3", Status: domain.OrderStatusPreparing}
	orders.orders["o-4"] = domain.Order{ID: "o-4", Status: domain.OrderStatusReady}
	orders.orders["o-5"] = domain.Order{ID: "o-5", Status: domain.OrderStatusCompleted}
	orders.orders["o-6"] = domain.Order{ID: "o-6", Status: domain.OrderStatusCancelled}

	menu.items["m-1"] = domain.MenuItem{ID: "m-1", Available: true}
	menu.items["m-2"] = domain.MenuItem{ID: "m-2", Available: false}
	menu.items["m-3"] = domain.MenuItem{ID: "m-3", Available: true}

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if summary.OrdersByStatus[domain.OrderStatusPending] != 2 {
		t.Fatalf("expected 2 pending, got %d", summary.OrdersByStatus[domain.OrderStatusPending])
	}
	if summary.OpenOrders != 4 {
		t.Fatalf("expected 4 open orders, got %d", summary.OpenOrders)
	}
	if summary.MenuItems != 3 {
		t.Fatalf("expected 3 menu items, got %d", summary.MenuItems)
	}
	if summary.AvailableItems != 2 {
		t.Fatalf("expected 2 available items, got %d", summary.AvailableItems)
	}
}

func TestDashboardService_EmptySystem(t *testing.T) {
	svc := NewDashboardService(newTestOrderRepo(), newTestMenuRepo())

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.OpenOrders != 0 || summary.MenuItems != 0 {
		t.Fatalf("expected zeroed summary, got %+v", summary)
	}
}
