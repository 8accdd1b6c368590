package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/savoria/orderdesk/internal/usecase"
)

// DashboardHandler exposes the staff dashboard summary endpoint.
type DashboardHandler struct {
	dashboard *usecase.DashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *usecase.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary returns current order volume and menu availability.
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to build dashboard summary")
		return
	}

	byStatus := make(map[string]int, len(summary.OrdersByStatus))
	for status, count := range summary.OrdersByStatus {
		byStatus[string(status)] = count
	}

	c.JSON(http.StatusOK, DashboardResponse{
		OrdersByStatus: byStatus,
		OpenOrders:     summary.OpenOrders,
		MenuItems:      summary.MenuItems,
		AvailableItems: summary.AvailableItems,
	})
}
