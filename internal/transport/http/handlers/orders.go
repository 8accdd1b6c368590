package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/repository"
	"github.com/savoria/orderdesk/internal/transport/http/middleware"
	"github.com/savoria/orderdesk/internal/usecase"
)

// OrderHandler exposes order placement and tracking. Customers see only
// their own orders; staff roles see and advance every order.
type OrderHandler struct {
	orders *usecase.OrderService
	authz  *usecase.Authorizer
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *usecase.OrderService, authz *usecase.Authorizer) *OrderHandler {
	return &OrderHandler{orders: orders, authz: authz}
}

func pagination(c *gin.Context) (int, int, bool) {
	limit, offset := 50, 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "limit must be a positive integer"))
			return 0, 0, false
		}
		limit = parsed
	}
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "offset must be a non-negative integer"))
			return 0, 0, false
		}
		offset = parsed
	}
	return limit, offset, true
}

// Place creates a new pending order from the requested menu lines.
func (h *OrderHandler) Place(c *gin.Context) {
	accountID, _, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req OrderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid order payload"))
		return
	}

	lines := make([]usecase.OrderLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, usecase.OrderLine{MenuItemID: line.MenuItemID, Quantity: line.Quantity})
	}

	sourceIP, userAgent := requestMeta(c)

	order, err := h.orders.Place(c.Request.Context(), accountID, lines, sourceIP, userAgent)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "order could not be placed as requested"},
		}, http.StatusInternalServerError, "failed to place order")
		return
	}

	c.JSON(http.StatusCreated, newOrderPayload(order))
}

// List returns the caller's own orders, or every order when the caller's
// role can manage orders.
func (h *OrderHandler) List(c *gin.Context) {
	accountID, role, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	limit, offset, ok := pagination(c)
	if !ok {
		return
	}

	var (
		orders []domain.Order
		err    error
	)
	if h.authz.Allowed(role, usecase.ResourceOrders, usecase.ActionManage) {
		orders, err = h.orders.ListAll(c.Request.Context(), limit, offset)
	} else {
		orders, err = h.orders.ListOwn(c.Request.Context(), accountID, limit, offset)
	}
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to list orders")
		return
	}

	resp := OrderListResponse{Orders: make([]OrderPayload, 0, len(orders))}
	for i := range orders {
		resp.Orders = append(resp.Orders, newOrderPayload(&orders[i]))
	}

	c.JSON(http.StatusOK, resp)
}

// Get returns one order. A customer asking for someone else's order gets
// the same 404 as for an order that does not exist.
func (h *OrderHandler) Get(c *gin.Context) {
	accountID, role, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	order, err := h.orders.Get(c.Request.Context(), accountID, role, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "order not found"},
		}, http.StatusInternalServerError, "failed to load order")
		return
	}

	c.JSON(http.StatusOK, newOrderPayload(order))
}

// ChangeStatus advances an order along the allowed status transitions.
func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	actorID, _, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid status payload"))
		return
	}

	sourceIP, userAgent := requestMeta(c)

	order, err := h.orders.ChangeStatus(c.Request.Context(), actorID, c.Param("id"), domain.OrderStatus(req.Status), sourceIP, userAgent)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "order not found"},
			{Err: usecase.ErrInvalidTransition, Status: http.StatusConflict, Message: "status transition not allowed"},
		}, http.StatusInternalServerError, "failed to update order status")
		return
	}

	c.JSON(http.StatusOK, newOrderPayload(order))
}
