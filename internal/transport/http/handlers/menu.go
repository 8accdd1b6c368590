package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/savoria/orderdesk/internal/repository"
	"github.com/savoria/orderdesk/internal/transport/http/middleware"
	"github.com/savoria/orderdesk/internal/usecase"
)

// MenuHandler exposes the menu catalog. Listing is open to any
// authenticated caller; mutation is restricted by route middleware.
type MenuHandler struct {
	menu *usecase.MenuService
}

// NewMenuHandler constructs MenuHandler.
func NewMenuHandler(menu *usecase.MenuService) *MenuHandler {
	return &MenuHandler{menu: menu}
}

// List returns menu items. Pass available=true to hide unavailable ones.
func (h *MenuHandler) List(c *gin.Context) {
	availableOnly := false
	if raw := c.Query("available"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "available must be a boolean"))
			return
		}
		availableOnly = parsed
	}

	items, err := h.menu.List(c.Request.Context(), availableOnly)
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to list menu")
		return
	}

	resp := MenuListResponse{Items: make([]MenuItemPayload, 0, len(items))}
	for i := range items {
		resp.Items = append(resp.Items, newMenuItemPayload(&items[i]))
	}

	c.JSON(http.StatusOK, resp)
}

// Get returns one menu item by ID.
func (h *MenuHandler) Get(c *gin.Context) {
	item, err := h.menu.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "menu item not found"},
		}, http.StatusInternalServerError, "failed to load menu item")
		return
	}

	c.JSON(http.StatusOK, newMenuItemPayload(item))
}

func menuInputFromRequest(req MenuItemRequest) usecase.MenuInput {
	input := usecase.MenuInput{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Available:   true,
	}
	if req.Available != nil {
		input.Available = *req.Available
	}
	return input
}

// Create adds a menu item.
func (h *MenuHandler) Create(c *gin.Context) {
	actorID, _, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid menu item payload"))
		return
	}

	sourceIP, userAgent := requestMeta(c)

	item, err := h.menu.Create(c.Request.Context(), actorID, menuInputFromRequest(req), sourceIP, userAgent)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "invalid menu item"},
		}, http.StatusInternalServerError, "failed to create menu item")
		return
	}

	c.JSON(http.StatusCreated, newMenuItemPayload(item))
}

// Update replaces a menu item's fields.
func (h *MenuHandler) Update(c *gin.Context) {
	actorID, _, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid menu item payload"))
		return
	}

	sourceIP, userAgent := requestMeta(c)

	item, err := h.menu.Update(c.Request.Context(), actorID, c.Param("id"), menuInputFromRequest(req), sourceIP, userAgent)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "menu item not found"},
			{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "invalid menu item"},
		}, http.StatusInternalServerError, "failed to update menu item")
		return
	}

	c.JSON(http.StatusOK, newMenuItemPayload(item))
}

// Delete removes a menu item. Existing orders keep their captured prices.
// The step-up token travels in the X-Reauth-Token header since DELETE
// requests carry no body.
func (h *MenuHandler) Delete(c *gin.Context) {
	actorID, _, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	reauthToken := c.GetHeader("X-Reauth-Token")
	sourceIP, userAgent := requestMeta(c)

	if err := h.menu.Delete(c.Request.Context(), actorID, c.Param("id"), reauthToken, sourceIP, userAgent); err != nil {
		RespondWithMappedError(c, err, append(reauthErrorCases(),
			ErrorCase{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "menu item not found"},
		), http.StatusInternalServerError, "failed to delete menu item")
		return
	}

	c.Status(http.StatusNoContent)
}
