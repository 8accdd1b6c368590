package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
	"github.com/savoria/orderdesk/internal/repository"
	"github.com/savoria/orderdesk/internal/transport/http/middleware"
	"github.com/savoria/orderdesk/internal/usecase"
)

// UserHandler exposes administrator-only account management endpoints.
type UserHandler struct {
	users *usecase.UserService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *usecase.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List returns accounts filtered by role and active flag. Supported query
// parameters: role, active, limit, offset.
func (h *UserHandler) List(c *gin.Context) {
	filter := port.AccountFilter{Limit: 50}

	if role := c.Query("role"); role != "" {
		if !domain.Role(role).Valid() {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown role filter"))
			return
		}
		filter.Role = domain.Role(role)
	}

	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "active must be a boolean"))
			return
		}
		filter.IsActive = &active
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "limit must be a positive integer"))
			return
		}
		filter.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "offset must be a non-negative integer"))
			return
		}
		filter.Offset = offset
	}

	accounts, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to list accounts")
		return
	}

	resp := AccountListResponse{Accounts: make([]AccountSummary, 0, len(accounts))}
	for i := range accounts {
		resp.Accounts = append(resp.Accounts, newAccountSummary(&accounts[i]))
	}

	c.JSON(http.StatusOK, resp)
}

// Get returns one account by ID.
func (h *UserHandler) Get(c *gin.Context) {
	account, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "failed to load account")
		return
	}

	c.JSON(http.StatusOK, newAccountSummary(account))
}

// ChangeRole assigns a new role to the target account. Requires a fresh
// step-up token from the acting administrator.
func (h *UserHandler) ChangeRole(c *gin.Context) {
	actorID, _, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req RoleChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid role change payload"))
		return
	}

	var sourceIP, userAgent string
	if reqCtx := middleware.GetRequestContext(c); reqCtx != nil {
		sourceIP = reqCtx.IP
		userAgent = reqCtx.UserAgent
	}

	err := h.users.ChangeRole(c.Request.Context(), actorID, c.Param("id"), domain.Role(req.Role), req.ReauthToken, sourceIP, userAgent)
	if err != nil {
		cases := append(reauthErrorCases(),
			ErrorCase{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "account not found"},
			ErrorCase{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "unknown role"},
			ErrorCase{Err: usecase.ErrLastAdministrator, Status: http.StatusConflict, Message: "cannot demote the last administrator"},
			ErrorCase{Err: usecase.ErrAuditUnavailable, Status: http.StatusServiceUnavailable, Message: "audit log unavailable"},
		)
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to change role")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "role updated"})
}

// SetActive activates or deactivates the target account.
func (h *UserHandler) SetActive(c *gin.Context) {
	actorID, _, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ActiveChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid activation payload"))
		return
	}

	var sourceIP, userAgent string
	if reqCtx := middleware.GetRequestContext(c); reqCtx != nil {
		sourceIP = reqCtx.IP
		userAgent = reqCtx.UserAgent
	}

	err := h.users.SetActive(c.Request.Context(), actorID, c.Param("id"), *req.Active, sourceIP, userAgent)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "account not found"},
			{Err: usecase.ErrLastAdministrator, Status: http.StatusConflict, Message: "cannot deactivate the last administrator"},
			{Err: usecase.ErrAuditUnavailable, Status: http.StatusServiceUnavailable, Message: "audit log unavailable"},
		}, http.StatusInternalServerError, "failed to update account")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "account updated"})
}
