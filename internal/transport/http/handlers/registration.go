package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/savoria/orderdesk/internal/transport/http/middleware"
	"github.com/savoria/orderdesk/internal/usecase"
)

// RegistrationHandler exposes the public account signup endpoint.
type RegistrationHandler struct {
	registration *usecase.RegistrationService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registration *usecase.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registration: registration}
}

// Register creates a customer account from the supplied credentials.
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	input := usecase.RegisterInput{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	}
	if reqCtx := middleware.GetRequestContext(c); reqCtx != nil {
		input.SourceIP = reqCtx.IP
		input.UserAgent = reqCtx.UserAgent
	}

	account, err := h.registration.Register(c.Request.Context(), input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUsernameTaken, Status: http.StatusConflict, Message: "username already registered"},
			{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "invalid username or email"},
		}, http.StatusInternalServerError, "failed to register account")
		return
	}

	c.JSON(http.StatusCreated, RegistrationResponse{Account: newAccountSummary(account)})
}
