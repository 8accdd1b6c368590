package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/savoria/orderdesk/internal/transport/http/middleware"
	"github.com/savoria/orderdesk/internal/usecase"
)

// AuthHandler exposes login and logout endpoints.
type AuthHandler struct {
	auth *usecase.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login authenticates a username and password pair and issues a session
// token. Every failure mode returns the same 401 body so the response
// reveals nothing about why the attempt was rejected.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	reqCtx := middleware.GetRequestContext(c)

	input := usecase.LoginInput{
		Username: req.Username,
		Password: req.Password,
	}
	if reqCtx != nil {
		input.SourceIP = reqCtx.IP
		input.UserAgent = reqCtx.UserAgent
	}

	result, err := h.auth.Login(c.Request.Context(), input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     result.Token,
		TokenType: "Bearer",
		ExpiresAt: result.ExpiresAt,
		Account:   newAccountSummary(&result.Account),
		LastUse: LastUsePayload{
			LastSuccessAt: result.LastUse.LastSuccessAt,
			LastFailureAt: result.LastUse.LastFailureAt,
			LastFailureIP: result.LastUse.LastFailureIP,
		},
	})
}

// Logout records the end of the caller's session. Tokens are stateless, so
// the endpoint exists for the audit trail rather than revocation.
func (h *AuthHandler) Logout(c *gin.Context) {
	accountID, _, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var sourceIP, userAgent string
	if reqCtx := middleware.GetRequestContext(c); reqCtx != nil {
		sourceIP = reqCtx.IP
		userAgent = reqCtx.UserAgent
	}

	h.auth.Logout(c.Request.Context(), accountID, sourceIP, userAgent)

	c.Status(http.StatusNoContent)
}
