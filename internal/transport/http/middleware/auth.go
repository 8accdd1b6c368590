package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/infra/security"
	"github.com/savoria/orderdesk/internal/usecase"
)

// ErrorResponse matches the handlers.ErrorResponse structure.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// newErrorResponse creates an error response with trace ID.
func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// RequireAuth validates the Authorization header and stores the session
// identity on the request context.
func RequireAuth(tokens *security.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "invalid authorization format: expected 'Bearer <token>'"))
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing session token"))
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "invalid or expired session token"))
			return
		}

		c.Set(AccountIDKey, claims.Subject)
		c.Set(RoleKey, domain.Role(claims.Role))

		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.AccountID = claims.Subject
		}

		c.Next()
	}
}

// CurrentAccount returns the authenticated account ID and role, or false
// when the request carries no identity.
func CurrentAccount(c *gin.Context) (string, domain.Role, bool) {
	idVal, ok := c.Get(AccountIDKey)
	if !ok {
		return "", "", false
	}
	roleVal, ok := c.Get(RoleKey)
	if !ok {
		return "", "", false
	}

	id, idOK := idVal.(string)
	role, roleOK := roleVal.(domain.Role)
	if !idOK || !roleOK {
		return "", "", false
	}

	return id, role, true
}

// RequireAccess enforces the role grant for the guarded route. Denied
// requests get the same not-found response an unknown path would, so
// probing reveals nothing, and every denial is audited by the authorizer.
func RequireAccess(authz *usecase.Authorizer, resource usecase.Resource, action usecase.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, role, ok := CurrentAccount(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "authentication required"))
			return
		}

		reqCtx := GetRequestContext(c)
		err := authz.Authorize(c.Request.Context(), accountID, role, resource, action, reqCtx.IP, reqCtx.UserAgent)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound,
				newErrorResponse(c, "not found"))
			return
		}

		c.Next()
	}
}
