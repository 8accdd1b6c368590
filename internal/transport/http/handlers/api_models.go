package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/transport/http/middleware"
	"github.com/savoria/orderdesk/internal/usecase"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: middleware.GetTraceID(c),
	}
}

// PolicyViolationResponse reports every password policy rule the candidate
// failed so the client can render the full list at once.
type PolicyViolationResponse struct {
	Error      string   `json:"error"`
	Violations []string `json:"violations"`
	TraceID    string   `json:"trace_id,omitempty"`
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// AccountSummary describes a minimal view of an account returned by the API.
type AccountSummary struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func newAccountSummary(account *domain.Account) AccountSummary {
	return AccountSummary{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		Role:      string(account.Role),
		IsActive:  account.IsActive,
		CreatedAt: account.CreatedAt,
	}
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LastUsePayload is the previous-use banner shown after a successful login.
// All values predate the login that returned them.
type LastUsePayload struct {
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
	LastFailureIP *string    `json:"last_failure_ip,omitempty"`
}

// LoginResponse describes the response returned for a successful login.
type LoginResponse struct {
	Token     string         `json:"token"`
	TokenType string         `json:"token_type"`
	ExpiresAt time.Time      `json:"expires_at"`
	Account   AccountSummary `json:"account"`
	LastUse   LastUsePayload `json:"last_use"`
}

// RegistrationRequest defines the account registration payload.
type RegistrationRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required"`
}

// RegistrationResponse contains the created account.
type RegistrationResponse struct {
	Account AccountSummary `json:"account"`
}

// ReauthRequest carries the password for step-up re-authentication.
type ReauthRequest struct {
	Password string `json:"password" binding:"required"`
}

// ReauthResponse returns the short-lived step-up token.
type ReauthResponse struct {
	ReauthToken string    `json:"reauth_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// PasswordChangeRequest defines the payload for changing the caller's password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ReauthToken     string `json:"reauth_token" binding:"required"`
}

// QuestionOption is one entry of the security question catalog.
type QuestionOption struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// QuestionListResponse wraps the security question catalog.
type QuestionListResponse struct {
	Questions []QuestionOption `json:"questions"`
}

// QuestionSetupRequest defines the payload for configuring a security question.
type QuestionSetupRequest struct {
	QuestionID  int    `json:"question_id" binding:"required"`
	Answer      string `json:"answer" binding:"required"`
	ReauthToken string `json:"reauth_token" binding:"required"`
}

// ResetRequestPayload starts a password reset flow by username.
type ResetRequestPayload struct {
	Username string `json:"username" binding:"required"`
}

// ResetChallengeResponse returns the flow handle and the question to answer.
// The shape is identical whether or not the username maps to an account.
type ResetChallengeResponse struct {
	FlowID       string    `json:"flow_id"`
	QuestionID   int       `json:"question_id"`
	QuestionText string    `json:"question_text"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ResetAnswerRequest submits the security question answer for a flow.
type ResetAnswerRequest struct {
	FlowID string `json:"flow_id" binding:"required"`
	Answer string `json:"answer" binding:"required"`
}

// ResetCompleteRequest sets the new password for an answered flow.
type ResetCompleteRequest struct {
	FlowID      string `json:"flow_id" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// AuditRecordPayload is one entry of the security audit log.
type AuditRecordPayload struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   *string   `json:"actor_id,omitempty"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"`
	SourceIP  string    `json:"source_ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// AuditListResponse wraps a page of audit records with the total match count.
type AuditListResponse struct {
	Records []AuditRecordPayload `json:"records"`
	Total   int                  `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

func newAuditRecordPayload(record domain.AuditRecord) AuditRecordPayload {
	return AuditRecordPayload{
		ID:        record.ID,
		Timestamp: record.Timestamp,
		ActorID:   record.ActorID,
		Action:    record.Action,
		Outcome:   string(record.Outcome),
		SourceIP:  record.SourceIP,
		UserAgent: record.UserAgent,
	}
}

// AccountListResponse wraps multiple accounts.
type AccountListResponse struct {
	Accounts []AccountSummary `json:"accounts"`
}

// RoleChangeRequest defines the payload for changing an account's role.
type RoleChangeRequest struct {
	Role        string `json:"role" binding:"required"`
	ReauthToken string `json:"reauth_token" binding:"required"`
}

// ActiveChangeRequest toggles an account's active flag.
type ActiveChangeRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// MenuItemRequest defines the payload for creating or updating a menu item.
type MenuItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" binding:"required"`
	Available   *bool  `json:"available"`
}

// MenuItemPayload describes a menu item in API responses.
type MenuItemPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MenuListResponse wraps multiple menu items.
type MenuListResponse struct {
	Items []MenuItemPayload `json:"items"`
}

func newMenuItemPayload(item *domain.MenuItem) MenuItemPayload {
	return MenuItemPayload{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		PriceCents:  item.PriceCents,
		Available:   item.Available,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

// OrderLineRequest is one requested line of a new order.
type OrderLineRequest struct {
	MenuItemID string `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required"`
}

// OrderCreateRequest defines the payload for placing an order.
type OrderCreateRequest struct {
	Lines []OrderLineRequest `json:"lines" binding:"required"`
}

// OrderItemPayload is one priced line within an order response.
type OrderItemPayload struct {
	MenuItemID     string `json:"menu_item_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// OrderPayload describes an order in API responses.
type OrderPayload struct {
	ID         string             `json:"id"`
	AccountID  string             `json:"account_id"`
	Status     string             `json:"status"`
	TotalCents int64              `json:"total_cents"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	Items      []OrderItemPayload `json:"items,omitempty"`
}

// OrderListResponse wraps multiple orders.
type OrderListResponse struct {
	Orders []OrderPayload `json:"orders"`
}

// OrderStatusRequest defines the payload for advancing an order's status.
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func newOrderPayload(order *domain.Order) OrderPayload {
	items := make([]OrderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemPayload{
			MenuItemID:     item.MenuItemID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}

	return OrderPayload{
		ID:         order.ID,
		AccountID:  order.AccountID,
		Status:     string(order.Status),
		TotalCents: order.TotalCents,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
		Items:      items,
	}
}

// DashboardResponse summarizes current order volume for the staff dashboard.
type DashboardResponse struct {
	OrdersByStatus map[string]int `json:"orders_by_status"`
	OpenOrders     int            `json:"open_orders"`
	MenuItems      int            `json:"menu_items"`
	AvailableItems int            `json:"available_items"`
}

// HealthResponse reports process liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func violationMessages(err *usecase.PolicyViolationError) []string {
	messages := make([]string, 0, len(err.Violations))
	for _, v := range err.Violations {
		messages = append(messages, string(v))
	}
	return messages
}
