package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
)

const (
	actionMenuCreate = "menu.create"
	actionMenuUpdate = "menu.update"
	actionMenuDelete = "menu.delete"
)

// MenuInput carries the editable fields of a menu item.
type MenuInput struct {
	Name        string
	Description string
	PriceCents  int64
	Available   bool
}

func (in MenuInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.PriceCents <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	return nil
}

// MenuService manages the menu catalog.
type MenuService struct {
	menu   port.MenuRepository
	reauth *ReauthService
	audit  *AuditService
	logger *zap.Logger

	now func() time.Time
}

// NewMenuService constructs a MenuService.
func NewMenuService(menu port.MenuRepository, reauth *ReauthService, audit *AuditService, logger *zap.Logger) *MenuService {
	return &MenuService{
		menu:   menu,
		reauth: reauth,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *MenuService) WithClock(now func() time.Time) *MenuService {
	s.now = now
	return s
}

// List returns menu items. Customers see available items only.
func (s *MenuService) List(ctx context.Context, availableOnly bool) ([]domain.MenuItem, error) {
	items, err := s.menu.List(ctx, availableOnly)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	return items, nil
}

// Get returns one menu item.
func (s *MenuService) Get(ctx context.Context, id string) (*domain.MenuItem, error) {
	item, err := s.menu.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	return item, nil
}

// Create adds a menu item.
func (s *MenuService) Create(ctx context.Context, actorID string, input MenuInput, sourceIP, userAgent string) (*domain.MenuItem, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item := domain.MenuItem{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		PriceCents:  input.PriceCents,
		Available:   input.Available,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.menu.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create menu item: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:   actorID,
		Action:    actionMenuCreate,
		Outcome:   domain.AuditSuccess,
		SourceIP:  sourceIP,
		UserAgent: userAgent,
	})

	return &item, nil
}

// Update replaces the editable fields of a menu item.
func (s *MenuService) Update(ctx context.Context, actorID, id string, input MenuInput, sourceIP, userAgent string) (*domain.MenuItem, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	item, err := s.menu.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get menu item: %w", err)
	}

	item.Name = strings.TrimSpace(input.Name)
	item.Description = strings.TrimSpace(input.Description)
	item.PriceCents = input.PriceCents
	item.Available = input.Available
	item.UpdatedAt = s.now().UTC()

	if err := s.menu.Update(ctx, *item); err != nil {
		return nil, fmt.Errorf("update menu item: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:   actorID,
		Action:    actionMenuUpdate,
		Outcome:   domain.AuditSuccess,
		SourceIP:  sourceIP,
		UserAgent: userAgent,
	})

	return item, nil
}

// Delete removes a menu item. Requires a fresh step-up token since
// removal is destructive; availability toggles cover everyday hiding.
func (s *MenuService) Delete(ctx context.Context, actorID, id, reauthToken, sourceIP, userAgent string) error {
	if err := s.reauth.Verify(ctx, actorID, reauthToken); err != nil {
		return err
	}

	if err := s.menu.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:   actorID,
		Action:    actionMenuDelete,
		Outcome:   domain.AuditSuccess,
		SourceIP:  sourceIP,
		UserAgent: userAgent,
	})

	return nil
}
