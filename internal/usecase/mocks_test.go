package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
	"github.com/savoria/orderdesk/internal/infra/security"
	"github.com/savoria/orderdesk/internal/repository"
)

// Hand-rolled in-memory fakes for the ports the services depend on. Maps
// back every store; methods a test never exercises are safe because the
// maps simply come up empty.

type testAccountRepo struct {
	accounts map[string]domain.Account
	history  map[string][]domain.PasswordHistoryEntry
	question map[string]domain.SecurityQuestion

	createErr error
	getErr    error

	successStamps   []string
	failureStamps   []string
	trimmedTo       int
	questionLookups int
}

func newTestAccountRepo() *testAccountRepo {
	return &testAccountRepo{
		accounts: make(map[string]domain.Account),
		history:  make(map[string][]domain.PasswordHistoryEntry),
		question: make(map[string]domain.SecurityQuestion),
	}
}

func (r *testAccountRepo) add(account domain.Account) {
	r.accounts[account.ID] = account
}

func (r *testAccountRepo) Create(_ context.Context, account domain.Account) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.accounts {
		if existing.Username == account.Username {
			return repository.ErrConflict
		}
	}
	r.accounts[account.ID] = account
	return nil
}

func (r *testAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := account
	return &copied, nil
}

func (r *testAccountRepo) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, account := range r.accounts {
		if account.Username == username {
			copied := account
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *testAccountRepo) List(_ context.Context, filter port.AccountFilter) ([]domain.Account, error) {
	var out []domain.Account
	for _, account := range r.accounts {
		if filter.Role != "" && account.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && account.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, account)
	}
	return out, nil
}

func (r *testAccountRepo) CountByRole(_ context.Context, role domain.Role) (int, error) {
	count := 0
	for _, account := range r.accounts {
		if account.Role == role && account.IsActive {
			count++
		}
	}
	return count, nil
}

func (r *testAccountRepo) UpdateRole(_ context.Context, id string, role domain.Role) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.Role = role
	r.accounts[id] = account
	return nil
}

func (r *testAccountRepo) SetActive(_ context.Context, id string, active bool) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.IsActive = active
	r.accounts[id] = account
	return nil
}

func (r *testAccountRepo) UpdatePassword(_ context.Context, id, passwordHash, passwordAlgo string, setAt time.Time) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.PasswordHash = passwordHash
	account.PasswordAlgo = passwordAlgo
	account.PasswordSetAt = setAt
	r.accounts[id] = account
	return nil
}

func (r *testAccountRepo) RecordAuthSuccess(_ context.Context, id string, at time.Time, sourceIP string) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	stamp := at
	account.LastSuccessAt = &stamp
	r.accounts[id] = account
	r.successStamps = append(r.successStamps, id)
	return nil
}

func (r *testAccountRepo) RecordAuthFailure(_ context.Context, id string, at time.Time, sourceIP string) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	stamp := at
	ip := sourceIP
	account.LastFailureAt = &stamp
	account.LastFailureIP = &ip
	r.accounts[id] = account
	r.failureStamps = append(r.failureStamps, id)
	return nil
}

func (r *testAccountRepo) ListPasswordHistory(_ context.Context, accountID string, limit int) ([]domain.PasswordHistoryEntry, error) {
	entries := r.history[accountID]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]domain.PasswordHistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (r *testAccountRepo) AddPasswordHistory(_ context.Context, entry domain.PasswordHistoryEntry) error {
	r.history[entry.AccountID] = append([]domain.PasswordHistoryEntry{entry}, r.history[entry.AccountID]...)
	return nil
}

func (r *testAccountRepo) TrimPasswordHistory(_ context.Context, accountID string, maxEntries int) error {
	r.trimmedTo = maxEntries
	if entries := r.history[accountID]; len(entries) > maxEntries {
		r.history[accountID] = entries[:maxEntries]
	}
	return nil
}

func (r *testAccountRepo) GetSecurityQuestion(_ context.Context, accountID string) (*domain.SecurityQuestion, error) {
	r.questionLookups++
	question, ok := r.question[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := question
	return &copied, nil
}

func (r *testAccountRepo) UpsertSecurityQuestion(_ context.Context, question domain.SecurityQuestion) error {
	r.question[question.AccountID] = question
	return nil
}

var _ port.AccountRepository = (*testAccountRepo)(nil)

// testLockoutRepo serializes every operation behind one mutex, the way
// the real store linearizes on the account's row lock.
type testLockoutRepo struct {
	mu     sync.Mutex
	states map[string]domain.LockoutState
}

func newTestLockoutRepo() *testLockoutRepo {
	return &testLockoutRepo{states: make(map[string]domain.LockoutState)}
}

func (r *testLockoutRepo) Get(_ context.Context, accountID string) (*domain.LockoutState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := state
	return &copied, nil
}

func (r *testLockoutRepo) IncrementFailure(_ context.Context, accountID string, at time.Time) (*domain.LockoutState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[accountID]
	if !ok {
		first := at
		state = domain.LockoutState{AccountID: accountID, FirstFailureAt: &first}
	}
	state.FailedCount++
	r.states[accountID] = state
	copied := state
	return &copied, nil
}

func (r *testLockoutRepo) Lock(_ context.Context, accountID string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[accountID]
	if !ok {
		return repository.ErrNotFound
	}
	if state.LockedUntil == nil {
		lockUntil := until
		state.LockedUntil = &lockUntil
		r.states[accountID] = state
	}
	return nil
}

func (r *testLockoutRepo) Reset(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, accountID)
	return nil
}

var _ port.LockoutRepository = (*testLockoutRepo)(nil)

type testAuditStore struct {
	records   []domain.AuditRecord
	appendErr error
}

func (s *testAuditStore) Append(_ context.Context, record domain.AuditRecord) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	record.ID = int64(len(s.records) + 1)
	s.records = append(s.records, record)
	return nil
}

func (s *testAuditStore) Query(_ context.Context, _ port.AuditFilter, _ port.AuditPage) ([]domain.AuditRecord, error) {
	out := make([]domain.AuditRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *testAuditStore) Count(_ context.Context, _ port.AuditFilter) (int, error) {
	return len(s.records), nil
}

func (s *testAuditStore) lastRecord(t *testing.T) domain.AuditRecord {
	t.Helper()
	if len(s.records) == 0 {
		t.Fatalf("expected at least one audit record")
	}
	return s.records[len(s.records)-1]
}

var _ port.AuditStore = (*testAuditStore)(nil)

type testAuditFallback struct {
	records   []domain.AuditRecord
	appendErr error
}

func (s *testAuditFallback) Append(_ context.Context, record domain.AuditRecord) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.records = append(s.records, record)
	return nil
}

var _ port.AuditFallback = (*testAuditFallback)(nil)

type testPublisher struct {
	auditEvents    []domain.AuditRecordedEvent
	passwordEvents []domain.PasswordChangedEvent
	publishErr     error
}

func (p *testPublisher) PublishAuditRecorded(_ context.Context, event domain.AuditRecordedEvent) error {
	if p.publishErr != nil {
		return p.publishErr
	}
	p.auditEvents = append(p.auditEvents, event)
	return nil
}

func (p *testPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	if p.publishErr != nil {
		return p.publishErr
	}
	p.passwordEvents = append(p.passwordEvents, event)
	return nil
}

func (p *testPublisher) Close() error { return nil }

var _ port.EventPublisher = (*testPublisher)(nil)

type testReauthStore struct {
	tokens map[string]domain.ReauthToken
}

func newTestReauthStore() *testReauthStore {
	return &testReauthStore{tokens: make(map[string]domain.ReauthToken)}
}

func (s *testReauthStore) Put(_ context.Context, token domain.ReauthToken, _ time.Duration) error {
	s.tokens[token.AccountID] = token
	return nil
}

func (s *testReauthStore) Get(_ context.Context, accountID string) (*domain.ReauthToken, error) {
	token, ok := s.tokens[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := token
	return &copied, nil
}

func (s *testReauthStore) Delete(_ context.Context, accountID string) error {
	delete(s.tokens, accountID)
	return nil
}

var _ port.ReauthStore = (*testReauthStore)(nil)

type testResetFlowStore struct {
	flows map[string]domain.ResetFlow
}

func newTestResetFlowStore() *testResetFlowStore {
	return &testResetFlowStore{flows: make(map[string]domain.ResetFlow)}
}

func (s *testResetFlowStore) Create(_ context.Context, flow domain.ResetFlow, _ time.Duration) error {
	s.flows[flow.ID] = flow
	return nil
}

func (s *testResetFlowStore) Get(_ context.Context, flowID string) (*domain.ResetFlow, error) {
	flow, ok := s.flows[flowID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := flow
	return &copied, nil
}

func (s *testResetFlowStore) IncrementAttempts(_ context.Context, flowID string) (int, error) {
	flow, ok := s.flows[flowID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	flow.Attempts++
	s.flows[flowID] = flow
	return flow.Attempts, nil
}

func (s *testResetFlowStore) MarkAnswered(_ context.Context, flowID string) error {
	flow, ok := s.flows[flowID]
	if !ok {
		return repository.ErrNotFound
	}
	flow.State = domain.ResetStateAnswered
	s.flows[flowID] = flow
	return nil
}

func (s *testResetFlowStore) Consume(_ context.Context, flowID string) error {
	if _, ok := s.flows[flowID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.flows, flowID)
	return nil
}

var _ port.ResetFlowStore = (*testResetFlowStore)(nil)

type testMenuRepo struct {
	items map[string]domain.MenuItem
}

func newTestMenuRepo() *testMenuRepo {
	return &testMenuRepo{items: make(map[string]domain.MenuItem)}
}

func (r *testMenuRepo) Create(_ context.Context, item domain.MenuItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *testMenuRepo) GetByID(_ context.Context, id string) (*domain.MenuItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := item
	return &copied, nil
}

func (r *testMenuRepo) List(_ context.Context, availableOnly bool) ([]domain.MenuItem, error) {
	var out []domain.MenuItem
	for _, item := range r.items {
		if availableOnly && !item.Available {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *testMenuRepo) Update(_ context.Context, item domain.MenuItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return repository.ErrNotFound
	}
	r.items[item.ID] = item
	return nil
}

func (r *testMenuRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

var _ port.MenuRepository = (*testMenuRepo)(nil)

type testOrderRepo struct {
	orders map[string]domain.Order
}

func newTestOrderRepo() *testOrderRepo {
	return &testOrderRepo{orders: make(map[string]domain.Order)}
}

func (r *testOrderRepo) Create(_ context.Context, order domain.Order) error {
	r.orders[order.ID] = order
	return nil
}

func (r *testOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := order
	return &copied, nil
}

func (r *testOrderRepo) ListByAccount(_ context.Context, accountID string, _, _ int) ([]domain.Order, error) {
	var out []domain.Order
	for _, order := range r.orders {
		if order.AccountID == accountID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (r *testOrderRepo) ListAll(_ context.Context, _, _ int) ([]domain.Order, error) {
	var out []domain.Order
	for _, order := range r.orders {
		out = append(out, order)
	}
	return out, nil
}

func (r *testOrderRepo) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) error {
	order, ok := r.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	order.Status = status
	r.orders[id] = order
	return nil
}

func (r *testOrderRepo) CountByStatus(_ context.Context) (map[domain.OrderStatus]int, error) {
	counts := make(map[domain.OrderStatus]int)
	for _, order := range r.orders {
		counts[order.Status]++
	}
	return counts, nil
}

var _ port.OrderRepository = (*testOrderRepo)(nil)

// testHasher wraps the real argon2 hasher at throwaway parameters so
// password and answer flows exercise genuine hash material.
func testHasher(t *testing.T) *security.Hasher {
	t.Helper()
	hasher, err := security.NewHasher(security.InsecureTestConfig())
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	return hasher
}

func newTestAudit(t *testing.T) (*AuditService, *testAuditStore) {
	t.Helper()
	store := &testAuditStore{}
	audit := NewAuditService(store, nil, nil, zaptest.NewLogger(t))
	return audit, store
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

var errStoreDown = errors.New("store down")
