package withdrawals

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vipogroup/vipo-api/internal/loaders"
	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
	"github.com/vipogroup/vipo-api/internal/utils"
)

// fakeStore mirrors the balance bookkeeping of the Postgres implementation.
type fakeStore struct {
	mu          sync.Mutex
	users       map[string]*types.User
	withdrawals map[string]*types.WithdrawalRequest
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: map[string]*types.User{
			"agent-1": {ID: "agent-1", FullName: "Dana", Role: types.RoleAgent, CommissionBalance: 500},
		},
		withdrawals: map[string]*types.WithdrawalRequest{},
	}
}

func (s *fakeStore) GetUserByID(_ context.Context, id string) (*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, loaders.ErrNotFound
}

func (s *fakeStore) FindOpenWithdrawal(_ context.Context, userID string) (*types.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.withdrawals {
		if w.UserID == userID && w.Status.Open() {
			return w, nil
		}
	}
	return nil, loaders.ErrNotFound
}

func (s *fakeStore) CreateWithdrawal(_ context.Context, w *types.WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[w.UserID]
	if u.CommissionBalance < w.Amount {
		return loaders.ErrInsufficientBalance
	}
	for _, existing := range s.withdrawals {
		if existing.UserID == w.UserID && existing.Status.Open() {
			return loaders.ErrConflict
		}
	}
	w.SnapshotBalance, w.SnapshotOnHold = u.CommissionBalance, u.CommissionOnHold
	u.CommissionBalance -= w.Amount
	u.CommissionOnHold += w.Amount
	s.withdrawals[w.ID] = w
	return nil
}

func (s *fakeStore) ListUserWithdrawals(_ context.Context, userID string, _ int) ([]types.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.WithdrawalRequest
	for _, w := range s.withdrawals {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (s *fakeStore) ListWithdrawals(_ context.Context, status types.WithdrawalStatus, _, _ int) ([]types.WithdrawalWithUser, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.WithdrawalWithUser
	for _, w := range s.withdrawals {
		if status == "" || w.Status == status {
			out = append(out, types.WithdrawalWithUser{WithdrawalRequest: *w, User: s.users[w.UserID].Summary()})
		}
	}
	return out, len(out), nil
}

func (s *fakeStore) GetWithdrawal(_ context.Context, id string) (*types.WithdrawalWithUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.withdrawals[id]; ok {
		return &types.WithdrawalWithUser{WithdrawalRequest: *w}, nil
	}
	return nil, loaders.ErrNotFound
}

func (s *fakeStore) WithdrawalStats(context.Context) ([]types.WithdrawalStats, error) {
	return nil, nil
}

func (s *fakeStore) TransitionWithdrawal(_ context.Context, t loaders.WithdrawalTransition) (*types.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[t.ID]
	if !ok {
		return nil, loaders.ErrNotFound
	}
	allowed := false
	for _, f := range t.From {
		allowed = allowed || w.Status == f
	}
	if !allowed {
		return nil, loaders.ErrConflict
	}
	w.Status = t.To
	w.AdminNotes = t.AdminNotes
	u := s.users[w.UserID]
	switch t.Hold {
	case loaders.HoldRefund:
		u.CommissionBalance += w.Amount
		u.CommissionOnHold -= w.Amount
	case loaders.HoldRelease:
		u.CommissionOnHold -= w.Amount
	}
	cp := *w
	return &cp, nil
}

type recordedEvents struct{ names []string }

func (r *recordedEvents) WithdrawalRequested(agentName string, _ float64) {
	r.names = append(r.names, agentName)
}

var (
	agent = &shared.Identity{UserID: "agent-1", Role: types.RoleAgent}
	admin = &shared.Identity{UserID: "admin-1", Role: types.RoleAdmin}
)

func amount(v float64) *float64 { return &v }

func apiError(t *testing.T, err error) *utils.APIError {
	t.Helper()
	var apiErr *utils.APIError
	require.ErrorAs(t, err, &apiErr)
	return apiErr
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeStore(), nil, 100)

	_, err := svc.Create(ctx, agent, CreateRequest{})
	assert.Equal(t, "invalid_amount", apiError(t, err).Code)

	_, err = svc.Create(ctx, agent, CreateRequest{Amount: amount(-5)})
	assert.Equal(t, "invalid_amount", apiError(t, err).Code)

	_, err = svc.Create(ctx, agent, CreateRequest{Amount: amount(99.99)})
	e := apiError(t, err)
	assert.Equal(t, "amount_below_minimum", e.Code)
	assert.Equal(t, 100.0, e.Details["minimum"])

	_, err = svc.Create(ctx, agent, CreateRequest{Amount: amount(600)})
	e = apiError(t, err)
	assert.Equal(t, "insufficient_balance", e.Code)
	assert.Equal(t, 500.0, e.Details["balance"])
	assert.Equal(t, 600.0, e.Details["requested"])
}

func TestWithdrawalLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	events := &recordedEvents{}
	svc := NewService(store, events, 100)

	w, err := svc.Create(ctx, agent, CreateRequest{Amount: amount(200), Notes: "  bank  "})
	require.NoError(t, err)
	assert.Equal(t, types.WithdrawalPending, w.Status)
	assert.Equal(t, "bank", w.Notes)
	assert.Equal(t, 500.0, w.SnapshotBalance)
	assert.Equal(t, 300.0, store.users["agent-1"].CommissionBalance)
	assert.Equal(t, 200.0, store.users["agent-1"].CommissionOnHold)
	assert.Equal(t, []string{"Dana"}, events.names)

	_, err = svc.Create(ctx, agent, CreateRequest{Amount: amount(100)})
	e := apiError(t, err)
	assert.Equal(t, http.StatusConflict, e.Status)
	assert.Equal(t, w.ID, e.Details["requestId"])

	_, err = svc.Process(ctx, admin, w.ID, ProcessRequest{Action: ActionComplete})
	assert.Equal(t, "invalid_state", apiError(t, err).Code, "complete needs approval first")

	_, err = svc.Process(ctx, admin, w.ID, ProcessRequest{Action: ActionApprove, AdminNotes: "ok"})
	require.NoError(t, err)

	done, err := svc.Process(ctx, admin, w.ID, ProcessRequest{Action: ActionComplete})
	require.NoError(t, err)
	assert.Equal(t, types.WithdrawalCompleted, done.Status)
	assert.Equal(t, 300.0, store.users["agent-1"].CommissionBalance)
	assert.Zero(t, store.users["agent-1"].CommissionOnHold)

	_, err = svc.Process(ctx, admin, w.ID, ProcessRequest{Action: ActionReject})
	assert.Equal(t, http.StatusConflict, apiError(t, err).Status)

	_, err = svc.Process(ctx, admin, "missing", ProcessRequest{Action: ActionApprove})
	assert.Equal(t, http.StatusNotFound, apiError(t, err).Status)
}

func TestRejectRefundsHold(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store, nil, 100)

	w, err := svc.Create(ctx, agent, CreateRequest{Amount: amount(150)})
	require.NoError(t, err)
	_, err = svc.Process(ctx, admin, w.ID, ProcessRequest{Action: ActionReject})
	require.NoError(t, err)
	assert.Equal(t, 500.0, store.users["agent-1"].CommissionBalance)
	assert.Zero(t, store.users["agent-1"].CommissionOnHold)

	_, err = svc.Create(ctx, agent, CreateRequest{Amount: amount(150)})
	assert.NoError(t, err, "rejected requests no longer block new ones")
}

func TestAdminList(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store, nil, 100)
	_, err := svc.Create(ctx, agent, CreateRequest{Amount: amount(150)})
	require.NoError(t, err)

	resp, err := svc.AdminList(ctx, "pending", utils.Pagination{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Dana", resp.Items[0].User.FullName)
	assert.NotNil(t, resp.Stats)

	resp, err = svc.AdminList(ctx, "all", utils.Pagination{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)

	_, err = svc.AdminList(ctx, "paused", utils.Pagination{Page: 1, Limit: 20})
	assert.Equal(t, "invalid_status", apiError(t, err).Code)
}

func TestRoutesRequireAgent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			shared.SetIdentity(c, &shared.Identity{UserID: "agent-1", Role: types.Role(role)})
		}
		c.Next()
	})
	RegisterRoutes(r.Group("/api"), NewService(newFakeStore(), nil, 100), shared.NewRateLimiter(nil, true, ""))

	cases := []struct {
		role string
		body string
		want int
	}{
		{"", `{"amount": 150}`, http.StatusUnauthorized},
		{"customer", `{"amount": 150}`, http.StatusForbidden},
		{"agent", `{"amount": "lots"}`, http.StatusBadRequest},
		{"agent", `{"amount": 150}`, http.StatusCreated},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/withdrawals", strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		if tc.role != "" {
			req.Header.Set("X-Test-Role", tc.role)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, tc.role+" "+tc.body)
	}
}
