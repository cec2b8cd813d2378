package commissions

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vipogroup/vipo-api/internal/loaders"
	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
	"github.com/vipogroup/vipo-api/internal/utils"
)

// commissionOrdersLimit caps the order list returned with a summary.
const commissionOrdersLimit = 50

type Store interface {
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	CommissionBuckets(ctx context.Context, agentID string) ([]loaders.CommissionBucket, error)
	ListCommissionOrders(ctx context.Context, agentID string, limit int) ([]types.Order, error)
	ReleaseDueCommissions(ctx context.Context, now time.Time) ([]loaders.ReleasedCommission, error)
	ListAgents(ctx context.Context, query string, limit, offset int) ([]types.User, int, error)
	UpdateAgentSettings(ctx context.Context, id string, upd types.AgentSettingsUpdate) (*types.User, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Summary reports the commission position of an agent. Admins may pass any
// agent id; agents only see themselves.
func (s *Service) Summary(ctx context.Context, caller *shared.Identity, agentID string) (*CommissionsResponse, error) {
	if agentID == "" || !caller.IsAdmin() {
		agentID = caller.UserID
	}
	user, err := s.store.GetUserByID(ctx, agentID)
	if errors.Is(err, loaders.ErrNotFound) {
		return nil, utils.NotFound("agent_not_found", "agent not found")
	}
	if err != nil {
		return nil, err
	}

	buckets, err := s.store.CommissionBuckets(ctx, agentID)
	if err != nil {
		return nil, err
	}
	orders, err := s.store.ListCommissionOrders(ctx, agentID, commissionOrdersLimit)
	if err != nil {
		return nil, err
	}
	if buckets == nil {
		buckets = []loaders.CommissionBucket{}
	}
	if orders == nil {
		orders = []types.Order{}
	}

	return &CommissionsResponse{
		OK:      true,
		Summary: summarize(user, buckets),
		Buckets: buckets,
		Orders:  orders,
	}, nil
}

func summarize(user *types.User, buckets []loaders.CommissionBucket) Summary {
	sum := Summary{
		Balance:    user.CommissionBalance,
		OnHold:     user.CommissionOnHold,
		TotalSales: user.TotalSales,
	}
	for _, b := range buckets {
		sum.Orders += b.Count
		switch b.Status {
		case types.CommissionPending:
			sum.Pending = utils.SumMoney(sum.Pending, b.Amount)
		case types.CommissionAvailable:
			sum.Available = utils.SumMoney(sum.Available, b.Amount)
		case types.CommissionClaimed:
			sum.Claimed = utils.SumMoney(sum.Claimed, b.Amount)
		case types.CommissionCancelled:
			sum.Cancelled = utils.SumMoney(sum.Cancelled, b.Amount)
		}
	}
	return sum
}

// Release makes every matured commission available and credits the agents.
// It is shared by the cron endpoint, the admin endpoint, the scheduler and vipoctl.
func (s *Service) Release(ctx context.Context) (*ReleaseResult, error) {
	released, err := s.store.ReleaseDueCommissions(ctx, s.now().UTC())
	if err != nil {
		return nil, err
	}

	byAgent := loaders.SumByAgent(released)
	amounts := make([]float64, 0, len(byAgent))
	for _, amount := range byAgent {
		amounts = append(amounts, amount)
	}
	result := &ReleaseResult{
		OK:       true,
		Released: len(released),
		Agents:   len(byAgent),
		Amount:   utils.SumMoney(amounts...),
		ByAgent:  byAgent,
	}

	shared.CommissionsReleased.Add(float64(len(released)))
	if len(released) > 0 {
		utils.Zlog.Info("Commissions released",
			zap.Int("orders", result.Released),
			zap.Int("agents", result.Agents),
			zap.Float64("amount", result.Amount))
	}
	return result, nil
}

func (s *Service) ListAgents(ctx context.Context, query string, p utils.Pagination) (*AgentsResponse, error) {
	agents, total, err := s.store.ListAgents(ctx, strings.TrimSpace(query), p.Limit, p.Offset())
	if err != nil {
		return nil, err
	}
	if agents == nil {
		agents = []types.User{}
	}
	return &AgentsResponse{Items: agents, Pagination: types.NewPageInfo(p.Page, p.Limit, total)}, nil
}

func (s *Service) UpdateAgent(ctx context.Context, id string, req AgentSettingsRequest) (*types.User, error) {
	upd := types.AgentSettingsUpdate{
		DiscountPercent:   req.DiscountPercent,
		CommissionPercent: req.CommissionPercent,
	}
	if req.CouponStatus != nil {
		status := types.CouponStatus(*req.CouponStatus)
		upd.CouponStatus = &status
	}
	if req.CouponCode != nil {
		code := strings.TrimSpace(*req.CouponCode)
		upd.CouponCode = &code
	}
	if upd == (types.AgentSettingsUpdate{}) {
		return nil, utils.BadRequest("no_changes", "nothing to update")
	}

	agent, err := s.store.UpdateAgentSettings(ctx, id, upd)
	switch {
	case errors.Is(err, loaders.ErrNotFound):
		return nil, utils.NotFound("agent_not_found", "agent not found")
	case errors.Is(err, loaders.ErrConflict):
		return nil, utils.Conflict("coupon_taken", "coupon code already in use")
	case err != nil:
		return nil, err
	}
	utils.Zlog.Info("Agent settings updated", zap.String("agentId", id))
	return agent, nil
}
