package withdrawals

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vipogroup/vipo-api/internal/loaders"
	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
	"github.com/vipogroup/vipo-api/internal/utils"
)

const userHistoryLimit = 50

type Store interface {
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	FindOpenWithdrawal(ctx context.Context, userID string) (*types.WithdrawalRequest, error)
	CreateWithdrawal(ctx context.Context, w *types.WithdrawalRequest) error
	ListUserWithdrawals(ctx context.Context, userID string, limit int) ([]types.WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, status types.WithdrawalStatus, limit, offset int) ([]types.WithdrawalWithUser, int, error)
	GetWithdrawal(ctx context.Context, id string) (*types.WithdrawalWithUser, error)
	WithdrawalStats(ctx context.Context) ([]types.WithdrawalStats, error)
	TransitionWithdrawal(ctx context.Context, t loaders.WithdrawalTransition) (*types.WithdrawalRequest, error)
}

type Events interface {
	WithdrawalRequested(agentName string, amount float64)
}

type Service struct {
	store     Store
	events    Events
	minAmount float64
	now       func() time.Time
}

func NewService(store Store, events Events, minAmount float64) *Service {
	return &Service{store: store, events: events, minAmount: minAmount, now: time.Now}
}

// transitions maps each admin action to the states it may start from and
// what happens to the held amount.
var transitions = map[Action]struct {
	from []types.WithdrawalStatus
	to   types.WithdrawalStatus
	hold loaders.HoldMovement
}{
	ActionApprove:  {[]types.WithdrawalStatus{types.WithdrawalPending}, types.WithdrawalApproved, loaders.HoldKeep},
	ActionReject:   {[]types.WithdrawalStatus{types.WithdrawalPending, types.WithdrawalApproved}, types.WithdrawalRejected, loaders.HoldRefund},
	ActionComplete: {[]types.WithdrawalStatus{types.WithdrawalApproved}, types.WithdrawalCompleted, loaders.HoldRelease},
}

func (s *Service) Create(ctx context.Context, caller *shared.Identity, req CreateRequest) (*types.WithdrawalRequest, error) {
	if req.Amount == nil || math.IsNaN(*req.Amount) || math.IsInf(*req.Amount, 0) || *req.Amount <= 0 {
		return nil, utils.BadRequest("invalid_amount", "amount must be a positive number")
	}
	amount := utils.RoundMoney(*req.Amount)
	if amount < s.minAmount {
		return nil, utils.BadRequest("amount_below_minimum",
			fmt.Sprintf("minimum withdrawal is %.2f", s.minAmount)).
			WithDetails(map[string]interface{}{"minimum": s.minAmount})
	}

	open, err := s.store.FindOpenWithdrawal(ctx, caller.UserID)
	if err != nil && !errors.Is(err, loaders.ErrNotFound) {
		return nil, err
	}
	if open != nil {
		return nil, openConflict(open.ID)
	}

	user, err := s.store.GetUserByID(ctx, caller.UserID)
	if errors.Is(err, loaders.ErrNotFound) {
		return nil, utils.Unauthorized("Unauthorized")
	}
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	w := &types.WithdrawalRequest{
		ID:             uuid.NewString(),
		UserID:         caller.UserID,
		Amount:         amount,
		Notes:          strings.TrimSpace(req.Notes),
		PaymentDetails: req.PaymentDetails,
		Status:         types.WithdrawalPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = s.store.CreateWithdrawal(ctx, w)
	switch {
	case errors.Is(err, loaders.ErrInsufficientBalance):
		return nil, utils.BadRequest("insufficient_balance", "requested amount exceeds the available balance").
			WithDetails(map[string]interface{}{"balance": user.CommissionBalance, "requested": amount})
	case errors.Is(err, loaders.ErrConflict):
		// Lost a race with a concurrent request.
		if open, ferr := s.store.FindOpenWithdrawal(ctx, caller.UserID); ferr == nil {
			return nil, openConflict(open.ID)
		}
		return nil, openConflict("")
	case err != nil:
		return nil, err
	}

	shared.WithdrawalActions.WithLabelValues("create").Inc()
	utils.Zlog.Info("Withdrawal requested",
		zap.String("withdrawalId", w.ID),
		zap.String("userId", w.UserID),
		zap.Float64("amount", w.Amount))
	if s.events != nil {
		s.events.WithdrawalRequested(user.FullName, w.Amount)
	}
	return w, nil
}

func openConflict(id string) error {
	e := utils.Conflict("withdrawal_pending", "an open withdrawal request already exists")
	if id != "" {
		e.WithDetails(map[string]interface{}{"requestId": id})
	}
	return e
}

func (s *Service) ListMine(ctx context.Context, caller *shared.Identity) ([]types.WithdrawalRequest, error) {
	items, err := s.store.ListUserWithdrawals(ctx, caller.UserID, userHistoryLimit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []types.WithdrawalRequest{}
	}
	return items, nil
}

func (s *Service) AdminList(ctx context.Context, status string, p utils.Pagination) (*AdminListResponse, error) {
	st := types.WithdrawalStatus(strings.ToLower(strings.TrimSpace(status)))
	if st != "" && st != "all" && !st.Valid() {
		return nil, utils.BadRequest("invalid_status", "unknown withdrawal status")
	}
	if st == "all" {
		st = ""
	}

	items, total, err := s.store.ListWithdrawals(ctx, st, p.Limit, p.Offset())
	if err != nil {
		return nil, err
	}
	stats, err := s.store.WithdrawalStats(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []types.WithdrawalWithUser{}
	}
	if stats == nil {
		stats = []types.WithdrawalStats{}
	}
	return &AdminListResponse{
		OK:         true,
		Items:      items,
		Pagination: types.NewPageInfo(p.Page, p.Limit, total),
		Stats:      stats,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*types.WithdrawalWithUser, error) {
	w, err := s.store.GetWithdrawal(ctx, id)
	if errors.Is(err, loaders.ErrNotFound) {
		return nil, utils.NotFound("withdrawal_not_found", "withdrawal request not found")
	}
	return w, err
}

func (s *Service) Process(ctx context.Context, admin *shared.Identity, id string, req ProcessRequest) (*types.WithdrawalRequest, error) {
	tr, ok := transitions[req.Action]
	if !ok {
		return nil, utils.BadRequest("invalid_action", "action must be approve, reject or complete")
	}

	w, err := s.store.TransitionWithdrawal(ctx, loaders.WithdrawalTransition{
		ID:          id,
		From:        tr.from,
		To:          tr.to,
		AdminNotes:  strings.TrimSpace(req.AdminNotes),
		ProcessedBy: admin.UserID,
		Hold:        tr.hold,
	})
	switch {
	case errors.Is(err, loaders.ErrNotFound):
		return nil, utils.NotFound("withdrawal_not_found", "withdrawal request not found")
	case errors.Is(err, loaders.ErrConflict):
		return nil, utils.Conflict("invalid_state", fmt.Sprintf("cannot %s this request in its current state", req.Action))
	case err != nil:
		return nil, err
	}

	shared.WithdrawalActions.WithLabelValues(string(req.Action)).Inc()
	utils.Zlog.Info("Withdrawal processed",
		zap.String("withdrawalId", id),
		zap.String("action", string(req.Action)),
		zap.String("adminId", admin.UserID))
	return w, nil
}
