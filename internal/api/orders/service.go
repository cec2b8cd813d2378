package orders

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

type Store interface {
	FindProductsByRefs(ctx context.Context, refs []string) ([]types.Product, error)
	FindAgentByCoupon(ctx context.Context, code string) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	CreateOrder(ctx context.Context, o *types.Order) error
	GetOrder(ctx context.Context, id string) (*types.Order, error)
	ListOrders(ctx context.Context, f types.OrderFilter) ([]types.Order, int, error)
	TransitionOrder(ctx context.Context, t loaders.OrderTransition) (*types.Order, error)
}

type Events interface {
	OrderCreated(orderNumber string, total float64, couponCode string)
}

type Options struct {
	DefaultCommissionPercent float64
	CommissionHold           time.Duration
}

type Service struct {
	store  Store
	events Events
	opts   Options
	now    func() time.Time
}

func NewService(store Store, events Events, opts Options) *Service {
	return &Service{store: store, events: events, opts: opts, now: time.Now}
}

func validateLines(items []ItemRequest) ([]CartLine, error) {
	if len(items) == 0 {
		return nil, utils.BadRequest("cart_empty", "cart is empty")
	}
	lines := make([]CartLine, 0, len(items))
	for i, it := range items {
		id := strings.TrimSpace(it.ProductID)
		if id == "" {
			return nil, utils.BadRequest("invalid_product_id", fmt.Sprintf("item %d has no productId", i))
		}
		if it.Quantity <= 0 || it.Quantity != math.Trunc(it.Quantity) || it.Quantity > 1000 {
			return nil, utils.BadRequest("invalid_quantity", fmt.Sprintf("item %d has an invalid quantity", i))
		}
		lines = append(lines, CartLine{ProductID: id, Quantity: int(it.Quantity)})
	}
	return lines, nil
}

// resolveProducts maps every requested ref to an active catalogue product.
func (s *Service) resolveProducts(ctx context.Context, lines []CartLine) (map[string]types.Product, error) {
	refs := make([]string, 0, len(lines))
	seen := map[string]bool{}
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			refs = append(refs, l.ProductID)
		}
	}

	found, err := s.store.FindProductsByRefs(ctx, refs)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]types.Product, len(refs))
	var missing []string
	for _, ref := range refs {
		var match *types.Product
		for i := range found {
			p := &found[i]
			if p.ID == ref || strings.EqualFold(p.Slug, ref) || (p.LegacyID != "" && p.LegacyID == ref) {
				match = p
				break
			}
		}
		if match == nil || !match.IsActive || !shared.InTenant(ctx, match.TenantID) {
			missing = append(missing, ref)
			continue
		}
		resolved[ref] = *match
	}
	if len(missing) > 0 {
		return nil, utils.BadRequest("product_not_found", "some products were not found").
			WithDetails(map[string]interface{}{"products": missing})
	}
	return resolved, nil
}

func (s *Service) couponAttribution(ctx context.Context, coupon *CouponRequest, buyerID string) (Attribution, error) {
	invalid := utils.BadRequest("invalid_coupon", "coupon code is not valid")
	agent, err := s.store.FindAgentByCoupon(ctx, coupon.Code)
	if errors.Is(err, loaders.ErrNotFound) {
		return Attribution{}, invalid
	}
	if err != nil {
		return Attribution{}, err
	}
	if !agent.HasActiveCoupon() || (coupon.AgentID != "" && coupon.AgentID != agent.ID) {
		return Attribution{}, invalid
	}
	attr := Attribution{
		Source:            SourceCoupon,
		AgentID:           agent.ID,
		CouponCode:        agent.CouponCode,
		DiscountPercent:   agent.DiscountPercent,
		CommissionPercent: agent.CommissionPercent,
	}
	if agent.ID == buyerID {
		// Agents may use their own coupon but earn nothing from it.
		attr.AgentID = ""
	}
	return attr, nil
}

// referralAttribution resolves the referral cookie to an agent by coupon
// code or user id. Failures are not errors; the order just has no agent.
func (s *Service) referralAttribution(ctx context.Context, refSource, buyerID string) Attribution {
	ref := strings.TrimSpace(refSource)
	if ref == "" {
		return Attribution{}
	}
	agent, err := s.store.FindAgentByCoupon(ctx, ref)
	if err != nil {
		agent, err = s.store.GetUserByID(ctx, ref)
	}
	if err != nil || agent.Role != types.RoleAgent || !agent.IsActive || agent.ID == buyerID {
		return Attribution{}
	}
	pct := agent.CommissionPercent
	if pct <= 0 {
		pct = s.opts.DefaultCommissionPercent
	}
	return Attribution{Source: SourceReferral, AgentID: agent.ID, CommissionPercent: pct}
}

func (s *Service) Create(ctx context.Context, caller *shared.Identity, req CreateOrderRequest, refSource string) (*CreateOrderResponse, error) {
	lines, err := validateLines(req.Items)
	if err != nil {
		return nil, err
	}
	resolved, err := s.resolveProducts(ctx, lines)
	if err != nil {
		return nil, err
	}
	items, subtotal := LineItems(lines, resolved)

	var attr Attribution
	if req.Coupon != nil && strings.TrimSpace(req.Coupon.Code) != "" {
		if attr, err = s.couponAttribution(ctx, req.Coupon, caller.UserID); err != nil {
			return nil, err
		}
	} else {
		attr = s.referralAttribution(ctx, refSource, caller.UserID)
	}
	pricing := Price(subtotal, attr)

	customer := types.Customer{}
	if req.Customer != nil {
		customer = *req.Customer
	}
	if buyer, err := s.store.GetUserByID(ctx, caller.UserID); err == nil {
		if customer.FullName == "" {
			customer.FullName = buyer.FullName
		}
		if customer.Email == "" {
			customer.Email = buyer.Email
		}
		if customer.Phone == "" {
			customer.Phone = buyer.Phone
		}
	}
	customer.Email = utils.NormalizeEmail(customer.Email)
	customer.Phone = utils.NormalizePhone(customer.Phone)

	now := s.now().UTC()
	order := &types.Order{
		ID:                uuid.NewString(),
		TenantID:          shared.TenantFrom(ctx),
		CreatedBy:         caller.UserID,
		Customer:          customer,
		Items:             items,
		Subtotal:          pricing.Totals.Subtotal,
		DiscountPercent:   pricing.Totals.DiscountPercent,
		DiscountAmount:    pricing.Totals.DiscountAmount,
		TotalAmount:       pricing.Totals.TotalAmount,
		Status:            types.OrderPending,
		PaymentStatus:     types.PaymentPending,
		AppliedCouponCode: attr.CouponCode,
		CommissionPercent: attr.CommissionPercent,
		CommissionAmount:  pricing.CommissionAmount,
		CommissionStatus:  types.CommissionNone,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if attr.AgentID != "" {
		agentID := attr.AgentID
		order.AgentID = &agentID
		if attr.Source == SourceReferral {
			order.RefAgentID = &agentID
			order.RefSource = strings.TrimSpace(refSource)
		}
		if order.CommissionAmount > 0 {
			order.CommissionStatus = types.CommissionPending
		}
	} else {
		order.CommissionPercent = 0
		order.CommissionAmount = 0
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	source := string(attr.Source)
	if source == "" {
		source = "direct"
	}
	shared.OrdersCreated.WithLabelValues(source).Inc()
	utils.Zlog.Info("Order created",
		zap.String("orderId", order.ID),
		zap.String("createdBy", order.CreatedBy),
		zap.String("source", source),
		zap.Float64("total", order.TotalAmount),
		zap.Float64("commission", order.CommissionAmount))
	if s.events != nil {
		s.events.OrderCreated(order.Number(), order.TotalAmount, order.AppliedCouponCode)
	}

	resp := &CreateOrderResponse{
		OK:               true,
		OrderID:          order.ID,
		OrderNumber:      order.Number(),
		Totals:           pricing.Totals,
		DiscountAmount:   order.DiscountAmount,
		RefAgentID:       order.RefAgentID,
		CommissionAmount: order.CommissionAmount,
	}
	if order.AppliedCouponCode != "" {
		resp.CouponCode = &order.AppliedCouponCode
	}
	if order.RefSource != "" {
		resp.RefSource = &order.RefSource
	}
	return resp, nil
}

func (s *Service) List(ctx context.Context, caller *shared.Identity, status, query string, p utils.Pagination) (*ListOrdersResponse, error) {
	f := types.OrderFilter{Query: query, Limit: p.Limit, Offset: p.Offset()}
	if status != "" {
		st, ok := NormalizeStatus(status)
		if !ok {
			return nil, utils.BadRequest("invalid_status", "unknown order status")
		}
		f.Status = st
	}

	scope := s.visibility(ctx, caller)
	f.TenantID = scope.TenantID
	f.AgentID, f.CustomerID, f.CustomerEmail = scope.AgentID, scope.CustomerID, scope.CustomerEmail

	items, total, err := s.store.ListOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []types.Order{}
	}
	return &ListOrdersResponse{Items: items, Total: total, Page: p.Page, Limit: p.Limit}, nil
}

// visibility is the filter that scopes orders to caller within the request
// tenant. Admins see everything, agents the orders they placed or are
// attributed to, and customers the orders they placed or that carry their
// email.
func (s *Service) visibility(ctx context.Context, caller *shared.Identity) types.OrderFilter {
	f := types.OrderFilter{TenantID: shared.TenantFrom(ctx)}
	switch caller.Role {
	case types.RoleAdmin:
	case types.RoleAgent:
		f.AgentID = caller.UserID
	default:
		f.CustomerID = caller.UserID
		if u, err := s.store.GetUserByID(ctx, caller.UserID); err == nil {
			f.CustomerEmail = utils.NormalizeEmail(u.Email)
		}
	}
	return f
}

// visible applies f to a single order the way ListOrders applies it in SQL.
func visible(f types.OrderFilter, o *types.Order) bool {
	if f.TenantID != "" && o.TenantID != f.TenantID {
		return false
	}
	switch {
	case f.AgentID != "":
		return o.CreatedBy == f.AgentID ||
			(o.AgentID != nil && *o.AgentID == f.AgentID) ||
			(o.RefAgentID != nil && *o.RefAgentID == f.AgentID)
	case f.CustomerID != "" || f.CustomerEmail != "":
		return o.CreatedBy == f.CustomerID ||
			(f.CustomerEmail != "" && o.Customer.Email == f.CustomerEmail)
	}
	return true
}

func (s *Service) Get(ctx context.Context, caller *shared.Identity, id string) (*types.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if errors.Is(err, loaders.ErrNotFound) || (err == nil && !visible(s.visibility(ctx, caller), o)) {
		return nil, utils.NotFound("order_not_found", "order not found")
	}
	return o, err
}

// UpdateStatus moves an order through its lifecycle and applies the
// commission consequences of the move.
func (s *Service) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*types.Order, error) {
	to, ok := NormalizeStatus(req.Status)
	if !ok {
		return nil, utils.BadRequest("invalid_status", "unknown order status")
	}
	current, err := s.store.GetOrder(ctx, id)
	if errors.Is(err, loaders.ErrNotFound) {
		return nil, utils.NotFound("order_not_found", "order not found")
	}
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, to) {
		return nil, utils.Conflict("invalid_transition",
			fmt.Sprintf("cannot move order from %s to %s", current.Status, to))
	}

	t := loaders.OrderTransition{
		OrderID:       id,
		From:          current.Status,
		To:            to,
		PaymentStatus: CoercePaymentStatus(to, req.PaymentStatus),
	}
	switch to {
	case types.OrderPaid:
		t.OpenSyncMap = true
		t.CountSale = true
		if current.CommissionStatus == types.CommissionPending {
			availableAt := s.now().UTC().Add(s.opts.CommissionHold)
			t.CommissionAvailableAt = &availableAt
		}
	case types.OrderCancelled, types.OrderFailed:
		if current.CommissionStatus == types.CommissionPending || current.CommissionStatus == types.CommissionAvailable {
			t.CommissionStatus = types.CommissionCancelled
			t.ReverseReleased = true
		}
	}

	updated, err := s.store.TransitionOrder(ctx, t)
	if errors.Is(err, loaders.ErrConflict) {
		return nil, utils.Conflict("invalid_transition", "order status changed concurrently")
	}
	if err != nil {
		return nil, err
	}
	utils.Zlog.Info("Order status updated",
		zap.String("orderId", id),
		zap.String("from", string(current.Status)),
		zap.String("to", string(to)))
	return updated, nil
}
