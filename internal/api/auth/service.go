package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vipogroup/vipo-api/internal/loaders"
	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
	"github.com/vipogroup/vipo-api/internal/utils"
)

const (
	bcryptCost        = 10
	minPasswordLength = 6
	couponAttempts    = 5
)

type Store interface {
	RegisterUser(ctx context.Context, u *types.User, referrerID string, referralBonus float64) error
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	FindUserByLogin(ctx context.Context, email, phone string) (*types.User, error)
	FindAgentByCoupon(ctx context.Context, code string) (*types.User, error)
	CouponExists(ctx context.Context, code string) (bool, error)
}

type Events interface {
	UserRegistered(fullName, role, contact string)
}

type Options struct {
	ReferralBonus     float64
	DiscountPercent   float64
	CommissionPercent float64
}

type Service struct {
	store  Store
	tokens *shared.TokenManager
	events Events
	opts   Options
	now    func() time.Time
}

func NewService(store Store, tokens *shared.TokenManager, events Events, opts Options) *Service {
	return &Service{store: store, tokens: tokens, events: events, opts: opts, now: time.Now}
}

// Register creates a customer or agent. refSource is the referral cookie
// value and wins over req.ReferrerID.
func (s *Service) Register(ctx context.Context, req RegisterRequest, refSource string) (*RegisterResponse, error) {
	if req.Password == "" {
		return nil, utils.BadRequest("missing_password", "password is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, utils.BadRequest("weak_password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	email := utils.NormalizeEmail(req.Email)
	phone := utils.NormalizePhone(req.Phone)
	if email == "" && phone == "" {
		return nil, utils.BadRequest("missing_contact", "phone or email is required")
	}

	role := types.RoleCustomer
	if r := strings.ToLower(strings.TrimSpace(req.Role)); r != "" {
		role = types.Role(r)
		if role != types.RoleCustomer && role != types.RoleAgent {
			return nil, utils.BadRequest("invalid_role", "role must be customer or agent")
		}
	}

	existing, err := s.store.FindUserByLogin(ctx, email, phone)
	if err != nil && !errors.Is(err, loaders.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, utils.Conflict("user_exists", "a user with this phone or email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &types.User{
		ID:           uuid.NewString(),
		TenantID:     shared.TenantFrom(ctx),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CouponStatus: types.CouponInactive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if role == types.RoleAgent {
		code, err := s.generateCoupon(ctx, user.FullName, email)
		if err != nil {
			return nil, err
		}
		user.CouponCode = code
		user.CouponStatus = types.CouponActive
		user.DiscountPercent = s.opts.DiscountPercent
		user.CommissionPercent = s.opts.CommissionPercent
	}

	referrerID := s.resolveReferrer(ctx, firstNonEmpty(refSource, req.ReferrerID), user.ID)

	if err := s.store.RegisterUser(ctx, user, referrerID, s.opts.ReferralBonus); err != nil {
		if errors.Is(err, loaders.ErrConflict) {
			return nil, utils.Conflict("user_exists", "a user with this phone or email already exists")
		}
		return nil, err
	}

	utils.Zlog.Info("User registered",
		zap.String("userId", user.ID),
		zap.String("role", string(role)),
		zap.Bool("referred", referrerID != ""))
	if s.events != nil {
		s.events.UserRegistered(user.FullName, string(role), firstNonEmpty(email, phone))
	}

	resp := &RegisterResponse{OK: true, UserID: user.ID, Role: role}
	if user.CouponCode != "" {
		resp.CouponCode = &user.CouponCode
	}
	return resp, nil
}

// resolveReferrer accepts a user id or an agent coupon code. Unknown values
// and self-referrals are ignored.
func (s *Service) resolveReferrer(ctx context.Context, ref, newUserID string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == newUserID {
		return ""
	}
	if u, err := s.store.GetUserByID(ctx, ref); err == nil && u.IsActive {
		return u.ID
	}
	if u, err := s.store.FindAgentByCoupon(ctx, ref); err == nil && u.IsActive {
		return u.ID
	}
	utils.Zlog.Debug("Ignoring unknown referrer", zap.String("ref", ref))
	return ""
}

func (s *Service) generateCoupon(ctx context.Context, fullName, email string) (string, error) {
	base := couponBase(fullName)
	if base == "" {
		base = couponBase(strings.Split(email, "@")[0])
	}
	if base == "" {
		base = "agent"
	}
	for i := 0; i < couponAttempts; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(9000))
		if err != nil {
			return "", err
		}
		code := fmt.Sprintf("%s%d", base, 1000+n.Int64())
		exists, err := s.store.CouponExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check coupon: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique coupon code")
}

// couponBase keeps up to eight ASCII letters of the first word.
func couponBase(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToLower(fields[0]) {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			b.WriteRune(r)
		}
		if b.Len() == 8 {
			break
		}
	}
	return b.String()
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*types.User, string, time.Time, error) {
	invalid := utils.Unauthorized("invalid credentials")
	invalid.Code = "invalid_credentials"

	email := utils.NormalizeEmail(req.Email)
	phone := utils.NormalizePhone(req.Phone)
	if email == "" && phone == "" {
		return nil, "", time.Time{}, utils.BadRequest("missing_contact", "email or phone is required")
	}
	// The login form has one field; accept a phone typed into it.
	if phone == "" && !strings.Contains(email, "@") {
		phone, email = utils.NormalizePhone(email), ""
	}

	user, err := s.store.FindUserByLogin(ctx, email, phone)
	if errors.Is(err, loaders.ErrNotFound) {
		return nil, "", time.Time{}, invalid
	}
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, "", time.Time{}, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", time.Time{}, invalid
	}

	token, expires, err := s.tokens.Issue(user.ID, user.Role, user.TenantID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	utils.Zlog.Info("User logged in", zap.String("userId", user.ID), zap.String("role", string(user.Role)))
	return user, token, expires, nil
}

func (s *Service) Me(ctx context.Context, userID string) (*types.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, loaders.ErrNotFound) {
		return nil, utils.Unauthorized("Unauthorized")
	}
	return user, err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
