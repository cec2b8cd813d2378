package types

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

type CouponStatus string

const (
	CouponActive   CouponStatus = "active"
	CouponInactive CouponStatus = "inactive"
)

type User struct {
	ID                string       `db:"id" json:"id"`
	TenantID          string       `db:"tenant_id" json:"tenantId,omitempty"`
	FullName          string       `db:"full_name" json:"fullName"`
	Email             string       `db:"email" json:"email,omitempty"`
	Phone             string       `db:"phone" json:"phone,omitempty"`
	PasswordHash      string       `db:"password_hash" json:"-"`
	Role              Role         `db:"role" json:"role"`
	IsActive          bool         `db:"is_active" json:"isActive"`
	ReferredBy        *string      `db:"referred_by" json:"referredBy,omitempty"`
	ReferralsCount    int          `db:"referrals_count" json:"referralsCount"`
	CouponCode        string       `db:"coupon_code" json:"couponCode,omitempty"`
	CouponStatus      CouponStatus `db:"coupon_status" json:"couponStatus,omitempty"`
	DiscountPercent   float64      `db:"discount_percent" json:"discountPercent"`
	CommissionPercent float64      `db:"commission_percent" json:"commissionPercent"`
	CommissionBalance float64      `db:"commission_balance" json:"commissionBalance"`
	CommissionOnHold  float64      `db:"commission_on_hold" json:"commissionOnHold"`
	TotalSales        float64      `db:"total_sales" json:"totalSales"`
	CreatedAt         time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updatedAt"`
}

func (u *User) IsAgent() bool { return u.Role == RoleAgent }

// HasActiveCoupon reports whether checkout may apply this agent's coupon.
func (u *User) HasActiveCoupon() bool {
	return u.Role == RoleAgent && u.IsActive && u.CouponCode != "" && u.CouponStatus == CouponActive
}

// UserSummary is the public projection of a user embedded in other payloads.
type UserSummary struct {
	ID                string  `json:"id"`
	FullName          string  `json:"fullName"`
	Email             string  `json:"email,omitempty"`
	Phone             string  `json:"phone,omitempty"`
	Role              Role    `json:"role"`
	CommissionBalance float64 `json:"commissionBalance"`
	CommissionOnHold  float64 `json:"commissionOnHold"`
}

func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:                u.ID,
		FullName:          u.FullName,
		Email:             u.Email,
		Phone:             u.Phone,
		Role:              u.Role,
		CommissionBalance: u.CommissionBalance,
		CommissionOnHold:  u.CommissionOnHold,
	}
}

// AgentSettingsUpdate carries the admin-editable coupon fields of an agent.
type AgentSettingsUpdate struct {
	DiscountPercent   *float64      `json:"discountPercent,omitempty"`
	CommissionPercent *float64      `json:"commissionPercent,omitempty"`
	CouponStatus      *CouponStatus `json:"couponStatus,omitempty"`
	CouponCode        *string       `json:"couponCode,omitempty"`
}
