package auth

import "github.com/vipogroup/vipo-api/internal/types"

type RegisterRequest struct {
	FullName   string `json:"fullName" binding:"max=120"`
	Phone      string `json:"phone" binding:"omitempty,phone"`
	Email      string `json:"email" binding:"omitempty,email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	ReferrerID string `json:"referrerId"`
}

type RegisterResponse struct {
	OK         bool       `json:"ok"`
	UserID     string     `json:"userId"`
	Role       types.Role `json:"role"`
	CouponCode *string    `json:"couponCode"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	OK        bool        `json:"ok"`
	User      *types.User `json:"user"`
	ExpiresAt string      `json:"expiresAt"`
}
