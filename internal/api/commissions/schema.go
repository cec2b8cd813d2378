package commissions

import (
	"github.com/vipogroup/vipo-api/internal/loaders"
	"github.com/vipogroup/vipo-api/internal/types"
)

type Summary struct {
	Balance   float64 `json:"balance"`
	OnHold    float64 `json:"onHold"`
	Pending   float64 `json:"pending"`
	Available float64 `json:"available"`
	Claimed   float64 `json:"claimed"`
	Cancelled float64 `json:"cancelled"`
	// Orders counts every order that carries a commission.
	Orders     int     `json:"orders"`
	TotalSales float64 `json:"totalSales"`
}

type CommissionsResponse struct {
	OK      bool                       `json:"ok"`
	Summary Summary                    `json:"summary"`
	Buckets []loaders.CommissionBucket `json:"buckets"`
	Orders  []types.Order              `json:"orders"`
}

type ReleaseResult struct {
	OK       bool               `json:"ok"`
	Released int                `json:"released"`
	Agents   int                `json:"agents"`
	Amount   float64            `json:"amount"`
	ByAgent  map[string]float64 `json:"byAgent"`
}

type AgentSettingsRequest struct {
	DiscountPercent   *float64 `json:"discountPercent" binding:"omitempty,min=0,max=100"`
	CommissionPercent *float64 `json:"commissionPercent" binding:"omitempty,min=0,max=100"`
	CouponStatus      *string  `json:"couponStatus" binding:"omitempty,oneof=active inactive"`
	CouponCode        *string  `json:"couponCode" binding:"omitempty,coupon"`
}

type AgentsResponse struct {
	Items      []types.User   `json:"items"`
	Pagination types.PageInfo `json:"pagination"`
}
