package orders

import "github.com/vipogroup/vipo-api/internal/types"

type ItemRequest struct {
	ProductID string  `json:"productId"`
	Quantity  float64 `json:"quantity"`
}

type CouponRequest struct {
	Code    string `json:"code"`
	AgentID string `json:"agentId"`
}

type CreateOrderRequest struct {
	Items    []ItemRequest   `json:"items"`
	Coupon   *CouponRequest  `json:"coupon"`
	Customer *types.Customer `json:"customer"`
}

// CartLine is a validated ItemRequest.
type CartLine struct {
	ProductID string
	Quantity  int
}

type CreateOrderResponse struct {
	OK               bool              `json:"ok"`
	OrderID          string            `json:"orderId"`
	OrderNumber      string            `json:"orderNumber"`
	Totals           types.OrderTotals `json:"totals"`
	DiscountAmount   float64           `json:"discountAmount"`
	CouponCode       *string           `json:"couponCode"`
	RefSource        *string           `json:"refSource"`
	RefAgentID       *string           `json:"refAgentId"`
	CommissionAmount float64           `json:"commissionAmount"`
}

type ListOrdersResponse struct {
	Items []types.Order `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type UpdateStatusRequest struct {
	Status        string `json:"status" binding:"required"`
	PaymentStatus string `json:"paymentStatus"`
}
