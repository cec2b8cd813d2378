package types

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderDraft     OrderStatus = "draft"
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
	OrderCompleted OrderStatus = "completed"
	OrderFailed    OrderStatus = "failed"
)

var OrderStatuses = []OrderStatus{OrderDraft, OrderPending, OrderPaid, OrderCancelled, OrderCompleted, OrderFailed}

type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentProcessing    PaymentStatus = "processing"
	PaymentInitiated     PaymentStatus = "initiated"
	PaymentSuccess       PaymentStatus = "success"
	PaymentFinalSuccess  PaymentStatus = "final-success"
	PaymentFailed        PaymentStatus = "failed"
	PaymentFinalFailed   PaymentStatus = "final-failed"
	PaymentCancelled     PaymentStatus = "cancelled"
	PaymentRefunded      PaymentStatus = "refunded"
	PaymentPartialRefund PaymentStatus = "partial_refund"
	PaymentChargeback    PaymentStatus = "chargeback"
)

type CommissionStatus string

const (
	CommissionNone      CommissionStatus = "none"
	CommissionPending   CommissionStatus = "pending"
	CommissionAvailable CommissionStatus = "available"
	CommissionClaimed   CommissionStatus = "claimed"
	CommissionCancelled CommissionStatus = "cancelled"
)

type OrderItem struct {
	ProductID  string  `json:"productId"`
	Name       string  `json:"name"`
	SKU        string  `json:"sku,omitempty"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
}

type Customer struct {
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
}

type Order struct {
	ID                    string           `db:"id" json:"id"`
	TenantID              string           `db:"tenant_id" json:"tenantId,omitempty"`
	CreatedBy             string           `db:"created_by" json:"createdBy"`
	Customer              Customer         `db:"customer" json:"customer"`
	Items                 []OrderItem      `db:"items" json:"items"`
	Subtotal              float64          `db:"subtotal" json:"subtotal"`
	DiscountPercent       float64          `db:"discount_percent" json:"discountPercent"`
	DiscountAmount        float64          `db:"discount_amount" json:"discountAmount"`
	TotalAmount           float64          `db:"total_amount" json:"totalAmount"`
	Status                OrderStatus      `db:"status" json:"status"`
	PaymentStatus         PaymentStatus    `db:"payment_status" json:"paymentStatus"`
	RefSource             string           `db:"ref_source" json:"refSource,omitempty"`
	RefAgentID            *string          `db:"ref_agent_id" json:"refAgentId,omitempty"`
	AgentID               *string          `db:"agent_id" json:"agentId,omitempty"`
	AppliedCouponCode     string           `db:"applied_coupon_code" json:"appliedCouponCode,omitempty"`
	CommissionPercent     float64          `db:"commission_percent" json:"commissionPercent"`
	CommissionAmount      float64          `db:"commission_amount" json:"commissionAmount"`
	CommissionStatus      CommissionStatus `db:"commission_status" json:"commissionStatus"`
	CommissionAvailableAt *time.Time       `db:"commission_available_at" json:"commissionAvailableAt,omitempty"`
	CreatedAt             time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time        `db:"updated_at" json:"updatedAt"`
}

// Number is the short human reference used by support and reports.
func (o *Order) Number() string {
	return OrderNumber(o.ID)
}

func OrderNumber(id string) string {
	clean := strings.ReplaceAll(id, "-", "")
	if len(clean) <= 6 {
		return strings.ToUpper(clean)
	}
	return strings.ToUpper(clean[len(clean)-6:])
}

// CommissionAgentID is the agent credited for the order, if any.
func (o *Order) CommissionAgentID() string {
	if o.AgentID != nil && *o.AgentID != "" {
		return *o.AgentID
	}
	if o.RefAgentID != nil {
		return *o.RefAgentID
	}
	return ""
}

type OrderFilter struct {
	Status OrderStatus
	Query  string
	// TenantID narrows any scope to one business.
	TenantID string
	// Exactly one scope applies; admin listings leave all empty.
	AgentID       string
	CustomerID    string
	CustomerEmail string
	Limit         int
	Offset        int
}

type OrderTotals struct {
	Subtotal        float64 `json:"subtotal"`
	DiscountPercent float64 `json:"discountPercent"`
	DiscountAmount  float64 `json:"discountAmount"`
	TotalAmount     float64 `json:"totalAmount"`
}
