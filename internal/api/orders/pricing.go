package orders

import (
	"github.com/vipogroup/vipo-api/internal/types"
	"github.com/vipogroup/vipo-api/internal/utils"
)

type AttributionSource string

const (
	SourceNone     AttributionSource = ""
	SourceCoupon   AttributionSource = "coupon"
	SourceReferral AttributionSource = "referral"
)

// Attribution is the agent credited for an order and how it was found.
type Attribution struct {
	Source            AttributionSource
	AgentID           string
	CouponCode        string
	DiscountPercent   float64
	CommissionPercent float64
}

type Pricing struct {
	Totals           types.OrderTotals
	CommissionAmount float64
}

// Price computes totals. Coupons discount the subtotal and pay commission on
// the discounted total; referrals pay commission on the full total.
func Price(subtotal float64, attr Attribution) Pricing {
	subtotal = utils.RoundMoney(subtotal)
	p := Pricing{Totals: types.OrderTotals{Subtotal: subtotal, TotalAmount: subtotal}}

	if attr.Source == SourceCoupon && attr.DiscountPercent > 0 {
		pct := attr.DiscountPercent
		if pct > 100 {
			pct = 100
		}
		discount := utils.PercentOf(subtotal, pct)
		if discount > subtotal {
			discount = subtotal
		}
		p.Totals.DiscountPercent = pct
		p.Totals.DiscountAmount = discount
		p.Totals.TotalAmount = utils.SubMoney(subtotal, discount)
	}

	if attr.Source != SourceNone && attr.AgentID != "" {
		p.CommissionAmount = utils.PercentOf(p.Totals.TotalAmount, attr.CommissionPercent)
	}
	return p
}

// LineItems prices cart lines from the catalogue. Client prices are never used.
func LineItems(lines []CartLine, resolved map[string]types.Product) ([]types.OrderItem, float64) {
	items := make([]types.OrderItem, 0, len(lines))
	amounts := make([]float64, 0, len(lines))
	for _, line := range lines {
		p := resolved[line.ProductID]
		total := utils.LineTotal(p.Price, line.Quantity)
		items = append(items, types.OrderItem{
			ProductID:  p.ID,
			Name:       p.Name,
			SKU:        p.SKU,
			Quantity:   line.Quantity,
			UnitPrice:  p.Price,
			TotalPrice: total,
		})
		amounts = append(amounts, total)
	}
	return items, utils.SumMoney(amounts...)
}
