package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vipogroup/vipo-api/internal/types"
)

func TestPrice(t *testing.T) {
	t.Run("no attribution", func(t *testing.T) {
		p := Price(199.9, Attribution{})
		assert.Equal(t, 199.9, p.Totals.TotalAmount)
		assert.Zero(t, p.Totals.DiscountAmount)
		assert.Zero(t, p.CommissionAmount)
	})

	t.Run("coupon discounts then pays on the discounted total", func(t *testing.T) {
		p := Price(200, Attribution{Source: SourceCoupon, AgentID: "a1", DiscountPercent: 10, CommissionPercent: 12})
		assert.Equal(t, 10.0, p.Totals.DiscountPercent)
		assert.Equal(t, 20.0, p.Totals.DiscountAmount)
		assert.Equal(t, 180.0, p.Totals.TotalAmount)
		assert.Equal(t, 21.6, p.CommissionAmount)
	})

	t.Run("own coupon has no commission", func(t *testing.T) {
		p := Price(200, Attribution{Source: SourceCoupon, DiscountPercent: 10, CommissionPercent: 12})
		assert.Equal(t, 180.0, p.Totals.TotalAmount)
		assert.Zero(t, p.CommissionAmount)
	})

	t.Run("referral pays on the full total", func(t *testing.T) {
		p := Price(99.99, Attribution{Source: SourceReferral, AgentID: "a1", DiscountPercent: 50, CommissionPercent: 12})
		assert.Equal(t, 99.99, p.Totals.TotalAmount)
		assert.Zero(t, p.Totals.DiscountAmount)
		assert.Equal(t, 12.0, p.CommissionAmount)
	})

	t.Run("discount is capped", func(t *testing.T) {
		p := Price(50, Attribution{Source: SourceCoupon, AgentID: "a1", DiscountPercent: 150, CommissionPercent: 10})
		assert.Equal(t, 100.0, p.Totals.DiscountPercent)
		assert.Zero(t, p.Totals.TotalAmount)
		assert.Zero(t, p.CommissionAmount)
	})
}

func TestLineItems(t *testing.T) {
	resolved := map[string]types.Product{
		"mug": {ID: "p1", Slug: "mug", Name: "Mug", SKU: "MUG-1", Price: 0.1},
		"p2":  {ID: "p2", Name: "Shirt", Price: 59.9},
	}
	items, subtotal := LineItems([]CartLine{{ProductID: "mug", Quantity: 3}, {ProductID: "p2", Quantity: 2}}, resolved)

	assert.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 0.3, items[0].TotalPrice)
	assert.Equal(t, 119.8, items[1].TotalPrice)
	assert.Equal(t, 120.1, subtotal)
}
