package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vipogroup/vipo-api/internal/types"
)

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]types.OrderStatus{
		"paid":             types.OrderPaid,
		" PENDING ":        types.OrderPending,
		"canceled":         types.OrderCancelled,
		"shipped":          types.OrderCompleted,
		"approved":         types.OrderPaid,
		"chargeback":       types.OrderFailed,
		"on_hold":          types.OrderPending,
		"Ready-For-Pickup": types.OrderCompleted,
	}
	for raw, want := range cases {
		got, ok := NormalizeStatus(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := NormalizeStatus("teleported")
	assert.False(t, ok)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(types.OrderPending, types.OrderPaid))
	assert.True(t, CanTransition(types.OrderPaid, types.OrderCompleted))
	assert.True(t, CanTransition(types.OrderPaid, types.OrderCancelled))
	assert.False(t, CanTransition(types.OrderPending, types.OrderCompleted))
	assert.False(t, CanTransition(types.OrderCancelled, types.OrderPending))
	assert.False(t, CanTransition(types.OrderCompleted, types.OrderFailed))

	assert.True(t, IsFinal(types.OrderCompleted))
	assert.True(t, IsFinal(types.OrderFailed))
	assert.False(t, IsFinal(types.OrderPaid))
}

func TestCoercePaymentStatus(t *testing.T) {
	assert.Equal(t, types.PaymentFinalSuccess, CoercePaymentStatus(types.OrderPaid, "final-success"))
	assert.Equal(t, types.PaymentSuccess, CoercePaymentStatus(types.OrderPaid, "failed"))
	assert.Equal(t, types.PaymentCancelled, CoercePaymentStatus(types.OrderCancelled, "success"))
	assert.Equal(t, types.PaymentChargeback, CoercePaymentStatus(types.OrderFailed, "chargeback"))
	assert.Equal(t, types.PaymentFailed, CoercePaymentStatus(types.OrderFailed, ""))
	assert.Equal(t, types.PaymentProcessing, CoercePaymentStatus(types.OrderPending, "processing"))
	assert.Equal(t, types.PaymentPending, CoercePaymentStatus(types.OrderPending, "success"))
}
