package orders

import (
	"strings"

	"github.com/vipogroup/vipo-api/internal/types"
)

var legacyStatuses = map[string]types.OrderStatus{
	"processing":        types.OrderPending,
	"in-progress":       types.OrderPending,
	"in_progress":       types.OrderPending,
	"awaiting":          types.OrderPending,
	"queued":            types.OrderPending,
	"hold":              types.OrderPending,
	"on-hold":           types.OrderPending,
	"on_hold":           types.OrderPending,
	"awaiting-payment":  types.OrderPending,
	"awaiting_payment":  types.OrderPending,
	"awaiting-shipment": types.OrderPending,
	"awaiting_shipment": types.OrderPending,
	"success":           types.OrderPaid,
	"approved":          types.OrderPaid,
	"fulfilled":         types.OrderCompleted,
	"shipped":           types.OrderCompleted,
	"shipping":          types.OrderCompleted,
	"delivered":         types.OrderCompleted,
	"ready-for-pickup":  types.OrderCompleted,
	"ready_for_pickup":  types.OrderCompleted,
	"settled":           types.OrderCompleted,
	"canceled":          types.OrderCancelled,
	"void":              types.OrderCancelled,
	"rejected":          types.OrderCancelled,
	"declined":          types.OrderCancelled,
	"abandoned":         types.OrderCancelled,
	"expired":           types.OrderCancelled,
	"failure":           types.OrderFailed,
	"error":             types.OrderFailed,
	"chargeback":        types.OrderFailed,
	"dispute":           types.OrderFailed,
	"lost":              types.OrderFailed,
	"refunded":          types.OrderFailed,
	"refund":            types.OrderFailed,
	"partial-refund":    types.OrderFailed,
	"partial_refund":    types.OrderFailed,
}

var transitions = map[types.OrderStatus][]types.OrderStatus{
	types.OrderDraft:   {types.OrderPending, types.OrderCancelled, types.OrderFailed},
	types.OrderPending: {types.OrderPaid, types.OrderCancelled, types.OrderFailed},
	types.OrderPaid:    {types.OrderCompleted, types.OrderCancelled, types.OrderFailed},
}

// NormalizeStatus maps canonical and legacy spellings to an OrderStatus.
func NormalizeStatus(raw string) (types.OrderStatus, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	for _, s := range types.OrderStatuses {
		if string(s) == v {
			return s, true
		}
	}
	s, ok := legacyStatuses[v]
	return s, ok
}

// CanTransition reports whether from may move to to. Final states never move.
func CanTransition(from, to types.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsFinal(s types.OrderStatus) bool {
	return len(transitions[s]) == 0
}

// CoercePaymentStatus keeps the requested payment status when it agrees with
// the order status and falls back to the natural one otherwise.
func CoercePaymentStatus(order types.OrderStatus, requested string) types.PaymentStatus {
	p := types.PaymentStatus(strings.ToLower(strings.TrimSpace(requested)))
	oneOf := func(options ...types.PaymentStatus) bool {
		for _, o := range options {
			if o == p {
				return true
			}
		}
		return false
	}

	switch order {
	case types.OrderPaid, types.OrderCompleted:
		if oneOf(types.PaymentSuccess, types.PaymentFinalSuccess) {
			return p
		}
		return types.PaymentSuccess
	case types.OrderCancelled:
		return types.PaymentCancelled
	case types.OrderFailed:
		if oneOf(types.PaymentFailed, types.PaymentFinalFailed, types.PaymentChargeback,
			types.PaymentRefunded, types.PaymentPartialRefund) {
			return p
		}
		return types.PaymentFailed
	default:
		if oneOf(types.PaymentPending, types.PaymentProcessing, types.PaymentInitiated) {
			return p
		}
		return types.PaymentPending
	}
}
