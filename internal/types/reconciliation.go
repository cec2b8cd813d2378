package types

import "time"

type SyncStatus string

const (
	SyncPending   SyncStatus = "pending"
	SyncSyncing   SyncStatus = "syncing"
	SyncSynced    SyncStatus = "synced"
	SyncPartial   SyncStatus = "partial"
	SyncFailed    SyncStatus = "failed"
	SyncCancelled SyncStatus = "cancelled"
)

func (s SyncStatus) Valid() bool {
	switch s {
	case SyncPending, SyncSyncing, SyncSynced, SyncPartial, SyncFailed, SyncCancelled:
		return true
	}
	return false
}

// SyncMap tracks how an order was mirrored into the ERP.
type SyncMap struct {
	OrderID              string     `db:"order_id" json:"orderId"`
	SyncStatus           SyncStatus `db:"sync_status" json:"syncStatus"`
	PriorityInvoiceID    string     `db:"priority_invoice_id" json:"priorityInvoiceId,omitempty"`
	InvoiceNumber        string     `db:"invoice_number" json:"invoiceNumber,omitempty"`
	PriorityReceiptID    string     `db:"priority_receipt_id" json:"priorityReceiptId,omitempty"`
	PriorityCreditNoteID string     `db:"priority_credit_note_id" json:"priorityCreditNoteId,omitempty"`
	PriorityCustomerID   string     `db:"priority_customer_id" json:"priorityCustomerId,omitempty"`
	PayplusAmount        *float64   `db:"payplus_amount" json:"payplusAmount,omitempty"`
	AmountMismatch       bool       `db:"amount_mismatch" json:"amountMismatch"`
	LastError            string     `db:"last_error" json:"lastError,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updatedAt"`
}

// SyncRecord is a sync map joined with its order.
type SyncRecord struct {
	SyncMap
	OrderAmount    float64   `json:"orderAmount"`
	OrderCreatedAt time.Time `json:"orderCreatedAt"`
}

type SyncUpdate struct {
	SyncStatus           SyncStatus
	PriorityInvoiceID    *string
	InvoiceNumber        *string
	PriorityReceiptID    *string
	PriorityCreditNoteID *string
	PriorityCustomerID   *string
	PayplusAmount        *float64
	LastError            *string
}
