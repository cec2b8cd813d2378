package reconciliation

import (
	"time"

	"github.com/vipogroup/vipo-api/internal/types"
)

type ItemStatus string

const (
	ItemFailed   ItemStatus = "failed"
	ItemPending  ItemStatus = "pending"
	ItemComplete ItemStatus = "complete"
	ItemUnknown  ItemStatus = "unknown"
)

var statusRank = map[ItemStatus]int{ItemFailed: 0, ItemPending: 1, ItemComplete: 2, ItemUnknown: 3}

type Item struct {
	OrderID            string           `json:"orderId"`
	OrderNumber        string           `json:"orderNumber"`
	OrderAmount        float64          `json:"orderAmount"`
	PayplusAmount      *float64         `json:"payplusAmount"`
	AmountMismatch     bool             `json:"amountMismatch"`
	Diff               float64          `json:"diff"`
	SyncStatus         types.SyncStatus `json:"syncStatus"`
	Status             ItemStatus       `json:"status"`
	HasInvoice         bool             `json:"hasInvoice"`
	InvoiceNumber      string           `json:"invoiceNumber,omitempty"`
	HasReceipt         bool             `json:"hasReceipt"`
	HasCreditNote      bool             `json:"hasCreditNote"`
	PriorityCustomerID string           `json:"priorityCustomerId,omitempty"`
	LastError          string           `json:"lastError,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
}

type Period struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

type Summary struct {
	Period             Period  `json:"period"`
	Total              int     `json:"total"`
	Synced             int     `json:"synced"`
	Pending            int     `json:"pending"`
	Failed             int     `json:"failed"`
	AmountMismatches   int     `json:"amountMismatches"`
	TotalOrderAmount   float64 `json:"totalOrderAmount"`
	TotalPayplusAmount float64 `json:"totalPayplusAmount"`
	Difference         float64 `json:"difference"`
	CompletionRate     int     `json:"completionRate"`
}

type Report struct {
	OK      bool    `json:"ok"`
	Summary Summary `json:"summary"`
	Items   []Item  `json:"items"`
}

type SyncUpdateRequest struct {
	SyncStatus           types.SyncStatus `json:"syncStatus" binding:"omitempty,oneof=pending syncing synced partial failed cancelled"`
	PriorityInvoiceID    *string          `json:"priorityInvoiceId" binding:"omitempty,max=100"`
	InvoiceNumber        *string          `json:"invoiceNumber" binding:"omitempty,max=100"`
	PriorityReceiptID    *string          `json:"priorityReceiptId" binding:"omitempty,max=100"`
	PriorityCreditNoteID *string          `json:"priorityCreditNoteId" binding:"omitempty,max=100"`
	PriorityCustomerID   *string          `json:"priorityCustomerId" binding:"omitempty,max=100"`
	PayplusAmount        *float64         `json:"payplusAmount" binding:"omitempty,min=0"`
	LastError            *string          `json:"lastError" binding:"omitempty,max=2000"`
}
