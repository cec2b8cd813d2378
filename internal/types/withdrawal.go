package types

import "time"

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalRejected  WithdrawalStatus = "rejected"
	WithdrawalCompleted WithdrawalStatus = "completed"
)

func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalPending, WithdrawalApproved, WithdrawalRejected, WithdrawalCompleted:
		return true
	}
	return false
}

// Open requests still reserve part of the agent's balance.
func (s WithdrawalStatus) Open() bool {
	return s == WithdrawalPending || s == WithdrawalApproved
}

type WithdrawalRequest struct {
	ID              string                 `db:"id" json:"id"`
	UserID          string                 `db:"user_id" json:"userId"`
	Amount          float64                `db:"amount" json:"amount"`
	Notes           string                 `db:"notes" json:"notes,omitempty"`
	PaymentDetails  map[string]interface{} `db:"payment_details" json:"paymentDetails,omitempty"`
	Status          WithdrawalStatus       `db:"status" json:"status"`
	AdminNotes      string                 `db:"admin_notes" json:"adminNotes,omitempty"`
	SnapshotBalance float64                `db:"snapshot_balance" json:"snapshotBalance"`
	SnapshotOnHold  float64                `db:"snapshot_on_hold" json:"snapshotOnHold"`
	ProcessedBy     *string                `db:"processed_by" json:"processedBy,omitempty"`
	ProcessedAt     *time.Time             `db:"processed_at" json:"processedAt,omitempty"`
	CreatedAt       time.Time              `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time              `db:"updated_at" json:"updatedAt"`
}

type WithdrawalWithUser struct {
	WithdrawalRequest
	User *UserSummary `json:"user,omitempty"`
}

type WithdrawalStats struct {
	Status WithdrawalStatus `json:"status"`
	Count  int              `json:"count"`
	Amount float64          `json:"amount"`
}
