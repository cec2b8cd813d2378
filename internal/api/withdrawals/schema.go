package withdrawals

import "github.com/vipogroup/vipo-api/internal/types"

type CreateRequest struct {
	Amount         *float64               `json:"amount"`
	Notes          string                 `json:"notes" binding:"max=1000"`
	PaymentDetails map[string]interface{} `json:"paymentDetails"`
}

type Action string

const (
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionComplete Action = "complete"
)

type ProcessRequest struct {
	Action     Action `json:"action" binding:"required,oneof=approve reject complete"`
	AdminNotes string `json:"adminNotes" binding:"max=1000"`
}

type CreateResponse struct {
	OK         bool                     `json:"ok"`
	Withdrawal *types.WithdrawalRequest `json:"withdrawal"`
}

type ListResponse struct {
	OK    bool                      `json:"ok"`
	Items []types.WithdrawalRequest `json:"items"`
}

type AdminListResponse struct {
	OK         bool                       `json:"ok"`
	Items      []types.WithdrawalWithUser `json:"items"`
	Pagination types.PageInfo             `json:"pagination"`
	Stats      []types.WithdrawalStats    `json:"stats"`
}
