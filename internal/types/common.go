package types

import "time"

type ErrorResponse struct {
	Error     string                 `json:"error"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type PageInfo struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func NewPageInfo(page, limit, total int) PageInfo {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return PageInfo{Page: page, Limit: limit, Total: total, Pages: pages}
}

type AuditLog struct {
	ID        string                 `db:"id" json:"id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	ActorID   *string                `db:"actor_id" json:"actorId,omitempty"`
	Details   map[string]interface{} `db:"details" json:"details,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"createdAt"`
}
