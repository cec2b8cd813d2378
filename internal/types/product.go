package types

import "time"

type Product struct {
	ID          string    `db:"id" json:"id"`
	TenantID    string    `db:"tenant_id" json:"tenantId,omitempty"`
	Slug        string    `db:"slug" json:"slug"`
	LegacyID    string    `db:"legacy_id" json:"legacyId,omitempty"`
	SKU         string    `db:"sku" json:"sku,omitempty"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	Price       float64   `db:"price" json:"price"`
	Images      []string  `db:"images" json:"images,omitempty"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
