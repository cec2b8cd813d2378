package products

type ProductRequest struct {
	Slug        string   `json:"slug" binding:"required,max=120"`
	LegacyID    string   `json:"legacyId"`
	SKU         string   `json:"sku"`
	Name        string   `json:"name" binding:"required,max=200"`
	Description string   `json:"description"`
	Price       float64  `json:"price" binding:"gte=0"`
	Images      []string `json:"images" binding:"omitempty,dive,url"`
	IsActive    *bool    `json:"isActive"`
}
