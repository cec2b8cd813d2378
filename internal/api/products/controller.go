package products

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
	"github.com/vipogroup/vipo-api/internal/utils"
)

// Controller handles HTTP requests for the product catalogue
type Controller struct {
	service *Service
}

// NewController creates a new products controller
func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

func isAdmin(c *gin.Context) bool {
	id, ok := shared.CurrentUser(c)
	return ok && id.IsAdmin()
}

// List godoc
// @Summary List products
// @Tags products
// @Produce json
// @Param q query string false "Search text"
// @Param all query bool false "Include inactive (admin only)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /api/products [get]
func (ctrl *Controller) List(c *gin.Context) {
	p := utils.ParsePagination(c, utils.DefaultPageSize)
	items, total, err := ctrl.service.List(c.Request.Context(), c.Query("q"), isAdmin(c) && c.Query("all") == "true", p)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "pagination": types.NewPageInfo(p.Page, p.Limit, total)})
}

// Get godoc
// @Summary Get a product by id, slug or legacy id
// @Tags products
// @Produce json
// @Param ref path string true "Product reference"
// @Success 200 {object} types.Product
// @Failure 404 {object} utils.APIError
// @Router /api/products/{ref} [get]
func (ctrl *Controller) Get(c *gin.Context) {
	product, err := ctrl.service.Get(c.Request.Context(), c.Param("ref"), isAdmin(c))
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Create godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Param request body ProductRequest true "Product"
// @Success 201 {object} types.Product
// @Failure 400 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Failure 409 {object} utils.APIError
// @Router /api/admin/products [post]
func (ctrl *Controller) Create(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.WriteBindError(c, err)
		return
	}
	product, err := ctrl.service.Create(c.Request.Context(), req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// Update godoc
// @Summary Update a product
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body ProductRequest true "Product"
// @Success 200 {object} types.Product
// @Failure 400 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Failure 404 {object} utils.APIError
// @Failure 409 {object} utils.APIError
// @Router /api/admin/products/{id} [patch]
func (ctrl *Controller) Update(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.WriteBindError(c, err)
		return
	}
	product, err := ctrl.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
