package orders

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/utils"
)

// Controller handles HTTP requests for orders
type Controller struct {
	service *Service
}

// NewController creates a new orders controller
func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

// Create godoc
// @Summary Place an order
// @Description Prices the cart from the catalogue, applies an agent coupon and attributes commission
// @Tags orders
// @Accept json
// @Produce json
// @Param request body CreateOrderRequest true "Order"
// @Success 201 {object} CreateOrderResponse
// @Failure 400 {object} utils.APIError
// @Failure 401 {object} utils.APIError
// @Failure 404 {object} utils.APIError
// @Failure 429 {object} utils.APIError
// @Router /api/orders [post]
func (ctrl *Controller) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.WriteBindError(c, err)
		return
	}
	id, _ := shared.CurrentUser(c)
	refSource, _ := c.Cookie(shared.RefSourceCookie)

	resp, err := ctrl.service.Create(c.Request.Context(), id, req, refSource)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary List visible orders
// @Tags orders
// @Produce json
// @Param status query string false "Status filter"
// @Param q query string false "Search text"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} ListOrdersResponse
// @Failure 400 {object} utils.APIError
// @Failure 401 {object} utils.APIError
// @Router /api/orders [get]
func (ctrl *Controller) List(c *gin.Context) {
	id, _ := shared.CurrentUser(c)
	page := utils.ParsePagination(c, utils.DefaultPageSize)

	resp, err := ctrl.service.List(c.Request.Context(), id, c.Query("status"), strings.TrimSpace(c.Query("q")), page)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get one order
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.APIError
// @Failure 404 {object} utils.APIError
// @Router /api/orders/{id} [get]
func (ctrl *Controller) Get(c *gin.Context) {
	id, _ := shared.CurrentUser(c)
	order, err := ctrl.service.Get(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "order": order})
}

// UpdateStatus godoc
// @Summary Change an order status
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body UpdateStatusRequest true "Status"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Failure 404 {object} utils.APIError
// @Router /api/admin/orders/{id} [patch]
func (ctrl *Controller) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.WriteBindError(c, err)
		return
	}
	order, err := ctrl.service.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "order": order})
}
