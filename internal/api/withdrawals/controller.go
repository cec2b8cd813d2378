package withdrawals

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/utils"
)

// Controller handles HTTP requests for agent withdrawals
type Controller struct {
	service *Service
}

// NewController creates a new withdrawals controller
func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

// Create godoc
// @Summary Request a withdrawal
// @Tags withdrawals
// @Accept json
// @Produce json
// @Param request body CreateRequest true "Amount"
// @Success 201 {object} CreateResponse
// @Failure 400 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Failure 409 {object} utils.APIError
// @Router /api/withdrawals [post]
func (ctrl *Controller) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.WriteError(c, utils.BadRequest("invalid_amount", err.Error()))
		return
	}
	id, _ := shared.CurrentUser(c)
	w, err := ctrl.service.Create(c.Request.Context(), id, req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreateResponse{OK: true, Withdrawal: w})
}

// ListMine godoc
// @Summary List my withdrawal requests
// @Tags withdrawals
// @Produce json
// @Success 200 {object} ListResponse
// @Failure 403 {object} utils.APIError
// @Router /api/withdrawals [get]
func (ctrl *Controller) ListMine(c *gin.Context) {
	id, _ := shared.CurrentUser(c)
	items, err := ctrl.service.ListMine(c.Request.Context(), id)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{OK: true, Items: items})
}

// AdminList godoc
// @Summary List withdrawal requests
// @Tags withdrawals
// @Produce json
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} AdminListResponse
// @Failure 400 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Router /api/admin/withdrawals [get]
func (ctrl *Controller) AdminList(c *gin.Context) {
	p := utils.ParsePagination(c, utils.DefaultPageSize)
	resp, err := ctrl.service.AdminList(c.Request.Context(), c.Query("status"), p)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get a withdrawal request
// @Tags withdrawals
// @Produce json
// @Param id path string true "Withdrawal ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.APIError
// @Failure 404 {object} utils.APIError
// @Router /api/admin/withdrawals/{id} [get]
func (ctrl *Controller) Get(c *gin.Context) {
	w, err := ctrl.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "withdrawal": w})
}

// Process godoc
// @Summary Approve, reject or complete a withdrawal
// @Tags withdrawals
// @Accept json
// @Produce json
// @Param id path string true "Withdrawal ID"
// @Param request body ProcessRequest true "Action"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Failure 404 {object} utils.APIError
// @Failure 409 {object} utils.APIError
// @Router /api/admin/withdrawals/{id} [patch]
func (ctrl *Controller) Process(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.WriteBindError(c, err)
		return
	}
	id, _ := shared.CurrentUser(c)
	w, err := ctrl.service.Process(c.Request.Context(), id, c.Param("id"), req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "withdrawal": w})
}
