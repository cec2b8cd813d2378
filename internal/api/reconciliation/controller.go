package reconciliation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/utils"
)

// Controller handles HTTP requests for ERP reconciliation
type Controller struct {
	service *Service
}

// NewController creates a new reconciliation controller
func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

// Report godoc
// @Summary Reconciliation report
// @Tags reconciliation
// @Produce json
// @Param startDate query string false "From (YYYY-MM-DD)"
// @Param endDate query string false "To (YYYY-MM-DD)"
// @Success 200 {object} Report
// @Failure 400 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Router /api/admin/priority/reconciliation [get]
func (ctrl *Controller) Report(c *gin.Context) {
	report, err := ctrl.service.Report(c.Request.Context(), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// UpdateSync godoc
// @Summary Record an ERP sync outcome
// @Tags reconciliation
// @Accept json
// @Produce json
// @Param orderId path string true "Order ID"
// @Param request body SyncUpdateRequest true "Sync state"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Failure 404 {object} utils.APIError
// @Router /api/admin/priority/sync/{orderId} [patch]
func (ctrl *Controller) UpdateSync(c *gin.Context) {
	var req SyncUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.WriteBindError(c, err)
		return
	}
	m, err := ctrl.service.UpdateSync(c.Request.Context(), c.Param("orderId"), req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "syncMap": m})
}
