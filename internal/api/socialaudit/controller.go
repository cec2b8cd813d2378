package socialaudit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/utils"
)

// Controller handles HTTP requests for social link audits
type Controller struct {
	service *Service
}

// NewController creates a new socialaudit controller
func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

// Scan godoc
// @Summary Scan site pages for social links
// @Description Small scans run inline; larger ones are queued and return 202
// @Tags social-audit
// @Accept json
// @Produce json
// @Param request body ScanRequest false "Scan options"
// @Success 200 {object} ScanResponse
// @Failure 400 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Router /api/admin/social-audit [post]
func (ctrl *Controller) Scan(c *gin.Context) {
	var req ScanRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.WriteBindError(c, err)
			return
		}
	}
	id, _ := shared.CurrentUser(c)
	resp, err := ctrl.service.Scan(c.Request.Context(), id, req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	status := http.StatusOK
	if resp.Queued {
		status = http.StatusAccepted
	}
	c.JSON(status, resp)
}

// List godoc
// @Summary List audit reports
// @Tags social-audit
// @Produce json
// @Param type query string false "Report type"
// @Param status query string false "Report status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} ListResponse
// @Failure 403 {object} utils.APIError
// @Router /api/admin/social-audit [get]
func (ctrl *Controller) List(c *gin.Context) {
	p := utils.ParsePagination(c, utils.DefaultPageSize)
	resp, err := ctrl.service.List(c.Request.Context(), ListQuery{Type: c.Query("type"), Status: c.Query("status")}, p)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Export godoc
// @Summary Export an audit report
// @Tags social-audit
// @Produce octet-stream
// @Param reportId query string false "Report ID, latest when empty"
// @Param format query string false "json or csv"
// @Success 200 {file} file
// @Failure 400 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Failure 404 {object} utils.APIError
// @Router /api/admin/social-audit/export [get]
func (ctrl *Controller) Export(c *gin.Context) {
	export, err := ctrl.service.Export(c.Request.Context(), c.Query("reportId"), ExportFormat(c.DefaultQuery("format", "json")))
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	c.Data(http.StatusOK, export.ContentType, export.Body)
}
