package commissions

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/utils"
)

// Controller handles HTTP requests for agent commissions
type Controller struct {
	service    *Service
	cronSecret string
}

// NewController creates a new commissions controller
func NewController(service *Service, cronSecret string) *Controller {
	return &Controller{service: service, cronSecret: cronSecret}
}

// Summary godoc
// @Summary Commission summary for an agent
// @Tags commissions
// @Produce json
// @Param agentId query string false "Agent (admin only)"
// @Success 200 {object} CommissionsResponse
// @Failure 401 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Router /api/agent/commissions [get]
func (ctrl *Controller) Summary(c *gin.Context) {
	id, _ := shared.CurrentUser(c)
	resp, err := ctrl.service.Summary(c.Request.Context(), id, c.Query("agentId"))
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Release godoc
// @Summary Release commissions past their hold
// @Tags commissions
// @Produce json
// @Success 200 {object} ReleaseResult
// @Failure 403 {object} utils.APIError
// @Router /api/admin/commissions/release [post]
func (ctrl *Controller) Release(c *gin.Context) {
	result, err := ctrl.service.Release(c.Request.Context())
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RequireCronSecret guards scheduler callbacks. An unset secret disables them.
func (ctrl *Controller) RequireCronSecret(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if ctrl.cronSecret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(ctrl.cronSecret)) != 1 {
		utils.WriteError(c, utils.Forbidden("Forbidden"))
		return
	}
	c.Next()
}

// ListAgents godoc
// @Summary List agents
// @Tags commissions
// @Produce json
// @Param q query string false "Search text"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} AgentsResponse
// @Failure 403 {object} utils.APIError
// @Router /api/admin/agents [get]
func (ctrl *Controller) ListAgents(c *gin.Context) {
	p := utils.ParsePagination(c, utils.DefaultPageSize)
	resp, err := ctrl.service.ListAgents(c.Request.Context(), c.Query("q"), p)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateAgent godoc
// @Summary Update agent commission settings
// @Tags commissions
// @Accept json
// @Produce json
// @Param id path string true "Agent ID"
// @Param request body AgentSettingsRequest true "Settings"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Failure 404 {object} utils.APIError
// @Failure 409 {object} utils.APIError
// @Router /api/admin/agents/{id} [patch]
func (ctrl *Controller) UpdateAgent(c *gin.Context) {
	var req AgentSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.WriteBindError(c, err)
		return
	}
	agent, err := ctrl.service.UpdateAgent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "agent": agent})
}
