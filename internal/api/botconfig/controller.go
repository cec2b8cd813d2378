package botconfig

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
	"github.com/vipogroup/vipo-api/internal/utils"
)

// Controller handles HTTP requests for bot configuration
type Controller struct {
	service *Service
}

// NewController creates a new botconfig controller
func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

func (ctrl *Controller) writeScope(c *gin.Context, q ScopeQuery) (types.BotScope, bool) {
	scope, err := ResolveScope(q)
	if err != nil {
		utils.WriteError(c, err)
		return scope, false
	}
	id, _ := shared.CurrentUser(c)
	if err := Authorize(id, scope); err != nil {
		utils.WriteError(c, err)
		return scope, false
	}
	return scope, true
}

func (ctrl *Controller) respond(c *gin.Context, cfg *types.BotConfig, err error) {
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, ConfigResponse{Success: true, Config: cfg})
}

// Get godoc
// @Summary Get the bot configuration
// @Tags bot-config
// @Produce json
// @Param ownerType query string false "global or business"
// @Param businessId query string false "Business scope"
// @Success 200 {object} ConfigResponse
// @Failure 400 {object} utils.APIError
// @Failure 429 {object} utils.APIError
// @Router /api/bot-config [get]
func (ctrl *Controller) Get(c *gin.Context) {
	var q ScopeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.WriteBindError(c, err)
		return
	}
	scope, err := ResolveScope(q)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	cfg, err := ctrl.service.Get(c.Request.Context(), scope)
	ctrl.respond(c, cfg, err)
}

// Public godoc
// @Summary Get the public bot configuration
// @Tags bot-config
// @Produce json
// @Param ownerType query string false "global or business"
// @Param businessId query string false "Business scope"
// @Success 200 {object} ConfigResponse
// @Failure 400 {object} utils.APIError
// @Failure 429 {object} utils.APIError
// @Router /api/bot-config/public [get]
func (ctrl *Controller) Public(c *gin.Context) {
	var q ScopeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.WriteBindError(c, err)
		return
	}
	scope, err := ResolveScope(q)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	cfg, err := ctrl.service.Public(c.Request.Context(), scope)
	ctrl.respond(c, cfg, err)
}

// Update godoc
// @Summary Replace bot configuration fields
// @Tags bot-config
// @Accept json
// @Produce json
// @Param request body UpdateRequest true "Fields"
// @Success 200 {object} ConfigResponse
// @Failure 400 {object} utils.APIError
// @Failure 401 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Router /api/bot-config [put]
func (ctrl *Controller) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.WriteBindError(c, err)
		return
	}
	scope, ok := ctrl.writeScope(c, req.ScopeQuery)
	if !ok {
		return
	}
	cfg, err := ctrl.service.Update(c.Request.Context(), scope, req)
	ctrl.respond(c, cfg, err)
}

// Add godoc
// @Summary Add a question or category
// @Tags bot-config
// @Accept json
// @Produce json
// @Param request body AddRequest true "Entry"
// @Success 200 {object} ConfigResponse
// @Failure 400 {object} utils.APIError
// @Failure 401 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Router /api/bot-config [post]
func (ctrl *Controller) Add(c *gin.Context) {
	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.WriteBindError(c, err)
		return
	}
	scope, ok := ctrl.writeScope(c, req.ScopeQuery)
	if !ok {
		return
	}
	cfg, err := ctrl.service.Add(c.Request.Context(), scope, req)
	ctrl.respond(c, cfg, err)
}

// Delete godoc
// @Summary Remove a question or category
// @Tags bot-config
// @Produce json
// @Param action query string true "deleteCategory or deleteQuestion"
// @Param categoryId query string true "Category ID"
// @Param questionId query string false "Question ID"
// @Success 200 {object} ConfigResponse
// @Failure 400 {object} utils.APIError
// @Failure 401 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Failure 404 {object} utils.APIError
// @Router /api/bot-config [delete]
func (ctrl *Controller) Delete(c *gin.Context) {
	var q DeleteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.WriteBindError(c, err)
		return
	}
	scope, ok := ctrl.writeScope(c, q.ScopeQuery)
	if !ok {
		return
	}
	cfg, err := ctrl.service.Delete(c.Request.Context(), scope, q)
	ctrl.respond(c, cfg, err)
}

// Import godoc
// @Summary Import questions from markdown
// @Tags bot-config
// @Accept json
// @Produce json
// @Param request body ImportRequest true "Markdown"
// @Success 200 {object} ConfigResponse
// @Failure 400 {object} utils.APIError
// @Failure 401 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Router /api/bot-config/import [post]
func (ctrl *Controller) Import(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.WriteBindError(c, err)
		return
	}
	scope, ok := ctrl.writeScope(c, req.ScopeQuery)
	if !ok {
		return
	}
	cfg, err := ctrl.service.Import(c.Request.Context(), scope, req)
	ctrl.respond(c, cfg, err)
}
