package backups

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/utils"
)

// Controller handles HTTP requests for database backups
type Controller struct {
	service *Service
}

// NewController creates a new backups controller
func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

func actor(c *gin.Context) string {
	if id, ok := shared.CurrentUser(c); ok {
		return id.UserID
	}
	return ""
}

// List godoc
// @Summary List backup archives
// @Tags backups
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.APIError
// @Router /api/admin/backups [get]
func (ctrl *Controller) List(c *gin.Context) {
	items, err := ctrl.service.List(c.Request.Context())
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "backups": items})
}

// Run godoc
// @Summary Run a backup action
// @Description Creates a backup, restores a named archive or removes old archives
// @Tags backups
// @Accept json
// @Produce json
// @Param request body ActionRequest true "Action"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Failure 404 {object} utils.APIError
// @Failure 409 {object} utils.APIError
// @Router /api/admin/backups [post]
func (ctrl *Controller) Run(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.WriteBindError(c, err)
		return
	}
	ctx := c.Request.Context()

	switch req.Action {
	case ActionBackup:
		res, err := ctrl.service.Create(ctx, actor(c))
		if err != nil {
			utils.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Backup completed", "backup": res})
	case ActionRestore:
		if req.Name == "" {
			utils.WriteError(c, utils.BadRequest("missing_name", "name is required for restore"))
			return
		}
		res, err := ctrl.service.Restore(ctx, actor(c), req.Name)
		if err != nil {
			utils.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Restore completed", "restore": res})
	case ActionCleanup:
		removed, err := ctrl.service.Cleanup(ctx, actor(c), req.Keep)
		if err != nil {
			utils.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "removed": removed})
	}
}

// Upload godoc
// @Summary Upload a backup archive
// @Description Validates the archive before storing it and optionally restores it
// @Tags backups
// @Produce json
// @Param file formData file true "Archive"
// @Param action formData string false "Set to restore to restore after upload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Failure 409 {object} utils.APIError
// @Failure 413 {object} utils.APIError
// @Router /api/admin/backups/upload [post]
func (ctrl *Controller) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		utils.WriteError(c, utils.BadRequest("missing_file", "No file uploaded"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	defer f.Close()

	restore := c.PostForm("action") == "restore"
	res, err := ctrl.service.Upload(c.Request.Context(), actor(c), f, restore)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "upload": res})
}

// EmergencyInfo godoc
// @Summary Emergency backup status
// @Tags backups
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.APIError
// @Router /api/admin/emergency-backup [get]
func (ctrl *Controller) EmergencyInfo(c *gin.Context) {
	info, err := ctrl.service.EmergencyInfo(c.Request.Context())
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// EmergencyUpdate godoc
// @Summary Refresh the emergency backup
// @Tags backups
// @Accept json
// @Produce json
// @Param request body EmergencyRequest true "Action"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.APIError
// @Failure 403 {object} utils.APIError
// @Router /api/admin/emergency-backup [post]
func (ctrl *Controller) EmergencyUpdate(c *gin.Context) {
	var req EmergencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.WriteBindError(c, err)
		return
	}
	info, err := ctrl.service.EmergencyUpdate(c.Request.Context(), actor(c))
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "info": info})
}

// EmergencyDownload godoc
// @Summary Download the emergency backup
// @Tags backups
// @Produce octet-stream
// @Param type query string false "Which file"
// @Success 200 {file} file
// @Failure 403 {object} utils.APIError
// @Failure 404 {object} utils.APIError
// @Router /api/admin/emergency-backup/download [get]
func (ctrl *Controller) EmergencyDownload(c *gin.Context) {
	d, err := ctrl.service.EmergencyDownload(c.Request.Context(), c.Query("type"))
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+d.Filename+`"`)
	c.Data(http.StatusOK, d.ContentType, d.Body)
}
