package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/utils"
)

// Controller handles HTTP requests for authentication
type Controller struct {
	service      *Service
	secureCookie bool
}

// NewController creates a new auth controller
func NewController(service *Service, secureCookie bool) *Controller {
	return &Controller{service: service, secureCookie: secureCookie}
}

// Register godoc
// @Summary Register a customer or agent account
// @Description Creates the user and attributes a referral from the ref source cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration"
// @Success 201 {object} RegisterResponse
// @Failure 400 {object} utils.APIError
// @Failure 409 {object} utils.APIError
// @Failure 429 {object} utils.APIError
// @Router /api/auth/register [post]
func (ctrl *Controller) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.WriteBindError(c, err)
		return
	}
	refSource, _ := c.Cookie(shared.RefSourceCookie)

	resp, err := ctrl.service.Register(c.Request.Context(), req, refSource)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	if refSource != "" {
		shared.ClearCookie(c, shared.RefSourceCookie)
	}
	c.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary Log in with email or phone
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} utils.APIError
// @Failure 401 {object} utils.APIError
// @Failure 429 {object} utils.APIError
// @Router /api/auth/login [post]
func (ctrl *Controller) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.WriteBindError(c, err)
		return
	}
	user, token, expires, err := ctrl.service.Login(c.Request.Context(), req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	shared.SetAuthCookie(c, token, expires, ctrl.secureCookie)
	c.JSON(http.StatusOK, LoginResponse{OK: true, User: user, ExpiresAt: expires.Format(time.RFC3339)})
}

// Logout godoc
// @Summary Clear the session cookies
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/logout [post]
func (ctrl *Controller) Logout(c *gin.Context) {
	shared.ClearCookie(c, shared.AuthCookie)
	shared.ClearCookie(c, shared.LegacyAuthCookie)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me godoc
// @Summary Current user profile
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.APIError
// @Failure 404 {object} utils.APIError
// @Router /api/auth/me [get]
func (ctrl *Controller) Me(c *gin.Context) {
	id, _ := shared.CurrentUser(c)
	user, err := ctrl.service.Me(c.Request.Context(), id.UserID)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}
