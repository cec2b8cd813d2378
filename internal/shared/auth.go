package shared

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/types"
	"github.com/vipogroup/vipo-api/internal/utils"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Role   types.Role
	// TenantID pins the caller to one business. Platform users leave it empty.
	TenantID string
}

func (i *Identity) IsAdmin() bool { return i != nil && i.Role == types.RoleAdmin }

// TokenFromRequest looks at the auth cookies first, then the bearer header.
func TokenFromRequest(c *gin.Context) string {
	for _, name := range []string{AuthCookie, LegacyAuthCookie} {
		if v, err := c.Cookie(name); err == nil && v != "" {
			return v
		}
	}
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// Authenticate attaches the caller identity when a valid token is present.
// It never rejects; use RequireAuth or RequireRole for that.
func Authenticate(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := TokenFromRequest(c); raw != "" {
			if claims, err := tokens.Parse(raw); err == nil {
				c.Set(ctxIdentity, &Identity{UserID: claims.UserID, Role: claims.Role, TenantID: claims.TenantID})
			}
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(ctxIdentity)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok && id != nil
}

// SetIdentity is used by tests and internal callers that authenticate by other means.
func SetIdentity(c *gin.Context, id *Identity) {
	c.Set(ctxIdentity, id)
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			utils.WriteError(c, utils.Unauthorized("Unauthorized"))
			return
		}
		c.Next()
	}
}

// RequireRole rejects anonymous callers with 401 and other roles with 403.
func RequireRole(roles ...types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentUser(c)
		if !ok {
			utils.WriteError(c, utils.Unauthorized("Unauthorized"))
			return
		}
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		if len(roles) == 1 && roles[0] == types.RoleAdmin {
			utils.WriteError(c, utils.Forbidden("Forbidden - Admin access required"))
			return
		}
		utils.WriteError(c, utils.Forbidden("Forbidden"))
	}
}

func SetAuthCookie(c *gin.Context, token string, expires time.Time, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     AuthCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearCookie(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
