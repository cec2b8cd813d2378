package shared

import (
	"context"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/utils"
)

var tenantIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type tenantKey struct{}

// WithTenant scopes ctx to a business. An empty id means the whole platform.
func WithTenant(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, tenantKey{}, id)
}

// TenantFrom returns the tenant ctx is scoped to, or "" for the platform.
func TenantFrom(ctx context.Context) string {
	id, _ := ctx.Value(tenantKey{}).(string)
	return id
}

// InTenant reports whether a row owned by owner is visible in ctx. Platform
// requests see every row; tenant requests only their own.
func InTenant(ctx context.Context, owner string) bool {
	t := TenantFrom(ctx)
	return t == "" || t == owner
}

// ResolveTenant scopes the request to a tenant and must run after
// Authenticate. Callers bound to a tenant are pinned to it and may not name
// another one. Everyone else may pick one with the X-Tenant-ID header,
// otherwise fallback applies.
func ResolveTenant(fallback string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requested := strings.TrimSpace(c.GetHeader(HeaderTenantID))
		if requested != "" && !tenantIDPattern.MatchString(requested) {
			utils.WriteError(c, utils.BadRequest("invalid_tenant", "Invalid tenant id"))
			return
		}

		tenant := fallback
		if requested != "" {
			tenant = requested
		}
		if id, ok := CurrentUser(c); ok && id.TenantID != "" {
			if requested != "" && requested != id.TenantID {
				utils.WriteError(c, utils.Forbidden("Forbidden - tenant mismatch"))
				return
			}
			tenant = id.TenantID
		}

		c.Set(ctxTenantID, tenant)
		c.Request = c.Request.WithContext(WithTenant(c.Request.Context(), tenant))
		c.Next()
	}
}

// CurrentTenant returns the tenant ResolveTenant chose for the request.
func CurrentTenant(c *gin.Context) string {
	return c.GetString(ctxTenantID)
}
