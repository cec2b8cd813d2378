package shared

const (
	AuthCookie       = "token"
	LegacyAuthCookie = "auth_token"
	RefSourceCookie  = "refSource"

	HeaderRequestID     = "X-Request-ID"
	HeaderAutomationKey = "X-Automation-Key"
	HeaderTenantID      = "X-Tenant-ID"

	ctxIdentity  = "vipo.identity"
	ctxRequestID = "vipo.requestId"
	ctxTenantID  = "vipo.tenantId"
)
