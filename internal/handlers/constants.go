package handlers

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgUnauthorized       = "Unauthorized"
	ErrMsgInternal           = "Internal server error"
)

// Audit action constants
const (
	AuditActionLogin        = "user.login"
	AuditActionLoginFailed  = "user.login.failed"
	AuditActionRegister     = "user.register"
	AuditActionRoleAssign   = "user.role.assign"
	AuditActionRoleRemove   = "user.role.remove"
	AuditActionStatusChange = "user.status.change"
	AuditActionUserCreate   = "user.create"
)
