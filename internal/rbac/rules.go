package rbac

const (
	PermFeedbackSubmit   = "feedback:submit"
	PermFeedbackModerate = "feedback:moderate"
	PermUserChangePass   = "user:change_password"
	PermUsersList        = "users:list"
	PermUsersRole        = "users:role"
	PermPriceEdit        = "price:edit"
	PermImageUpload      = "image:upload"
	PermAuditRead        = "audit:read"
	PermStatsRead        = "stats:read"
)

// RolePermissions is the default policy. Roles match account.RoleUser and
// account.RoleAdmin.
var RolePermissions = map[string][]string{
	"user": {
		PermFeedbackSubmit,
		PermUserChangePass,
	},
	"admin": {
		"*", // everything
	},
}
