package constant

const (
	ActorAdmin = "admin"
	ActorUser  = "user"

	ChannelEmail = "email"
	ChannelPhone = "phone"

	StatusActive   = "active"
	StatusInactive = "inactive"

	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"

	CodeLength = 6
)

// AdminIssueRoles are the account roles allowed to request an admin-actor
// verification code.
var AdminIssueRoles = []string{RoleAdmin, RoleSuperAdmin}
