package auth

// Role is the caller's role as carried in the token
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// Permission names a protected action as resource:action
type Permission string

const (
	PermCustomersRead   Permission = "customers:read"
	PermCustomersCreate Permission = "customers:create"
	PermCustomersUpdate Permission = "customers:update"
	PermCustomersDelete Permission = "customers:delete"

	PermContractsRead   Permission = "contracts:read"
	PermContractsCreate Permission = "contracts:create"
	PermContractsUpdate Permission = "contracts:update"
	PermContractsDelete Permission = "contracts:delete"

	PermInstallmentsRead   Permission = "installments:read"
	PermInstallmentsUpdate Permission = "installments:update"
	PermInstallmentsPay    Permission = "installments:pay"

	PermReportsRead   Permission = "reports:read"
	PermReportsExport Permission = "reports:export"

	PermSettingsRead   Permission = "settings:read"
	PermSettingsUpdate Permission = "settings:update"

	PermNotificationsRead   Permission = "notifications:read"
	PermNotificationsSend   Permission = "notifications:send"
	PermNotificationsDelete Permission = "notifications:delete"
)

var (
	everyone    = []Role{RoleAdmin, RoleManager, RoleUser}
	managers    = []Role{RoleAdmin, RoleManager}
	adminsOnly  = []Role{RoleAdmin}
	permissions = map[Permission][]Role{
		PermCustomersRead:   everyone,
		PermCustomersCreate: managers,
		PermCustomersUpdate: managers,
		PermCustomersDelete: adminsOnly,

		PermContractsRead:   everyone,
		PermContractsCreate: managers,
		PermContractsUpdate: managers,
		PermContractsDelete: adminsOnly,

		PermInstallmentsRead:   everyone,
		PermInstallmentsUpdate: everyone,
		PermInstallmentsPay:    everyone,

		PermReportsRead:   everyone,
		PermReportsExport: managers,

		PermSettingsRead:   managers,
		PermSettingsUpdate: adminsOnly,

		PermNotificationsRead:   everyone,
		PermNotificationsSend:   everyone,
		PermNotificationsDelete: adminsOnly,
	}
)

// Can reports whether r is granted p. Unknown permissions are denied.
func (r Role) Can(p Permission) bool {
	for _, allowed := range permissions[p] {
		if allowed == r {
			return true
		}
	}
	return false
}

// RolesFor lists the roles granted p
func RolesFor(p Permission) []Role {
	return append([]Role(nil), permissions[p]...)
}
