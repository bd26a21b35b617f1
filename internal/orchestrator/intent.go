package orchestrator

import "fmt"

// Intent is the agent category the classifier assigns to a query.
type Intent string

const (
	IntentHRAssistant     Intent = "HR_ASSISTANT"
	IntentCustomerSupport Intent = "CUSTOMER_SUPPORT"
	IntentMarketing       Intent = "MARKETING"
	IntentAnalytics       Intent = "ANALYTICS"
	IntentAdmin           Intent = "ADMIN"
	IntentGeneralChat     Intent = "GENERAL_CHAT"
)

// Role is the caller's access level.
type Role string

const (
	RolePublic   Role = "PUBLIC"
	RoleEmployee Role = "EMPLOYEE"
	RoleAdmin    Role = "ADMIN"
)

// permissions lists the intents each non-admin role may reach. Admins
// may reach everything, including intents not in any table, so they
// are handled directly in Allowed.
var permissions = map[Role]map[Intent]bool{
	RolePublic: {
		IntentCustomerSupport: true,
		IntentGeneralChat:     true,
	},
	RoleEmployee: {
		IntentHRAssistant:     true,
		IntentCustomerSupport: true,
		IntentMarketing:       true,
		IntentAnalytics:       true,
		IntentGeneralChat:     true,
	},
}

// Allowed reports whether the role may reach the intent. Unknown roles
// may reach nothing.
func Allowed(role Role, intent Intent) bool {
	if role == RoleAdmin {
		return true
	}
	return permissions[role][intent]
}

// AccessDeniedError is returned when the permission gate rejects a
// routed query. Message carries the user-facing denial text.
type AccessDeniedError struct {
	Role   Role
	Intent Intent
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("orchestrator: access denied: %s cannot access %s", e.Role, e.Intent)
}

// Message is the denial text shown to the user in place of an answer.
func (e *AccessDeniedError) Message() string {
	return fmt.Sprintf("Access Denied: %s cannot access %s.", e.Role, e.Intent)
}
