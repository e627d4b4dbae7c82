package shared

// Event permissions declared for RBAC.
const (
	PermViewEvent    = "view_event"
	PermCreateEvent  = "create_event"
	PermManageEvents = "manage_events"
)

// EventScopes lists all permissions related to the events module.
func EventScopes() []string {
	return []string{
		PermViewEvent,
		PermCreateEvent,
		PermManageEvents,
	}
}
