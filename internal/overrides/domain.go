package overrides

import (
	"time"

	"github.com/google/uuid"
)

// GranteeType discriminates who an override applies to.
type GranteeType string

const (
	GranteeUser GranteeType = "user"
	GranteeRole GranteeType = "role"
)

// Override is a resource-scoped allow or deny record layered above RBAC.
// At most one effective record exists per (resource_type, resource_id,
// grantee_type, grantee_id, permission_id) tuple.
type Override struct {
	ID           uuid.UUID
	ResourceType string
	ResourceID   uuid.UUID
	GranteeType  GranteeType
	GranteeID    uuid.UUID
	PermissionID uuid.UUID
	IsAllowed    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
