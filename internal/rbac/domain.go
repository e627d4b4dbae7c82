package rbac

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a named bundle of permissions.
type Role struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability identified by name.
type Permission struct {
	ID          uuid.UUID
	Name        string
	Description string
}

// Assignment ties a permission to a role.
type Assignment struct {
	RoleID       uuid.UUID
	PermissionID uuid.UUID
	CreatedAt    time.Time
}

// UserRole links a user to a role.
type UserRole struct {
	UserID    uuid.UUID
	RoleID    uuid.UUID
	CreatedAt time.Time
}
