// Package rbac persists role-permission assignments and guards HTTP routes.
// All authorization decisions delegate to internal/authz; this package only
// materializes the principal's grant set and caches it.
package rbac

import "time"

// Role represents a high-level permission grouping.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Permission is one row of the permissions table, seeded from the catalog.
type Permission struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Assignment ties a permission to a role.
type Assignment struct {
	RoleID       int64
	PermissionID int64
	CreatedAt    time.Time
}

// UserRole links a user to a role.
type UserRole struct {
	UserID    int64
	RoleID    int64
	CreatedAt time.Time
}

// SyncReport summarizes a catalog reconciliation run.
type SyncReport struct {
	Inserted []string `json:"inserted"`
	Dangling []string `json:"dangling"`
}
