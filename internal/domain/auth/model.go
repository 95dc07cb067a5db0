// Package auth provides authentication and authorization domain logic.
package auth

import (
	"time"

	appctx "kgv/internal/core/context"
	"kgv/internal/core/id"
)

// User is one office employee account. The permission flags mirror the
// personnel table of the legacy case files database.
type User struct {
	ID             id.ID   `db:"id" json:"id"`
	Email          string  `db:"email" json:"email"`
	PasswordHash   string  `db:"password_hash" json:"-"`
	FirstName      string  `db:"first_name" json:"firstName"`
	LastName       string  `db:"last_name" json:"lastName"`
	EmployeeNumber *string `db:"employee_number" json:"employeeNumber,omitempty"`
	Department     *string `db:"department" json:"department,omitempty"`

	IsAdmin          bool `db:"is_admin" json:"isAdmin"`
	CanAdministrate  bool `db:"can_administrate" json:"canAdministrate"`
	CanManageLists   bool `db:"can_manage_lists" json:"canManageLists"`
	CanManageRecords bool `db:"can_manage_records" json:"canManageRecords"`

	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Permissions expands the flags into the permission names carried in JWT claims.
func (u *User) Permissions() []string {
	var perms []string
	if u.CanAdministrate {
		perms = append(perms, appctx.PermAdministration)
	}
	if u.CanManageLists {
		perms = append(perms, appctx.PermManageLists)
	}
	if u.CanManageRecords {
		perms = append(perms, appctx.PermManageRecords)
	}
	return perms
}
