package model

import (
	"time"

	"github.com/google/uuid"
)

// BoardMember links a user to a board with a role. One row per board+user.
type BoardMember struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_board_user"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_board_user"`
	Role      string    `gorm:"not null;check:role IN ('owner','admin','editor','writer','viewer')"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	User User `gorm:"foreignKey:UserID"`
}

// Board roles, strongest first. The set is closed: additions require a
// schema migration, not a new string.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleWriter = "writer"
	RoleViewer = "viewer" // read-only
)

// ValidRole reports whether r is one of the closed role set.
func ValidRole(r string) bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleEditor, RoleWriter, RoleViewer:
		return true
	}
	return false
}
