package model

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ListID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Title       string    `gorm:"not null"`
	Description string
	Position    int    `gorm:"not null;default:0"`
	Priority    string `gorm:"not null;default:'medium';check:priority IN ('low','medium','high','urgent')"`
	DueDate     *time.Time
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Board     Board  `gorm:"foreignKey:BoardID"`
	List      List   `gorm:"foreignKey:ListID"`
	Creator   User   `gorm:"foreignKey:CreatedBy"`
	Assignees []User `gorm:"many2many:task_assignees"`
}

// Task priorities, a closed set.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ValidPriority reports whether p is one of the closed priority set.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
