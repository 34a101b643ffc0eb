package model

import (
	"time"

	"github.com/google/uuid"
)

// Activity is an append-only audit record of a committed mutation. Rows are
// never updated or deleted; they outlive the entities they reference, so the
// board/list/task columns carry no foreign-key constraints.
type Activity struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BoardID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	ListID    *uuid.UUID     `gorm:"type:uuid"`
	TaskID    *uuid.UUID     `gorm:"type:uuid"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null"`
	Type      string         `gorm:"not null"`
	Meta      map[string]any `gorm:"serializer:json"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`

	User User `gorm:"foreignKey:UserID"`
}

// Activity types. The set is closed; extending it is a versioned change.
const (
	ActivityBoardCreated    = "board_created"
	ActivityBoardDeleted    = "board_deleted"
	ActivityListCreated     = "list_created"
	ActivityListUpdated     = "list_updated"
	ActivityListDeleted     = "list_deleted"
	ActivityTaskCreated     = "task_created"
	ActivityTaskUpdated     = "task_updated"
	ActivityTaskDeleted     = "task_deleted"
	ActivityTaskMoved       = "task_moved"
	ActivityMemberAdded     = "member_added"
	ActivityMemberUpdated   = "member_updated"
	ActivityMemberRemoved   = "member_removed"
	ActivityAssigneeAdded   = "assignee_added"
	ActivityAssigneeRemoved = "assignee_removed"
)
