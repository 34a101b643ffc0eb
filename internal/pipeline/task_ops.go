package pipeline

import (
	"errors"
	"time"

	"taskboard/internal/apperr"
	"taskboard/internal/authz"
	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxTaskTitleLen       = 100
	maxTaskDescriptionLen = 1000
)

// CreateTask adds a task to a list. Without an explicit position the task
// lands after the list's current last one.
type CreateTask struct {
	ListID      uuid.UUID
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
	Position    *int
	Assignees   []uuid.UUID

	boardID uuid.UUID // set by Resolve
}

func (m *CreateTask) Action() string { return "task_create" }

func (m *CreateTask) Validate() error {
	if m.ListID == uuid.Nil {
		return apperr.New(apperr.KindValidation, "List id is required")
	}
	if m.Title == "" {
		return apperr.New(apperr.KindValidation, "Task title is required")
	}
	if len(m.Title) > maxTaskTitleLen {
		return apperr.Newf(apperr.KindValidation, "Task title cannot exceed %d characters", maxTaskTitleLen)
	}
	if len(m.Description) > maxTaskDescriptionLen {
		return apperr.Newf(apperr.KindValidation, "Task description cannot exceed %d characters", maxTaskDescriptionLen)
	}
	if m.Priority != "" && !model.ValidPriority(m.Priority) {
		return apperr.Newf(apperr.KindValidation, "Invalid priority: %s", m.Priority)
	}
	if m.Position != nil && *m.Position < 0 {
		return apperr.New(apperr.KindValidation, "Position cannot be negative")
	}
	return nil
}

func (m *CreateTask) Resolve(tx *gorm.DB) (uuid.UUID, authz.Capability, error) {
	boardID, err := authz.BoardOfList(tx, m.ListID)
	m.boardID = boardID
	return boardID, authz.CapWrite, err
}

func (m *CreateTask) Apply(tx *gorm.DB, actor uuid.UUID) (any, *model.Activity, error) {
	pos := 0
	if m.Position != nil {
		pos = *m.Position
	} else {
		next, err := nextPosition(tx, &model.Task{}, "list_id", m.ListID)
		if err != nil {
			return nil, nil, err
		}
		pos = next
	}

	priority := m.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	task := model.Task{
		ID:          uuid.New(),
		BoardID:     m.boardID,
		ListID:      m.ListID,
		Title:       m.Title,
		Description: m.Description,
		Position:    pos,
		Priority:    priority,
		DueDate:     m.DueDate,
		CreatedBy:   actor,
	}
	if err := tx.Create(&task).Error; err != nil {
		return nil, nil, err
	}

	if len(m.Assignees) > 0 {
		users, err := loadUsers(tx, m.Assignees)
		if err != nil {
			return nil, nil, err
		}
		for _, u := range users {
			if err := insertAssignee(tx, task.ID, u.ID); err != nil {
				return nil, nil, err
			}
		}
		task.Assignees = users
	}

	act := &model.Activity{
		ListID: &task.ListID,
		TaskID: &task.ID,
		Type:   model.ActivityTaskCreated,
		Meta:   map[string]any{"title": task.Title},
	}
	return &task, act, nil
}

// UpdateTask edits a task in place. Nil fields are left untouched. A list
// change through this operation must stay within the task's board.
type UpdateTask struct {
	TaskID      uuid.UUID
	Title       *string
	Description *string
	Priority    *string
	DueDate     *time.Time
	Position    *int
	ListID      *uuid.UUID
	Assignees   *[]uuid.UUID
}

func (m *UpdateTask) Action() string { return "task_update" }

func (m *UpdateTask) Validate() error {
	if m.TaskID == uuid.Nil {
		return apperr.New(apperr.KindValidation, "Task id is required")
	}
	if m.Title != nil {
		if *m.Title == "" {
			return apperr.New(apperr.KindValidation, "Task title is required")
		}
		if len(*m.Title) > maxTaskTitleLen {
			return apperr.Newf(apperr.KindValidation, "Task title cannot exceed %d characters", maxTaskTitleLen)
		}
	}
	if m.Description != nil && len(*m.Description) > maxTaskDescriptionLen {
		return apperr.Newf(apperr.KindValidation, "Task description cannot exceed %d characters", maxTaskDescriptionLen)
	}
	if m.Priority != nil && !model.ValidPriority(*m.Priority) {
		return apperr.Newf(apperr.KindValidation, "Invalid priority: %s", *m.Priority)
	}
	if m.Position != nil && *m.Position < 0 {
		return apperr.New(apperr.KindValidation, "Position cannot be negative")
	}
	return nil
}

func (m *UpdateTask) Resolve(tx *gorm.DB) (uuid.UUID, authz.Capability, error) {
	boardID, err := authz.BoardOfTask(tx, m.TaskID)
	return boardID, authz.CapWrite, err
}

func (m *UpdateTask) Apply(tx *gorm.DB, actor uuid.UUID) (any, *model.Activity, error) {
	var task model.Task
	if err := tx.First(&task, "id = ?", m.TaskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "Task not found")
		}
		return nil, nil, err
	}

	meta := map[string]any{}
	if m.Title != nil {
		task.Title = *m.Title
		meta["title"] = *m.Title
	}
	if m.Description != nil {
		task.Description = *m.Description
		meta["description"] = *m.Description
	}
	if m.Priority != nil {
		task.Priority = *m.Priority
		meta["priority"] = *m.Priority
	}
	if m.DueDate != nil {
		task.DueDate = m.DueDate
		meta["dueDate"] = m.DueDate.Format(time.RFC3339)
	}
	if m.Position != nil {
		task.Position = *m.Position
		meta["position"] = *m.Position
	}
	if m.ListID != nil && *m.ListID != task.ListID {
		list, err := loadList(tx, *m.ListID)
		if err != nil {
			return nil, nil, err
		}
		if list.BoardID != task.BoardID {
			return nil, nil, apperr.New(apperr.KindConflict, "Cannot move task to a different board")
		}
		task.ListID = list.ID
		meta["listId"] = list.ID.String()
	}
	if err := tx.Save(&task).Error; err != nil {
		return nil, nil, err
	}

	if m.Assignees != nil {
		users, err := loadUsers(tx, *m.Assignees)
		if err != nil {
			return nil, nil, err
		}
		if err := tx.Exec("DELETE FROM task_assignees WHERE task_id = ?", task.ID).Error; err != nil {
			return nil, nil, err
		}
		for _, u := range users {
			if err := insertAssignee(tx, task.ID, u.ID); err != nil {
				return nil, nil, err
			}
		}
		task.Assignees = users
		meta["assignees"] = len(users)
	}

	act := &model.Activity{
		ListID: &task.ListID,
		TaskID: &task.ID,
		Type:   model.ActivityTaskUpdated,
		Meta:   meta,
	}
	return &task, act, nil
}

// DeleteTask removes a task and its assignee links.
type DeleteTask struct {
	TaskID uuid.UUID
}

func (m *DeleteTask) Action() string { return "task_delete" }

func (m *DeleteTask) Validate() error {
	if m.TaskID == uuid.Nil {
		return apperr.New(apperr.KindValidation, "Task id is required")
	}
	return nil
}

func (m *DeleteTask) Resolve(tx *gorm.DB) (uuid.UUID, authz.Capability, error) {
	boardID, err := authz.BoardOfTask(tx, m.TaskID)
	return boardID, authz.CapWrite, err
}

func (m *DeleteTask) Apply(tx *gorm.DB, actor uuid.UUID) (any, *model.Activity, error) {
	var task model.Task
	if err := tx.First(&task, "id = ?", m.TaskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "Task not found")
		}
		return nil, nil, err
	}

	if err := tx.Exec("DELETE FROM task_assignees WHERE task_id = ?", task.ID).Error; err != nil {
		return nil, nil, err
	}
	if err := tx.Delete(&task).Error; err != nil {
		return nil, nil, err
	}

	act := &model.Activity{
		ListID: &task.ListID,
		TaskID: &task.ID,
		Type:   model.ActivityTaskDeleted,
		Meta:   map[string]any{"title": task.Title},
	}
	return nil, act, nil
}

// MoveTask re-homes a task onto another list of the same board. The task
// keeps its position key; ordering within the destination follows from it.
type MoveTask struct {
	TaskID uuid.UUID
	ListID uuid.UUID
}

func (m *MoveTask) Action() string { return "task_move" }

func (m *MoveTask) Validate() error {
	if m.TaskID == uuid.Nil || m.ListID == uuid.Nil {
		return apperr.New(apperr.KindValidation, "Task id and list id are required")
	}
	return nil
}

func (m *MoveTask) Resolve(tx *gorm.DB) (uuid.UUID, authz.Capability, error) {
	boardID, err := authz.BoardOfTask(tx, m.TaskID)
	return boardID, authz.CapWrite, err
}

func (m *MoveTask) Apply(tx *gorm.DB, actor uuid.UUID) (any, *model.Activity, error) {
	var task model.Task
	if err := tx.First(&task, "id = ?", m.TaskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "Task not found")
		}
		return nil, nil, err
	}

	list, err := loadList(tx, m.ListID)
	if err != nil {
		return nil, nil, err
	}
	if list.BoardID != task.BoardID {
		return nil, nil, apperr.New(apperr.KindConflict, "Cannot move task to a different board")
	}

	task.ListID = list.ID
	if err := tx.Save(&task).Error; err != nil {
		return nil, nil, err
	}

	act := &model.Activity{
		ListID: &task.ListID,
		TaskID: &task.ID,
		Type:   model.ActivityTaskMoved,
		Meta:   map[string]any{"listId": list.ID.String(), "listTitle": list.Title},
	}
	return &task, act, nil
}

// AddAssignee links a board user to a task. Re-adding an existing assignee
// is a no-op rather than an error.
type AddAssignee struct {
	TaskID uuid.UUID
	UserID uuid.UUID
}

func (m *AddAssignee) Action() string { return "assignee_add" }

func (m *AddAssignee) Validate() error {
	if m.TaskID == uuid.Nil || m.UserID == uuid.Nil {
		return apperr.New(apperr.KindValidation, "Task id and user id are required")
	}
	return nil
}

func (m *AddAssignee) Resolve(tx *gorm.DB) (uuid.UUID, authz.Capability, error) {
	boardID, err := authz.BoardOfTask(tx, m.TaskID)
	return boardID, authz.CapWrite, err
}

func (m *AddAssignee) Apply(tx *gorm.DB, actor uuid.UUID) (any, *model.Activity, error) {
	var user model.User
	if err := tx.First(&user, "id = ?", m.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "User not found")
		}
		return nil, nil, err
	}

	if err := insertAssignee(tx, m.TaskID, m.UserID); err != nil {
		return nil, nil, err
	}

	act := &model.Activity{
		TaskID: &m.TaskID,
		Type:   model.ActivityAssigneeAdded,
		Meta:   map[string]any{"userId": m.UserID.String()},
	}
	return &user, act, nil
}

// RemoveAssignee unlinks a user from a task. Removing an absent link is a
// no-op.
type RemoveAssignee struct {
	TaskID uuid.UUID
	UserID uuid.UUID
}

func (m *RemoveAssignee) Action() string { return "assignee_remove" }

func (m *RemoveAssignee) Validate() error {
	if m.TaskID == uuid.Nil || m.UserID == uuid.Nil {
		return apperr.New(apperr.KindValidation, "Task id and user id are required")
	}
	return nil
}

func (m *RemoveAssignee) Resolve(tx *gorm.DB) (uuid.UUID, authz.Capability, error) {
	boardID, err := authz.BoardOfTask(tx, m.TaskID)
	return boardID, authz.CapWrite, err
}

func (m *RemoveAssignee) Apply(tx *gorm.DB, actor uuid.UUID) (any, *model.Activity, error) {
	err := tx.Exec("DELETE FROM task_assignees WHERE task_id = ? AND user_id = ?", m.TaskID, m.UserID).Error
	if err != nil {
		return nil, nil, err
	}

	act := &model.Activity{
		TaskID: &m.TaskID,
		Type:   model.ActivityAssigneeRemoved,
		Meta:   map[string]any{"userId": m.UserID.String()},
	}
	return nil, act, nil
}

func loadList(tx *gorm.DB, id uuid.UUID) (*model.List, error) {
	var list model.List
	if err := tx.First(&list, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "List not found")
		}
		return nil, err
	}
	return &list, nil
}

func loadUsers(tx *gorm.DB, ids []uuid.UUID) ([]model.User, error) {
	var users []model.User
	if err := tx.Find(&users, "id IN ?", ids).Error; err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, apperr.New(apperr.KindNotFound, "User not found")
	}
	return users, nil
}

func insertAssignee(tx *gorm.DB, taskID, userID uuid.UUID) error {
	return tx.Exec(
		"INSERT INTO task_assignees (task_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		taskID, userID,
	).Error
}
