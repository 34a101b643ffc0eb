package repository

import (
	"context"
	"errors"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Preload("List").
		Preload("Creator").
		Preload("Assignees").
		First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// GetByListID returns the list's tasks in rendering order.
func (r *TaskRepository) GetByListID(ctx context.Context, listID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Assignees").
		Where("list_id = ?", listID).
		Order("position, created_at").
		Find(&tasks).Error
	return tasks, err
}

// GetByBoardID returns the board's tasks, optionally filtered by list.
func (r *TaskRepository) GetByBoardID(ctx context.Context, boardID uuid.UUID, listID *uuid.UUID) ([]model.Task, error) {
	q := r.db.WithContext(ctx).
		Preload("List").
		Preload("Creator").
		Preload("Assignees").
		Where("board_id = ?", boardID)
	if listID != nil {
		q = q.Where("list_id = ?", *listID)
	}
	var tasks []model.Task
	err := q.Order("position, created_at").Find(&tasks).Error
	return tasks, err
}

// GetAssignees returns the users assigned to a task. A nil slice with a nil
// error means the task does not exist.
func (r *TaskRepository) GetAssignees(ctx context.Context, taskID uuid.UUID) ([]model.User, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Preload("Assignees").
		First(&task, "id = ?", taskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if task.Assignees == nil {
		task.Assignees = []model.User{}
	}
	return task.Assignees, nil
}

// Search returns tasks matching the query on title or description among the
// boards the user owns or is a member of, optionally restricted to one board.
func (r *TaskRepository) Search(ctx context.Context, userID uuid.UUID, query string, boardID *uuid.UUID, limit int) ([]model.Task, error) {
	q := r.db.WithContext(ctx).
		Distinct("tasks.*").
		Preload("List").
		Preload("Board").
		Joins("JOIN boards ON boards.id = tasks.board_id").
		Joins("LEFT JOIN board_members ON board_members.board_id = boards.id AND board_members.user_id = ?", userID).
		Where("boards.owner_id = ? OR board_members.user_id IS NOT NULL", userID).
		Where("tasks.title ILIKE ? OR tasks.description ILIKE ?", "%"+query+"%", "%"+query+"%")
	if boardID != nil {
		q = q.Where("tasks.board_id = ?", *boardID)
	}
	var tasks []model.Task
	err := q.Limit(limit).Find(&tasks).Error
	return tasks, err
}
