package repository

import (
	"context"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// GetByBoardID returns one page of the board's activity feed, newest first,
// together with the total number of records.
func (r *ActivityRepository) GetByBoardID(ctx context.Context, boardID uuid.UUID, limit, page int) ([]model.Activity, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}

	var activities []model.Activity
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("board_id = ?", boardID).
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&activities).Error
	if err != nil {
		return nil, 0, err
	}

	var total int64
	err = r.db.WithContext(ctx).
		Model(&model.Activity{}).
		Where("board_id = ?", boardID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	return activities, total, nil
}
