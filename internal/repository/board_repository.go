package repository

import (
	"context"
	"errors"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BoardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

// GetOwned returns the boards owned by the user, newest first.
func (r *BoardRepository) GetOwned(ctx context.Context, ownerID uuid.UUID) ([]model.Board, error) {
	var boards []model.Board
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Members.User").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&boards).Error
	return boards, err
}

// GetForUser returns the boards the user owns or is a member of, newest
// first.
func (r *BoardRepository) GetForUser(ctx context.Context, userID uuid.UUID) ([]model.Board, error) {
	var boards []model.Board
	err := r.db.WithContext(ctx).
		Distinct("boards.*").
		Preload("Owner").
		Preload("Members.User").
		Joins("LEFT JOIN board_members ON board_members.board_id = boards.id AND board_members.user_id = ?", userID).
		Where("boards.owner_id = ? OR board_members.user_id IS NOT NULL", userID).
		Order("boards.created_at DESC").
		Find(&boards).Error
	return boards, err
}

func (r *BoardRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	var board model.Board
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Members.User").
		Where("id = ?", id).
		First(&board).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &board, nil
}

// SearchByName returns boards matching the query among those the user owns
// or is a member of.
func (r *BoardRepository) SearchByName(ctx context.Context, userID uuid.UUID, query string, limit int) ([]model.Board, error) {
	var boards []model.Board
	err := r.db.WithContext(ctx).
		Distinct("boards.*").
		Joins("LEFT JOIN board_members ON board_members.board_id = boards.id AND board_members.user_id = ?", userID).
		Where("boards.name ILIKE ?", "%"+query+"%").
		Where("boards.owner_id = ? OR board_members.user_id IS NOT NULL", userID).
		Limit(limit).
		Find(&boards).Error
	return boards, err
}
