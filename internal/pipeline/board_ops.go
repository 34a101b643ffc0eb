package pipeline

import (
	"errors"

	"taskboard/internal/apperr"
	"taskboard/internal/authz"
	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxBoardNameLen        = 50
	maxBoardDescriptionLen = 500
)

// CreateBoard creates a board owned by the actor and enrolls the actor as its
// owner member in the same transaction.
type CreateBoard struct {
	Name        string
	Description string
}

func (m *CreateBoard) Action() string { return "board_create" }

func (m *CreateBoard) Validate() error {
	if m.Name == "" {
		return apperr.New(apperr.KindValidation, "Board name is required")
	}
	if len(m.Name) > maxBoardNameLen {
		return apperr.Newf(apperr.KindValidation, "Board name cannot exceed %d characters", maxBoardNameLen)
	}
	if len(m.Description) > maxBoardDescriptionLen {
		return apperr.Newf(apperr.KindValidation, "Board description cannot exceed %d characters", maxBoardDescriptionLen)
	}
	return nil
}

func (m *CreateBoard) Resolve(tx *gorm.DB) (uuid.UUID, authz.Capability, error) {
	return uuid.Nil, authz.CapNone, nil
}

func (m *CreateBoard) Apply(tx *gorm.DB, actor uuid.UUID) (any, *model.Activity, error) {
	board := model.Board{
		ID:          uuid.New(),
		Name:        m.Name,
		Description: m.Description,
		OwnerID:     actor,
	}
	if err := tx.Create(&board).Error; err != nil {
		return nil, nil, err
	}

	member := model.BoardMember{
		ID:      uuid.New(),
		BoardID: board.ID,
		UserID:  actor,
		Role:    model.RoleOwner,
	}
	if err := tx.Create(&member).Error; err != nil {
		return nil, nil, err
	}
	board.Members = []model.BoardMember{member}

	act := &model.Activity{
		BoardID: board.ID,
		Type:    model.ActivityBoardCreated,
		Meta:    map[string]any{"name": board.Name},
	}
	return &board, act, nil
}

// UpdateBoard renames or re-describes a board. Owner only. Nil fields are
// left untouched.
type UpdateBoard struct {
	BoardID     uuid.UUID
	Name        *string
	Description *string
}

func (m *UpdateBoard) Action() string { return "board_update" }

func (m *UpdateBoard) Validate() error {
	if m.BoardID == uuid.Nil {
		return apperr.New(apperr.KindValidation, "Board id is required")
	}
	if m.Name != nil {
		if *m.Name == "" {
			return apperr.New(apperr.KindValidation, "Board name is required")
		}
		if len(*m.Name) > maxBoardNameLen {
			return apperr.Newf(apperr.KindValidation, "Board name cannot exceed %d characters", maxBoardNameLen)
		}
	}
	if m.Description != nil && len(*m.Description) > maxBoardDescriptionLen {
		return apperr.Newf(apperr.KindValidation, "Board description cannot exceed %d characters", maxBoardDescriptionLen)
	}
	return nil
}

func (m *UpdateBoard) Resolve(tx *gorm.DB) (uuid.UUID, authz.Capability, error) {
	return m.BoardID, authz.CapOwner, nil
}

func (m *UpdateBoard) Apply(tx *gorm.DB, actor uuid.UUID) (any, *model.Activity, error) {
	var board model.Board
	if err := tx.First(&board, "id = ?", m.BoardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "Board not found")
		}
		return nil, nil, err
	}

	meta := map[string]any{}
	if m.Name != nil {
		board.Name = *m.Name
		meta["name"] = *m.Name
	}
	if m.Description != nil {
		board.Description = *m.Description
		meta["description"] = *m.Description
	}
	if err := tx.Save(&board).Error; err != nil {
		return nil, nil, err
	}

	// Board edits are logged under the task_updated type; the activity type
	// set is closed and has no board-update entry.
	act := &model.Activity{
		BoardID: board.ID,
		Type:    model.ActivityTaskUpdated,
		Meta:    meta,
	}
	return &board, act, nil
}

// DeleteBoard removes the board row itself. Lists, tasks and memberships are
// cleaned up by a background sweep after commit; activities are kept.
type DeleteBoard struct {
	BoardID uuid.UUID
}

func (m *DeleteBoard) Action() string { return "board_delete" }

func (m *DeleteBoard) Validate() error {
	if m.BoardID == uuid.Nil {
		return apperr.New(apperr.KindValidation, "Board id is required")
	}
	return nil
}

func (m *DeleteBoard) Resolve(tx *gorm.DB) (uuid.UUID, authz.Capability, error) {
	return m.BoardID, authz.CapOwner, nil
}

func (m *DeleteBoard) Apply(tx *gorm.DB, actor uuid.UUID) (any, *model.Activity, error) {
	var board model.Board
	if err := tx.First(&board, "id = ?", m.BoardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "Board not found")
		}
		return nil, nil, err
	}
	if err := tx.Delete(&model.Board{}, "id = ?", m.BoardID).Error; err != nil {
		return nil, nil, err
	}

	act := &model.Activity{
		BoardID: m.BoardID,
		Type:    model.ActivityBoardDeleted,
		Meta:    map[string]any{"name": board.Name},
	}
	return nil, act, nil
}
