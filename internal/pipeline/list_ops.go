package pipeline

import (
	"errors"

	"taskboard/internal/apperr"
	"taskboard/internal/authz"
	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxListTitleLen = 30

// CreateList adds a list to a board. Without an explicit position the list
// lands after the board's current last one.
type CreateList struct {
	BoardID  uuid.UUID
	Title    string
	Position *int
}

func (m *CreateList) Action() string { return "list_create" }

func (m *CreateList) Validate() error {
	if m.BoardID == uuid.Nil {
		return apperr.New(apperr.KindValidation, "Board id is required")
	}
	if m.Title == "" {
		return apperr.New(apperr.KindValidation, "List title is required")
	}
	if len(m.Title) > maxListTitleLen {
		return apperr.Newf(apperr.KindValidation, "List title cannot exceed %d characters", maxListTitleLen)
	}
	if m.Position != nil && *m.Position < 0 {
		return apperr.New(apperr.KindValidation, "Position cannot be negative")
	}
	return nil
}

func (m *CreateList) Resolve(tx *gorm.DB) (uuid.UUID, authz.Capability, error) {
	return m.BoardID, authz.CapWrite, nil
}

func (m *CreateList) Apply(tx *gorm.DB, actor uuid.UUID) (any, *model.Activity, error) {
	pos := 0
	if m.Position != nil {
		pos = *m.Position
	} else {
		next, err := nextPosition(tx, &model.List{}, "board_id", m.BoardID)
		if err != nil {
			return nil, nil, err
		}
		pos = next
	}

	list := model.List{
		ID:       uuid.New(),
		BoardID:  m.BoardID,
		Title:    m.Title,
		Position: pos,
	}
	if err := tx.Create(&list).Error; err != nil {
		return nil, nil, err
	}

	act := &model.Activity{
		ListID: &list.ID,
		Type:   model.ActivityListCreated,
		Meta:   map[string]any{"title": list.Title},
	}
	return &list, act, nil
}

// UpdateList retitles or repositions a list. Nil fields are left untouched.
type UpdateList struct {
	ListID   uuid.UUID
	Title    *string
	Position *int
}

func (m *UpdateList) Action() string { return "list_update" }

func (m *UpdateList) Validate() error {
	if m.ListID == uuid.Nil {
		return apperr.New(apperr.KindValidation, "List id is required")
	}
	if m.Title != nil {
		if *m.Title == "" {
			return apperr.New(apperr.KindValidation, "List title is required")
		}
		if len(*m.Title) > maxListTitleLen {
			return apperr.Newf(apperr.KindValidation, "List title cannot exceed %d characters", maxListTitleLen)
		}
	}
	if m.Position != nil && *m.Position < 0 {
		return apperr.New(apperr.KindValidation, "Position cannot be negative")
	}
	return nil
}

func (m *UpdateList) Resolve(tx *gorm.DB) (uuid.UUID, authz.Capability, error) {
	boardID, err := authz.BoardOfList(tx, m.ListID)
	return boardID, authz.CapWrite, err
}

func (m *UpdateList) Apply(tx *gorm.DB, actor uuid.UUID) (any, *model.Activity, error) {
	var list model.List
	if err := tx.First(&list, "id = ?", m.ListID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "List not found")
		}
		return nil, nil, err
	}

	meta := map[string]any{}
	if m.Title != nil {
		list.Title = *m.Title
		meta["title"] = *m.Title
	}
	if m.Position != nil {
		list.Position = *m.Position
		meta["position"] = *m.Position
	}
	if err := tx.Save(&list).Error; err != nil {
		return nil, nil, err
	}

	act := &model.Activity{
		ListID: &list.ID,
		Type:   model.ActivityListUpdated,
		Meta:   meta,
	}
	return &list, act, nil
}

// DeleteList removes a list. Its tasks keep their rows and become orphans
// until cleaned up or re-homed by a later mutation.
type DeleteList struct {
	ListID uuid.UUID
}

func (m *DeleteList) Action() string { return "list_delete" }

func (m *DeleteList) Validate() error {
	if m.ListID == uuid.Nil {
		return apperr.New(apperr.KindValidation, "List id is required")
	}
	return nil
}

func (m *DeleteList) Resolve(tx *gorm.DB) (uuid.UUID, authz.Capability, error) {
	boardID, err := authz.BoardOfList(tx, m.ListID)
	return boardID, authz.CapWrite, err
}

func (m *DeleteList) Apply(tx *gorm.DB, actor uuid.UUID) (any, *model.Activity, error) {
	var list model.List
	if err := tx.First(&list, "id = ?", m.ListID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "List not found")
		}
		return nil, nil, err
	}

	if err := tx.Delete(&list).Error; err != nil {
		return nil, nil, err
	}

	act := &model.Activity{
		ListID: &m.ListID,
		Type:   model.ActivityListDeleted,
		Meta:   map[string]any{"title": list.Title},
	}
	return nil, act, nil
}
