package pipeline

import (
	"errors"

	"taskboard/internal/apperr"
	"taskboard/internal/authz"
	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AddMember enrolls a user on a board with a role. Owner only.
type AddMember struct {
	BoardID uuid.UUID
	UserID  uuid.UUID
	Role    string
}

func (m *AddMember) Action() string { return "member_add" }

func (m *AddMember) Validate() error {
	if m.BoardID == uuid.Nil || m.UserID == uuid.Nil {
		return apperr.New(apperr.KindValidation, "Board id and user id are required")
	}
	if !model.ValidRole(m.Role) {
		return apperr.Newf(apperr.KindValidation, "Invalid role: %s", m.Role)
	}
	return nil
}

func (m *AddMember) Resolve(tx *gorm.DB) (uuid.UUID, authz.Capability, error) {
	return m.BoardID, authz.CapOwner, nil
}

func (m *AddMember) Apply(tx *gorm.DB, actor uuid.UUID) (any, *model.Activity, error) {
	var user model.User
	if err := tx.First(&user, "id = ?", m.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "User not found")
		}
		return nil, nil, err
	}

	var existing model.BoardMember
	err := tx.First(&existing, "board_id = ? AND user_id = ?", m.BoardID, m.UserID).Error
	if err == nil {
		return nil, nil, apperr.New(apperr.KindConflict, "User is already a member of this board")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	member := model.BoardMember{
		ID:      uuid.New(),
		BoardID: m.BoardID,
		UserID:  m.UserID,
		Role:    m.Role,
	}
	if err := tx.Create(&member).Error; err != nil {
		return nil, nil, err
	}
	member.User = user

	act := &model.Activity{
		Type: model.ActivityMemberAdded,
		Meta: map[string]any{"userId": m.UserID.String(), "role": m.Role},
	}
	return &member, act, nil
}

// UpdateMember changes a member's role. Owner only; the owner's own
// membership row cannot be altered.
type UpdateMember struct {
	BoardID  uuid.UUID
	MemberID uuid.UUID
	Role     string
}

func (m *UpdateMember) Action() string { return "member_update" }

func (m *UpdateMember) Validate() error {
	if m.BoardID == uuid.Nil || m.MemberID == uuid.Nil {
		return apperr.New(apperr.KindValidation, "Board id and member id are required")
	}
	if !model.ValidRole(m.Role) {
		return apperr.Newf(apperr.KindValidation, "Invalid role: %s", m.Role)
	}
	return nil
}

func (m *UpdateMember) Resolve(tx *gorm.DB) (uuid.UUID, authz.Capability, error) {
	return m.BoardID, authz.CapOwner, nil
}

func (m *UpdateMember) Apply(tx *gorm.DB, actor uuid.UUID) (any, *model.Activity, error) {
	var member model.BoardMember
	err := tx.Preload("User").First(&member, "board_id = ? AND id = ?", m.BoardID, m.MemberID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "Member not found")
		}
		return nil, nil, err
	}
	if member.Role == model.RoleOwner {
		return nil, nil, apperr.New(apperr.KindConflict, "Cannot change the owner's role")
	}

	member.Role = m.Role
	if err := tx.Save(&member).Error; err != nil {
		return nil, nil, err
	}

	act := &model.Activity{
		Type: model.ActivityMemberUpdated,
		Meta: map[string]any{"memberId": m.MemberID.String(), "role": m.Role},
	}
	return &member, act, nil
}

// RemoveMember takes a member off a board. Owner only; the owner's own
// membership row is not removable.
type RemoveMember struct {
	BoardID  uuid.UUID
	MemberID uuid.UUID
}

func (m *RemoveMember) Action() string { return "member_remove" }

func (m *RemoveMember) Validate() error {
	if m.BoardID == uuid.Nil || m.MemberID == uuid.Nil {
		return apperr.New(apperr.KindValidation, "Board id and member id are required")
	}
	return nil
}

func (m *RemoveMember) Resolve(tx *gorm.DB) (uuid.UUID, authz.Capability, error) {
	return m.BoardID, authz.CapOwner, nil
}

func (m *RemoveMember) Apply(tx *gorm.DB, actor uuid.UUID) (any, *model.Activity, error) {
	var member model.BoardMember
	err := tx.First(&member, "board_id = ? AND id = ?", m.BoardID, m.MemberID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "Member not found")
		}
		return nil, nil, err
	}
	if member.Role == model.RoleOwner {
		return nil, nil, apperr.New(apperr.KindConflict, "Cannot remove owner")
	}

	if err := tx.Delete(&member).Error; err != nil {
		return nil, nil, err
	}

	act := &model.Activity{
		Type: model.ActivityMemberRemoved,
		Meta: map[string]any{"memberId": m.MemberID.String(), "userId": member.UserID.String()},
	}
	return nil, act, nil
}
