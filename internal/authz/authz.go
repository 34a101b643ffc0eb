// Package authz decides whether a principal may act on a board. All checks
// resolve the board from the *gorm.DB handle they are given, so a caller
// inside a transaction authorizes against current, uncommitted-visible state
// rather than a cached copy.
package authz

import (
	"errors"

	"taskboard/internal/apperr"
	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Capability is the access level an operation requires on a board.
type Capability int

const (
	// CapNone skips the board check (board-creating operations only).
	CapNone Capability = iota
	// CapRead is granted to the owner and any member, viewer included.
	CapRead
	// CapWrite is granted to the owner and members with an editor-class
	// role (owner, admin, editor, writer). Viewer is read-only.
	CapWrite
	// CapOwner is granted to the board owner only; member roles never
	// grant it.
	CapOwner
)

var writeRoles = map[string]bool{
	model.RoleOwner:  true,
	model.RoleAdmin:  true,
	model.RoleEditor: true,
	model.RoleWriter: true,
}

// Authorize checks that the user holds cap on the board. It returns
// apperr.KindNotFound when the board does not exist and apperr.KindForbidden
// when it exists but the user's role is insufficient; the two stay
// distinguishable by policy (see DESIGN.md).
func Authorize(db *gorm.DB, userID, boardID uuid.UUID, cap Capability) error {
	if cap == CapNone {
		return nil
	}

	var board model.Board
	if err := db.First(&board, "id = ?", boardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "Board not found")
		}
		return err
	}

	if board.OwnerID == userID {
		return nil
	}
	if cap == CapOwner {
		return apperr.New(apperr.KindForbidden, "Only the board owner may perform this action")
	}

	var member model.BoardMember
	err := db.First(&member, "board_id = ? AND user_id = ?", boardID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.KindForbidden, "Not authorized for this board")
	}
	if err != nil {
		return err
	}

	if cap == CapRead || writeRoles[member.Role] {
		return nil
	}
	return apperr.New(apperr.KindForbidden, "Not authorized for this board")
}

// BoardOfList resolves a list to its owning board ID.
func BoardOfList(db *gorm.DB, listID uuid.UUID) (uuid.UUID, error) {
	var list model.List
	if err := db.First(&list, "id = ?", listID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, apperr.New(apperr.KindNotFound, "List not found")
		}
		return uuid.Nil, err
	}
	return list.BoardID, nil
}

// BoardOfTask resolves a task to its owning board ID.
func BoardOfTask(db *gorm.DB, taskID uuid.UUID) (uuid.UUID, error) {
	var task model.Task
	if err := db.First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, apperr.New(apperr.KindNotFound, "Task not found")
		}
		return uuid.Nil, err
	}
	return task.BoardID, nil
}
