package handler

import (
	"time"

	"taskboard/internal/model"

	"github.com/google/uuid"
)

// Response shapes. Models never cross the API boundary directly; these keep
// the wire format stable and the password hash out of it.

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type MemberResponse struct {
	ID        uuid.UUID     `json:"id"`
	BoardID   uuid.UUID     `json:"boardId"`
	UserID    uuid.UUID     `json:"userId"`
	Role      string        `json:"role"`
	User      *UserResponse `json:"user,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

type BoardResponse struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	OwnerID     uuid.UUID        `json:"ownerId"`
	Members     []MemberResponse `json:"members,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

type ListResponse struct {
	ID        uuid.UUID `json:"id"`
	BoardID   uuid.UUID `json:"boardId"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type TaskResponse struct {
	ID          uuid.UUID      `json:"id"`
	BoardID     uuid.UUID      `json:"boardId"`
	ListID      uuid.UUID      `json:"listId"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Position    int            `json:"position"`
	Priority    string         `json:"priority"`
	DueDate     *time.Time     `json:"dueDate,omitempty"`
	CreatedBy   uuid.UUID      `json:"createdBy"`
	Assignees   []UserResponse `json:"assignees"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type ActivityResponse struct {
	ID        uuid.UUID      `json:"id"`
	BoardID   uuid.UUID      `json:"boardId"`
	ListID    *uuid.UUID     `json:"listId,omitempty"`
	TaskID    *uuid.UUID     `json:"taskId,omitempty"`
	UserID    uuid.UUID      `json:"userId"`
	Type      string         `json:"type"`
	Meta      map[string]any `json:"meta,omitempty"`
	User      *UserResponse  `json:"user,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func newUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func newMemberResponse(m *model.BoardMember) MemberResponse {
	resp := MemberResponse{
		ID:        m.ID,
		BoardID:   m.BoardID,
		UserID:    m.UserID,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
	}
	if m.User.ID != uuid.Nil {
		u := newUserResponse(&m.User)
		resp.User = &u
	}
	return resp
}

func newBoardResponse(b *model.Board) BoardResponse {
	resp := BoardResponse{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		OwnerID:     b.OwnerID,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	for i := range b.Members {
		resp.Members = append(resp.Members, newMemberResponse(&b.Members[i]))
	}
	return resp
}

func newListResponse(l *model.List) ListResponse {
	return ListResponse{
		ID:        l.ID,
		BoardID:   l.BoardID,
		Title:     l.Title,
		Position:  l.Position,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func newTaskResponse(t *model.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		BoardID:     t.BoardID,
		ListID:      t.ListID,
		Title:       t.Title,
		Description: t.Description,
		Position:    t.Position,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		CreatedBy:   t.CreatedBy,
		Assignees:   []UserResponse{},
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	for i := range t.Assignees {
		resp.Assignees = append(resp.Assignees, newUserResponse(&t.Assignees[i]))
	}
	return resp
}

func newActivityResponse(a *model.Activity) ActivityResponse {
	resp := ActivityResponse{
		ID:        a.ID,
		BoardID:   a.BoardID,
		ListID:    a.ListID,
		TaskID:    a.TaskID,
		UserID:    a.UserID,
		Type:      a.Type,
		Meta:      a.Meta,
		CreatedAt: a.CreatedAt,
	}
	if a.User.ID != uuid.Nil {
		u := newUserResponse(&a.User)
		resp.User = &u
	}
	return resp
}
