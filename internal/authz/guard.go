package authz

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Guard wraps the board checks for callers that live outside a transaction:
// read handlers and the websocket join gate.
type Guard struct {
	db *gorm.DB
}

func NewGuard(db *gorm.DB) *Guard {
	return &Guard{db: db}
}

func (g *Guard) Check(ctx context.Context, userID, boardID uuid.UUID, cap Capability) error {
	return Authorize(g.db.WithContext(ctx), userID, boardID, cap)
}

// CanRead satisfies the websocket join gate.
func (g *Guard) CanRead(ctx context.Context, userID, boardID uuid.UUID) error {
	return g.Check(ctx, userID, boardID, CapRead)
}

func (g *Guard) ResolveList(ctx context.Context, listID uuid.UUID) (uuid.UUID, error) {
	return BoardOfList(g.db.WithContext(ctx), listID)
}

func (g *Guard) ResolveTask(ctx context.Context, taskID uuid.UUID) (uuid.UUID, error) {
	return BoardOfTask(g.db.WithContext(ctx), taskID)
}
