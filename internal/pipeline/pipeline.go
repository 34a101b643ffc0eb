// Package pipeline executes every write as one atomic unit: validate,
// re-check authorization against current state, apply the entity change, and
// append exactly one activity record. Either the entity change and its
// activity both commit or neither does.
package pipeline

import (
	"context"
	"time"

	"taskboard/internal/apperr"
	"taskboard/internal/authz"
	"taskboard/internal/model"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PositionStep is the spacing between default ordering keys. Sparse keys let
// a reorder touch a single row; neighbors only collide after PositionStep
// inserts between them.
const PositionStep = 1024

// Mutation is the closed set of write operations. Each variant resolves its
// target board and required capability from transaction-local state, then
// applies its change and describes it as an activity record.
type Mutation interface {
	// Action is the broadcast action name, e.g. "task_move".
	Action() string
	// Validate checks structural preconditions without touching the store.
	Validate() error
	// Resolve loads referenced entities inside the transaction and yields
	// the owning board plus the capability the actor must hold on it.
	Resolve(tx *gorm.DB) (uuid.UUID, authz.Capability, error)
	// Apply performs the entity change and returns the result payload and
	// the activity describing it. BoardID and UserID on the activity are
	// filled in by the pipeline.
	Apply(tx *gorm.DB, actor uuid.UUID) (any, *model.Activity, error)
}

// Result is what a committed mutation hands back to the caller, which is
// responsible for invoking the broadcaster with it.
type Result struct {
	BoardID uuid.UUID
	Action  string
	Data    any
}

type Pipeline struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Pipeline {
	return &Pipeline{db: db}
}

// Apply runs m to commit-or-abort. A store-level abort that is not a typed
// domain failure is retried exactly once before being surfaced as a
// transaction failure.
func (p *Pipeline) Apply(ctx context.Context, actor uuid.UUID, m Mutation) (*Result, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	res, err := p.runOnce(ctx, actor, m)
	if err != nil && !apperr.IsDomain(err) {
		log.WithError(err).WithField("action", m.Action()).Warn("mutation aborted by store, retrying once")
		res, err = p.runOnce(ctx, actor, m)
		if err != nil && !apperr.IsDomain(err) {
			return nil, apperr.Wrap(apperr.KindTransaction, "transaction failed", err)
		}
	}
	if err != nil {
		return nil, err
	}

	// Cascading cleanup is best-effort and never re-opens the committed
	// delete (see DESIGN.md).
	if del, ok := m.(*DeleteBoard); ok {
		go p.sweepBoard(del.BoardID)
	}

	return res, nil
}

func (p *Pipeline) runOnce(ctx context.Context, actor uuid.UUID, m Mutation) (*Result, error) {
	var res *Result
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		boardID, cap, err := m.Resolve(tx)
		if err != nil {
			return err
		}
		if err := authz.Authorize(tx, actor, boardID, cap); err != nil {
			return err
		}

		data, act, err := m.Apply(tx, actor)
		if err != nil {
			return err
		}

		act.ID = uuid.New()
		act.UserID = actor
		if act.BoardID == uuid.Nil {
			act.BoardID = boardID
		}
		if err := tx.Create(act).Error; err != nil {
			return err
		}

		res = &Result{BoardID: act.BoardID, Action: m.Action(), Data: data}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// sweepBoard removes the lists, tasks, assignee links and memberships of an
// already-deleted board. Activity records are kept: they outlive the board.
func (p *Pipeline) sweepBoard(boardID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM task_assignees WHERE task_id IN (SELECT id FROM tasks WHERE board_id = ?)",
			boardID,
		).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", boardID).Delete(&model.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", boardID).Delete(&model.List{}).Error; err != nil {
			return err
		}
		return tx.Where("board_id = ?", boardID).Delete(&model.BoardMember{}).Error
	})
	if err != nil {
		log.WithError(err).WithField("board_id", boardID).Error("board cleanup failed; dependents remain until the next sweep")
	}
}

// nextPosition computes the default ordering key for a new row within its
// parent: max(position)+PositionStep, so defaults always sort after existing
// siblings and leave room between them.
func nextPosition(tx *gorm.DB, mdl any, parentColumn string, parentID uuid.UUID) (int, error) {
	var max struct {
		Max int
	}
	err := tx.Model(mdl).
		Select("COALESCE(MAX(position), 0) as max").
		Where(parentColumn+" = ?", parentID).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max.Max + PositionStep, nil
}
