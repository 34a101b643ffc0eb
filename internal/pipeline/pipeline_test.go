package pipeline_test

import (
	"context"
	"testing"

	"taskboard/internal/apperr"
	"taskboard/internal/model"
	"taskboard/internal/pipeline"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	assert.NoError(t, err)

	return gormDB, mock
}

func boardRows(boardID, ownerID uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "owner_id"}).
		AddRow(boardID.String(), "Board", "", ownerID.String())
}

func TestPipeline_ValidationFailsBeforeStore(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	p := pipeline.New(gormDB)

	// No expectations registered: an invalid mutation must not open a
	// transaction at all.
	_, err := p.Apply(context.Background(), uuid.New(), &pipeline.CreateBoard{Name: ""})

	assert.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipeline_ViewerCannotWrite(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	p := pipeline.New(gormDB)

	viewerID := uuid.New()
	ownerID := uuid.New()
	boardID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "boards" WHERE id = `).
		WithArgs(boardID).
		WillReturnRows(boardRows(boardID, ownerID))
	mock.ExpectQuery(`SELECT .* FROM "board_members" WHERE board_id = `).
		WithArgs(boardID, viewerID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "user_id", "role"}).
			AddRow(uuid.New().String(), boardID.String(), viewerID.String(), model.RoleViewer))
	mock.ExpectRollback()

	_, err := p.Apply(context.Background(), viewerID, &pipeline.CreateList{
		BoardID: boardID,
		Title:   "Todo",
	})

	assert.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipeline_MissingBoardIsNotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	p := pipeline.New(gormDB)

	boardID := uuid.New()
	actorID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "boards" WHERE id = `).
		WithArgs(boardID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := p.Apply(context.Background(), actorID, &pipeline.DeleteBoard{BoardID: boardID})

	assert.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipeline_RemoveOwnerMembershipConflicts(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	p := pipeline.New(gormDB)

	ownerID := uuid.New()
	boardID := uuid.New()
	memberID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "boards" WHERE id = `).
		WithArgs(boardID).
		WillReturnRows(boardRows(boardID, ownerID))
	mock.ExpectQuery(`SELECT .* FROM "board_members" WHERE board_id = `).
		WithArgs(boardID, memberID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "user_id", "role"}).
			AddRow(memberID.String(), boardID.String(), ownerID.String(), model.RoleOwner))
	mock.ExpectRollback()

	_, err := p.Apply(context.Background(), ownerID, &pipeline.RemoveMember{
		BoardID:  boardID,
		MemberID: memberID,
	})

	assert.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipeline_MoveTaskAcrossBoardsConflicts(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	p := pipeline.New(gormDB)

	ownerID := uuid.New()
	boardID := uuid.New()
	otherBoardID := uuid.New()
	taskID := uuid.New()
	destListID := uuid.New()

	taskRow := sqlmock.NewRows([]string{"id", "board_id", "list_id", "title", "position", "priority", "created_by"}).
		AddRow(taskID.String(), boardID.String(), uuid.New().String(), "Task", 1024, model.PriorityMedium, ownerID.String())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = `).
		WithArgs(taskID).
		WillReturnRows(taskRow)
	mock.ExpectQuery(`SELECT .* FROM "boards" WHERE id = `).
		WithArgs(boardID).
		WillReturnRows(boardRows(boardID, ownerID))
	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = `).
		WithArgs(taskID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "list_id", "title", "position", "priority", "created_by"}).
			AddRow(taskID.String(), boardID.String(), uuid.New().String(), "Task", 1024, model.PriorityMedium, ownerID.String()))
	mock.ExpectQuery(`SELECT .* FROM "lists" WHERE id = `).
		WithArgs(destListID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "title", "position"}).
			AddRow(destListID.String(), otherBoardID.String(), "Elsewhere", 0))
	mock.ExpectRollback()

	_, err := p.Apply(context.Background(), ownerID, &pipeline.MoveTask{
		TaskID: taskID,
		ListID: destListID,
	})

	assert.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Moving a task to a sibling list re-homes it without touching its position
// key, so its relative order among old neighbors survives a move there and
// back.
func TestPipeline_MoveTaskKeepsPosition(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	p := pipeline.New(gormDB)

	ownerID := uuid.New()
	boardID := uuid.New()
	taskID := uuid.New()
	destListID := uuid.New()

	taskCols := []string{"id", "board_id", "list_id", "title", "position", "priority", "created_by"}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = `).
		WithArgs(taskID).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow(taskID.String(), boardID.String(), uuid.New().String(), "Task", 3072, model.PriorityHigh, ownerID.String()))
	mock.ExpectQuery(`SELECT .* FROM "boards" WHERE id = `).
		WithArgs(boardID).
		WillReturnRows(boardRows(boardID, ownerID))
	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = `).
		WithArgs(taskID).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow(taskID.String(), boardID.String(), uuid.New().String(), "Task", 3072, model.PriorityHigh, ownerID.String()))
	mock.ExpectQuery(`SELECT .* FROM "lists" WHERE id = `).
		WithArgs(destListID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "title", "position"}).
			AddRow(destListID.String(), boardID.String(), "Done", 2048))
	mock.ExpectExec(`UPDATE "tasks" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "activities"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	res, err := p.Apply(context.Background(), ownerID, &pipeline.MoveTask{
		TaskID: taskID,
		ListID: destListID,
	})

	assert.NoError(t, err)
	assert.Equal(t, "task_move", res.Action)
	task, ok := res.Data.(*model.Task)
	assert.True(t, ok)
	assert.Equal(t, destListID, task.ListID)
	assert.Equal(t, 3072, task.Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipeline_CreateListCommitsWithActivity(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	p := pipeline.New(gormDB)

	ownerID := uuid.New()
	boardID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "boards" WHERE id = `).
		WithArgs(boardID).
		WillReturnRows(boardRows(boardID, ownerID))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(position\), 0\) as max FROM "lists"`).
		WithArgs(boardID).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(1024))
	mock.ExpectQuery(`INSERT INTO "lists"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO "activities"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	res, err := p.Apply(context.Background(), ownerID, &pipeline.CreateList{
		BoardID: boardID,
		Title:   "Todo",
	})

	assert.NoError(t, err)
	assert.Equal(t, "list_create", res.Action)
	assert.Equal(t, boardID, res.BoardID)
	list, ok := res.Data.(*model.List)
	assert.True(t, ok)
	assert.Equal(t, 2048, list.Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A failed activity append aborts the whole mutation; the pipeline retries
// the transaction once and then reports a transaction failure.
func TestPipeline_ActivityFailureRollsBackAndRetriesOnce(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	p := pipeline.New(gormDB)

	ownerID := uuid.New()
	boardID := uuid.New()
	taskID := uuid.New()
	userID := uuid.New()

	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = `).
			WithArgs(taskID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "list_id", "title", "position", "priority", "created_by"}).
				AddRow(taskID.String(), boardID.String(), uuid.New().String(), "Task", 0, model.PriorityMedium, ownerID.String()))
		mock.ExpectQuery(`SELECT .* FROM "boards" WHERE id = `).
			WithArgs(boardID).
			WillReturnRows(boardRows(boardID, ownerID))
		mock.ExpectExec(`DELETE FROM task_assignees WHERE task_id = `).
			WithArgs(taskID, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO "activities"`).
			WillReturnError(assert.AnError)
		mock.ExpectRollback()
	}

	_, err := p.Apply(context.Background(), ownerID, &pipeline.RemoveAssignee{
		TaskID: taskID,
		UserID: userID,
	})

	assert.Error(t, err)
	assert.Equal(t, apperr.KindTransaction, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
