package repository_test

import (
	"context"
	"testing"
	"time"

	"taskboard/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// Lists render by position ascending with creation time breaking ties, so
// two lists sharing a position keep their creation order.
func TestListRepository_GetByBoardID_RenderingOrder(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	listRepo := repository.NewListRepository(gormDB)

	boardID := uuid.New()
	earlier := time.Now().Add(-time.Hour)
	later := time.Now()

	mock.ExpectQuery(`SELECT .* FROM "lists" WHERE board_id = .* ORDER BY position, created_at`).
		WithArgs(boardID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "title", "position", "created_at"}).
			AddRow(uuid.New().String(), boardID.String(), "Todo", 1024, earlier).
			AddRow(uuid.New().String(), boardID.String(), "Done", 1024, later))

	lists, err := listRepo.GetByBoardID(context.Background(), boardID)

	assert.NoError(t, err)
	assert.Len(t, lists, 2)
	assert.Equal(t, "Todo", lists[0].Title)
	assert.Equal(t, "Done", lists[1].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRepository_GetByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	listRepo := repository.NewListRepository(gormDB)

	id := uuid.New()
	mock.ExpectQuery(`SELECT .* FROM "lists" WHERE id = `).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	list, err := listRepo.GetByID(context.Background(), id)

	assert.NoError(t, err)
	assert.Nil(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}
