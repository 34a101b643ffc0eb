package repository_test

import (
	"context"
	"testing"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestActivityRepository_GetByBoardID_Paginates(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewActivityRepository(gormDB)

	boardID := uuid.New()
	userID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "board_id", "user_id", "type", "created_at"})
	for i := 0; i < 2; i++ {
		rows.AddRow(uuid.New().String(), boardID.String(), userID.String(), model.ActivityTaskCreated, time.Now())
	}

	mock.ExpectQuery(`SELECT .* FROM "activities" WHERE board_id = .* ORDER BY created_at DESC`).
		WithArgs(boardID).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT .* FROM "users" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(userID.String(), "tester"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "activities" WHERE board_id = `).
		WithArgs(boardID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	activities, total, err := repo.GetByBoardID(context.Background(), boardID, 2, 3)

	assert.NoError(t, err)
	assert.Len(t, activities, 2)
	assert.Equal(t, int64(12), total)
	assert.Equal(t, "tester", activities[0].User.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepository_GetByBoardID_DefaultsLimitAndPage(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewActivityRepository(gormDB)

	boardID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "activities" WHERE board_id = `).
		WithArgs(boardID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "activities" WHERE board_id = `).
		WithArgs(boardID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	activities, total, err := repo.GetByBoardID(context.Background(), boardID, 0, 0)

	assert.NoError(t, err)
	assert.Empty(t, activities)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
