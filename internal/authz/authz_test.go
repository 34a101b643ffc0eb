package authz_test

import (
	"testing"

	"taskboard/internal/apperr"
	"taskboard/internal/authz"
	"taskboard/internal/model"

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

func expectBoard(mock sqlmock.Sqlmock, boardID, ownerID uuid.UUID) {
	mock.ExpectQuery(`SELECT .* FROM "boards" WHERE id = `).
		WithArgs(boardID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "owner_id"}).
			AddRow(boardID.String(), "Board", ownerID.String()))
}

func expectMember(mock sqlmock.Sqlmock, boardID, userID uuid.UUID, role string) {
	mock.ExpectQuery(`SELECT .* FROM "board_members" WHERE board_id = `).
		WithArgs(boardID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "user_id", "role"}).
			AddRow(uuid.New().String(), boardID.String(), userID.String(), role))
}

func TestAuthorize_OwnerHasEveryCapability(t *testing.T) {
	db, mock := setupMockDB(t)
	ownerID := uuid.New()
	boardID := uuid.New()

	for _, cap := range []authz.Capability{authz.CapRead, authz.CapWrite, authz.CapOwner} {
		expectBoard(mock, boardID, ownerID)
		assert.NoError(t, authz.Authorize(db, ownerID, boardID, cap))
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthorize_ViewerReadsButNeverWrites(t *testing.T) {
	db, mock := setupMockDB(t)
	viewerID := uuid.New()
	boardID := uuid.New()

	expectBoard(mock, boardID, uuid.New())
	expectMember(mock, boardID, viewerID, model.RoleViewer)
	assert.NoError(t, authz.Authorize(db, viewerID, boardID, authz.CapRead))

	expectBoard(mock, boardID, uuid.New())
	expectMember(mock, boardID, viewerID, model.RoleViewer)
	err := authz.Authorize(db, viewerID, boardID, authz.CapWrite)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthorize_EditorWritesButIsNotOwner(t *testing.T) {
	db, mock := setupMockDB(t)
	editorID := uuid.New()
	boardID := uuid.New()

	expectBoard(mock, boardID, uuid.New())
	expectMember(mock, boardID, editorID, model.RoleEditor)
	assert.NoError(t, authz.Authorize(db, editorID, boardID, authz.CapWrite))

	// Owner capability never comes from a role.
	expectBoard(mock, boardID, uuid.New())
	err := authz.Authorize(db, editorID, boardID, authz.CapOwner)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthorize_NonMemberForbidden(t *testing.T) {
	db, mock := setupMockDB(t)
	strangerID := uuid.New()
	boardID := uuid.New()

	expectBoard(mock, boardID, uuid.New())
	mock.ExpectQuery(`SELECT .* FROM "board_members" WHERE board_id = `).
		WithArgs(boardID, strangerID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := authz.Authorize(db, strangerID, boardID, authz.CapRead)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthorize_MissingBoardIsNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	boardID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "boards" WHERE id = `).
		WithArgs(boardID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := authz.Authorize(db, uuid.New(), boardID, authz.CapRead)
	// Absence and denial stay distinguishable.
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
