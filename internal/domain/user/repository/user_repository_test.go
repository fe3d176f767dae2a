package repository

import (
	"context"
	"testing"
	"time"

	"blog_post_api/internal/domain/user/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestUpsertOnSubjectConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users" .* ON CONFLICT \("subject"\) DO UPDATE SET`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	user := &model.User{Name: "alice", Subject: "123", Email: "a@example.com"}
	require.NoError(t, repo.Upsert(context.Background(), user))
	assert.Equal(t, uint(3), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBySubject(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE subject = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "name", "subject", "email", "image"}).
			AddRow(3, now, now, "alice", "123", "a@example.com", ""))

	user, err := repo.GetBySubject(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "alice_123", user.Identity().Composite())
	assert.NoError(t, mock.ExpectationsWereMet())
}
