package database

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func mockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func TestPendingMigrations(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}
	assert.Len(t, pendingMigrations(nil, registered), 3)

	got := pendingMigrations([]int{1, 3}, registered)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Version)
}

func TestGetAppliedMigrations_MissingTable(t *testing.T) {
	db, mock := mockPostgres(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "version" FROM "migration_logs"`)).
		WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "migration_logs" does not exist`})

	versions, err := NewMigrationStore(db).GetAppliedMigrations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, versions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_SkipsApplied(t *testing.T) {
	db, mock := mockPostgres(t)
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS migration_logs`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	rows := sqlmock.NewRows([]string{"version"})
	for _, m := range GetMigrations() {
		rows.AddRow(m.Version)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "version" FROM "migration_logs"`)).WillReturnRows(rows)

	require.NoError(t, RunMigrations(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_RejectsUnknownVersions(t *testing.T) {
	db, mock := mockPostgres(t)
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS migration_logs`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "version" FROM "migration_logs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1).AddRow(42))

	err := RunMigrations(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000042")
}

func TestRollbackMigration_NotApplied(t *testing.T) {
	db, mock := mockPostgres(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "version" FROM "migration_logs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	err := RollbackMigration(context.Background(), db, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has not been applied")

	assert.Error(t, RollbackMigration(context.Background(), db, 999))
}
