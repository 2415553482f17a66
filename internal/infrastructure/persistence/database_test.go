package persistence

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cobranzas/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	gormlogger "gorm.io/gorm/logger"
)

func testDatabaseConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		MaxOpenConns:    7,
		MaxIdleConns:    3,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 1,
	}
}

func TestOpenDatabase(t *testing.T) {
	t.Run("applies pool settings and pings", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockDB.Close()

		mock.ExpectPing()
		mock.ExpectPing()

		db, err := OpenDatabase(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}),
			testDatabaseConfig(), gormlogger.Discard)
		require.NoError(t, err)
		require.NotNil(t, db.DB)

		assert.Equal(t, 7, mockDB.Stats().MaxOpenConnections)
		assert.NoError(t, db.Ping())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fails when ping fails", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockDB.Close()

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		_, err = OpenDatabase(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}),
			testDatabaseConfig(), gormlogger.Discard)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to ping database")
	})
}

func TestDatabase_StatsAndClose(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	mock.ExpectClose()

	db, err := OpenDatabase(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}),
		testDatabaseConfig(), gormlogger.Discard)
	require.NoError(t, err)

	_, inUse, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, inUse)

	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
