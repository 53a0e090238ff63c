package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"wisefido-vitals-hub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockReadingsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *ReadingsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := NewReadingsRepository(db, logger)

	return db, mock, repo
}

func TestInsertReading_Success(t *testing.T) {
	db, mock, repo := setupMockReadingsDB(t)
	defer db.Close()

	recordedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	reading := models.Reading{
		UserID:     "42",
		HeartRate:  models.Float64(75),
		SpO2:       models.Float64(98),
		DeviceID:   "d1",
		RecordedAt: recordedAt,
	}

	mock.ExpectQuery(`INSERT INTO readings`).
		WithArgs("42", 75.0, 98.0, nil, "d1", recordedAt).
		WillReturnRows(sqlmock.NewRows([]string{"reading_id"}).AddRow(int64(1001)))

	id, err := repo.InsertReading(context.Background(), reading)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), id)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReading_DefaultsDeviceAndTimestamp(t *testing.T) {
	db, mock, repo := setupMockReadingsDB(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO readings`).
		WithArgs("7", nil, nil, 36.6, models.UnknownDeviceID, nil).
		WillReturnRows(sqlmock.NewRows([]string{"reading_id"}).AddRow(int64(1)))

	_, err := repo.InsertReading(context.Background(), models.Reading{
		UserID:      "7",
		Temperature: models.Float64(36.6),
	})
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReading_MissingUser(t *testing.T) {
	db, mock, repo := setupMockReadingsDB(t)
	defer db.Close()

	_, err := repo.InsertReading(context.Background(), models.Reading{DeviceID: "d1"})
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReading_DBError(t *testing.T) {
	db, mock, repo := setupMockReadingsDB(t)
	defer db.Close()

	dbErr := errors.New("connection refused")
	mock.ExpectQuery(`INSERT INTO readings`).WillReturnError(dbErr)

	_, err := repo.InsertReading(context.Background(), models.Reading{UserID: "42"})
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "failed to insert reading")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	db, mock, repo := setupMockReadingsDB(t)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS readings`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
