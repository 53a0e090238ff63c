package repository

import (
	"context"
	"database/sql"
	"fmt"

	"wisefido-vitals-hub/internal/models"

	"go.uber.org/zap"
)

const readingsSchema = `
	CREATE TABLE IF NOT EXISTS readings (
		reading_id  BIGSERIAL PRIMARY KEY,
		user_id     VARCHAR(64) NOT NULL,
		heart_rate  DOUBLE PRECISION,
		spo2        DOUBLE PRECISION,
		temperature DOUBLE PRECISION,
		device_id   VARCHAR(128) NOT NULL DEFAULT 'unknown',
		timestamp   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_readings_user_timestamp ON readings (user_id, timestamp DESC);
`

// ReadingsRepository 读数仓库（PostgreSQL）
type ReadingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReadingsRepository 创建读数仓库
func NewReadingsRepository(db *sql.DB, logger *zap.Logger) *ReadingsRepository {
	return &ReadingsRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema 创建 readings 表（若不存在）
func (r *ReadingsRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, readingsSchema); err != nil {
		return fmt.Errorf("failed to create readings schema: %w", err)
	}
	return nil
}

// InsertReading 写入一条读数，返回 reading_id
func (r *ReadingsRepository) InsertReading(ctx context.Context, reading models.Reading) (int64, error) {
	if reading.UserID == "" {
		return 0, fmt.Errorf("user_id is required")
	}
	deviceID := reading.DeviceID
	if deviceID == "" {
		deviceID = models.UnknownDeviceID
	}

	query := `
		INSERT INTO readings (user_id, heart_rate, spo2, temperature, device_id, timestamp)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
		RETURNING reading_id
	`

	var recordedAt sql.NullTime
	if !reading.RecordedAt.IsZero() {
		recordedAt = sql.NullTime{Time: reading.RecordedAt, Valid: true}
	}

	var readingID int64
	err := r.db.QueryRowContext(ctx, query,
		reading.UserID,
		nullFloat(reading.HeartRate),
		nullFloat(reading.SpO2),
		nullFloat(reading.Temperature),
		deviceID,
		recordedAt,
	).Scan(&readingID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert reading: %w", err)
	}

	r.logger.Debug("Reading stored",
		zap.Int64("reading_id", readingID),
		zap.String("user_id", reading.UserID),
		zap.String("device_id", deviceID),
	)
	return readingID, nil
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
