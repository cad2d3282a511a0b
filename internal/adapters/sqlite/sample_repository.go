package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quentinrf/radiometer/internal/domain"
)

// timestampLayout stores UTC with millisecond precision; fixed width keeps text ordering chronological
const timestampLayout = "2006-01-02 15:04:05.000"

const sampleColumns = `timestamp, lux, channel0, channel1, gain, again, integration_time, atime,
	temperature, humidity, pressure, dew_point, object_temperature`

// SampleRepository implements domain.SampleRepository with SQLite
type SampleRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSampleRepository creates a SQLite-backed repository
func NewSampleRepository(dbPath string) (*SampleRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create table if not exists
	schema := `
	CREATE TABLE IF NOT EXISTS light_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		lux REAL NOT NULL,
		channel0 INTEGER NOT NULL,
		channel1 INTEGER NOT NULL,
		gain INTEGER NOT NULL,
		again REAL NOT NULL,
		integration_time INTEGER NOT NULL,
		atime REAL NOT NULL,
		temperature REAL,
		humidity REAL,
		pressure REAL,
		dew_point REAL,
		object_temperature REAL
	);
	CREATE INDEX IF NOT EXISTS idx_samples_timestamp ON light_samples(timestamp);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SampleRepository{db: db, now: time.Now}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func nullable(m domain.Measurement) sql.NullFloat64 {
	return sql.NullFloat64{Float64: m.Value, Valid: m.Valid}
}

func measurement(n sql.NullFloat64) domain.Measurement {
	if !n.Valid {
		return domain.Measurement{}
	}
	return domain.Some(n.Float64)
}

// WriteSample stores a sample in SQLite
func (r *SampleRepository) WriteSample(ctx context.Context, s domain.CalibratedSample) error {
	query := `INSERT INTO light_samples (` + sampleColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		formatTime(s.Timestamp), s.Lux, s.Channel0, s.Channel1,
		int(s.Gain), s.GainMultiplier, int(s.IntegrationTime), s.IntegrationCoefficient,
		nullable(s.Temperature), nullable(s.Humidity), nullable(s.Pressure),
		nullable(s.DewPoint), nullable(s.ObjectTemperature),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSample(row scanner) (domain.CalibratedSample, error) {
	var (
		s                         domain.CalibratedSample
		timestamp                 string
		gain, itime               int
		temp, hum, press, dp, obj sql.NullFloat64
	)

	err := row.Scan(&timestamp, &s.Lux, &s.Channel0, &s.Channel1,
		&gain, &s.GainMultiplier, &itime, &s.IntegrationCoefficient,
		&temp, &hum, &press, &dp, &obj)
	if err != nil {
		return domain.CalibratedSample{}, err
	}

	s.Timestamp, err = time.Parse(timestampLayout, timestamp)
	if err != nil {
		return domain.CalibratedSample{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	s.Gain = domain.GainLevel(gain)
	s.IntegrationTime = domain.IntegrationTime(itime)
	s.Temperature = measurement(temp)
	s.Humidity = measurement(hum)
	s.Pressure = measurement(press)
	s.DewPoint = measurement(dp)
	s.ObjectTemperature = measurement(obj)
	return s, nil
}

// GetSamplesInRange returns all samples in [start, end), oldest first
func (r *SampleRepository) GetSamplesInRange(ctx context.Context, start, end time.Time) ([]domain.CalibratedSample, error) {
	query := `
		SELECT ` + sampleColumns + `
		FROM light_samples
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC
	`

	rows, err := r.db.QueryContext(ctx, query, formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []domain.CalibratedSample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate samples: %w", err)
	}

	return samples, nil
}

// GetLatestSample returns the most recent sample
func (r *SampleRepository) GetLatestSample(ctx context.Context) (domain.CalibratedSample, error) {
	query := `
		SELECT ` + sampleColumns + `
		FROM light_samples
		ORDER BY timestamp DESC
		LIMIT 1
	`

	s, err := scanSample(r.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CalibratedSample{}, domain.ErrSampleNotFound
	}
	if err != nil {
		return domain.CalibratedSample{}, fmt.Errorf("failed to query latest sample: %w", err)
	}
	return s, nil
}

// DeleteOldSamples removes samples older than specified duration
func (r *SampleRepository) DeleteOldSamples(ctx context.Context, olderThan time.Duration) error {
	cutoff := r.now().Add(-olderThan)
	query := `DELETE FROM light_samples WHERE timestamp < ?`

	if _, err := r.db.ExecContext(ctx, query, formatTime(cutoff)); err != nil {
		return fmt.Errorf("failed to delete old samples: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *SampleRepository) Close() error {
	return r.db.Close()
}
