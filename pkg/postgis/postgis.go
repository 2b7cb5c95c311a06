// Package postgis persists modelled and observed LOS velocities in a PostGIS
// table so they can be cut by region and track from other tools.
package postgis

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kass/go-insar-gps/pkg/config"
	"github.com/kass/go-insar-gps/pkg/models"
	_ "github.com/lib/pq"
)

const batchSize = 10000

// LOSStore is a PostGIS-backed table of LOS records keyed by track
type LOSStore struct {
	db *sql.DB
}

// DSN builds a lib/pq connection string from the configuration
func DSN(c config.PostGIS) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database)
}

// Open connects to the database described by the configuration
func Open(ctx context.Context, c config.PostGIS) (*LOSStore, error) {
	return OpenDSN(ctx, DSN(c))
}

// OpenDSN connects with a lib/pq connection string
func OpenDSN(ctx context.Context, dsn string) (*LOSStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &LOSStore{db: db}, nil
}

// InitSchema creates the table if it does not exist
func (s *LOSStore) InitSchema(ctx context.Context) error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis;`,
		`CREATE TABLE IF NOT EXISTS los_velocities (
			id BIGSERIAL PRIMARY KEY,
			track TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			los DOUBLE PRECISION NOT NULL,
			flight_angle DOUBLE PRECISION NOT NULL,
			incidence_angle DOUBLE PRECISION NOT NULL,
			location GEOMETRY(POINT, 4326) NOT NULL
		);`,
	}
	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// CreateSpatialIndex creates a GIST index on the location column
func (s *LOSStore) CreateSpatialIndex(ctx context.Context) error {
	queries := []string{
		`CREATE INDEX IF NOT EXISTS idx_los_velocities_location ON los_velocities USING GIST(location);`,
		`CREATE INDEX IF NOT EXISTS idx_los_velocities_track ON los_velocities (track);`,
		`ANALYZE los_velocities;`,
	}
	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to index table: %w", err)
		}
	}
	return nil
}

// InsertLOS stores the records under a track name, committing every batchSize rows
func (s *LOSStore) InsertLOS(ctx context.Context, track string, records []models.LOSVelocity) error {
	stmt, err := s.db.PrepareContext(ctx, `
		INSERT INTO los_velocities (track, name, los, flight_angle, incidence_angle, location)
		VALUES ($1, $2, $3, $4, $5, ST_SetSRID(ST_MakePoint($6, $7), 4326))
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		if err := s.insertBatch(ctx, stmt, track, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *LOSStore) insertBatch(ctx context.Context, stmt *sql.Stmt, track string, batch []models.LOSVelocity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	txStmt := tx.StmtContext(ctx, stmt)
	for _, r := range batch {
		_, err := txStmt.ExecContext(ctx, track, r.Name, r.LOS,
			r.Geometry.FlightAngleDeg, r.Geometry.IncidenceAngleDeg,
			r.Location.Lon, r.Location.Lat)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert LOS record at (%g, %g): %w", r.Location.Lon, r.Location.Lat, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// QueryBox returns the records of a track inside the box
func (s *LOSStore) QueryBox(ctx context.Context, track string, box models.BoundingBox) ([]models.LOSVelocity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, los, flight_angle, incidence_angle, ST_X(location) AS lon, ST_Y(location) AS lat
		FROM los_velocities
		WHERE track = $1 AND location && ST_MakeEnvelope($2, $3, $4, $5, 4326)
		ORDER BY id
	`, track, box.BottomLeft.Lon, box.BottomLeft.Lat, box.TopRight.Lon, box.TopRight.Lat)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var results []models.LOSVelocity
	for rows.Next() {
		var r models.LOSVelocity
		if err := rows.Scan(&r.Name, &r.LOS, &r.Geometry.FlightAngleDeg, &r.Geometry.IncidenceAngleDeg,
			&r.Location.Lon, &r.Location.Lat); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}

// Count returns the number of records stored for a track
func (s *LOSStore) Count(ctx context.Context, track string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM los_velocities WHERE track = $1`, track).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// DeleteTrack removes every record of a track
func (s *LOSStore) DeleteTrack(ctx context.Context, track string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM los_velocities WHERE track = $1`, track)
	if err != nil {
		return 0, fmt.Errorf("failed to delete track %q: %w", track, err)
	}
	return res.RowsAffected()
}

// Close closes the database connection
func (s *LOSStore) Close() error {
	return s.db.Close()
}
