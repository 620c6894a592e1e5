// Package sqlite persists TSG records to a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/couchcryptid/tsg-reader/internal/domain"
	_ "modernc.org/sqlite"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store inserts records into one table. It implements pipeline.BatchLoader.
type Store struct {
	db     *sql.DB
	table  string
	insert string
	logger *slog.Logger
}

// Open connects to the database at path and creates the table if missing.
func Open(ctx context.Context, path, table string, logger *slog.Logger) (*Store, error) {
	// The table name is the only identifier interpolated into SQL.
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Limit open connections to 1 for SQLite to avoid locking issues.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	s := &Store{
		db:     db,
		table:  table,
		insert: fmt.Sprintf(`INSERT INTO %s (datetime_utc, scan_no, cond, temp, salinity, hull_temp, time_elapsed, nmea_time, latitude, longitude) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table),
		logger: logger,
	}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("sqlite store ready", "path", path, "table", table)
	return s, nil
}

func (s *Store) createTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	datetime_utc INTEGER NOT NULL,
	scan_no      INTEGER,
	cond         REAL NOT NULL,
	temp         REAL NOT NULL,
	salinity     REAL NOT NULL,
	hull_temp    REAL NOT NULL,
	time_elapsed REAL,
	nmea_time    INTEGER,
	latitude     REAL,
	longitude    REAL
)`, s.table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// LoadBatch inserts all records in a single transaction.
func (s *Store) LoadBatch(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, s.insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		if _, err := stmt.ExecContext(ctx, args(records[i])...); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// Records returns every row in insertion order.
func (s *Store) Records(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT datetime_utc, scan_no, cond, temp, salinity, hull_temp, time_elapsed, nmea_time, latitude, longitude FROM %s ORDER BY id`, s.table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		var (
			rec      domain.Record
			captured int64
			scanNo   sql.NullInt64
			elapsed  sql.NullFloat64
			nmeaTime sql.NullInt64
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&captured, &scanNo, &rec.Cond, &rec.Temp, &rec.Salinity, &rec.HullTemp,
			&elapsed, &nmeaTime, &lat, &lon); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		rec.DatetimeUTC = time.Unix(captured, 0).UTC()
		if scanNo.Valid {
			rec.ScanNo = &scanNo.Int64
		}
		if elapsed.Valid {
			rec.TimeElapsed = &elapsed.Float64
		}
		if nmeaTime.Valid {
			t := time.Unix(nmeaTime.Int64, 0).UTC()
			rec.NMEATime = &t
		}
		if lat.Valid {
			rec.Latitude = &lat.Float64
		}
		if lon.Valid {
			rec.Longitude = &lon.Float64
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// args orders a record's values to match the insert statement. Absent values
// bind as NULL.
func args(rec domain.Record) []any {
	var nmeaTime any
	if rec.NMEATime != nil {
		nmeaTime = rec.NMEATime.Unix()
	}
	return []any{
		rec.DatetimeUTC.Unix(),
		nullable(rec.ScanNo),
		rec.Cond,
		rec.Temp,
		rec.Salinity,
		rec.HullTemp,
		nullable(rec.TimeElapsed),
		nmeaTime,
		nullable(rec.Latitude),
		nullable(rec.Longitude),
	}
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
