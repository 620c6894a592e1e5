// Package csvfile persists TSG records as CSV with the shared column schema.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/couchcryptid/tsg-reader/internal/domain"
)

// Writer appends records to a CSV file. The header row is written only when
// the file is new or empty. It implements pipeline.BatchLoader.
type Writer struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

// NewWriter opens path for appending, creating it if needed.
func NewWriter(path string, logger *slog.Logger) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat csv %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(domain.Schema); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		logger.Info("csv file created", "path", path)
	}

	return &Writer{path: path, logger: logger, f: f, w: w}, nil
}

// LoadBatch appends one row per record and flushes.
func (w *Writer) LoadBatch(_ context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range records {
		if err := w.w.Write(Row(records[i])); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		return fmt.Errorf("flush csv %s: %w", w.path, err)
	}
	return nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.w.Flush()
	return errors.Join(w.w.Error(), w.f.Close())
}

// Row formats a record in Schema column order. Absent values are empty cells.
func Row(rec domain.Record) []string {
	return []string{
		strconv.FormatInt(rec.DatetimeUTC.Unix(), 10),
		formatOptionalInt(rec.ScanNo),
		formatFloat(rec.Cond),
		formatFloat(rec.Temp),
		formatFloat(rec.Salinity),
		formatFloat(rec.HullTemp),
		formatOptionalFloat(rec.TimeElapsed),
		formatOptionalTime(rec.NMEATime),
		formatOptionalFloat(rec.Latitude),
		formatOptionalFloat(rec.Longitude),
	}
}

// ReadRecords reads a file produced by Writer. The header must match Schema.
func ReadRecords(r io.Reader) ([]domain.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(domain.Schema)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if !slices.Equal(header, domain.Schema) {
		return nil, fmt.Errorf("unexpected csv header %v", header)
	}

	var out []domain.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		rec, err := parseRow(row)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, rec)
	}
}

func parseRow(row []string) (domain.Record, error) {
	var rec domain.Record

	secs, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return domain.Record{}, fmt.Errorf("datetime_utc: %w", err)
	}
	rec.DatetimeUTC = time.Unix(secs, 0).UTC()

	if rec.ScanNo, err = parseOptionalInt(row[1]); err != nil {
		return domain.Record{}, fmt.Errorf("scan_no: %w", err)
	}
	required := []struct {
		name string
		dst  *float64
		s    string
	}{
		{"cond", &rec.Cond, row[2]},
		{"temp", &rec.Temp, row[3]},
		{"salinity", &rec.Salinity, row[4]},
		{"hull_temp", &rec.HullTemp, row[5]},
	}
	for _, f := range required {
		if *f.dst, err = strconv.ParseFloat(f.s, 64); err != nil {
			return domain.Record{}, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	if rec.TimeElapsed, err = parseOptionalFloat(row[6]); err != nil {
		return domain.Record{}, fmt.Errorf("time_elapsed: %w", err)
	}
	if row[7] != "" {
		t, err := time.Parse(time.RFC3339, row[7])
		if err != nil {
			return domain.Record{}, fmt.Errorf("nmea_time: %w", err)
		}
		t = t.UTC()
		rec.NMEATime = &t
	}
	if rec.Latitude, err = parseOptionalFloat(row[8]); err != nil {
		return domain.Record{}, fmt.Errorf("latitude: %w", err)
	}
	if rec.Longitude, err = parseOptionalFloat(row[9]); err != nil {
		return domain.Record{}, fmt.Errorf("longitude: %w", err)
	}
	return rec, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatOptionalInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatOptionalTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func parseOptionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptionalInt(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
