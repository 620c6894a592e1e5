// Command tsgcheck validates thermosalinograph data offline. It parses every
// line of a capture file and, optionally, re-reads the CSV and SQLite outputs
// of a reader run and checks each stored record.
//
// Usage:
//
//	go run ./cmd/tsgcheck -capture capture.txt
//	go run ./cmd/tsgcheck -capture capture.txt -csv tsg_data.csv -db tsg.db
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/couchcryptid/tsg-reader/internal/adapter/csvfile"
	"github.com/couchcryptid/tsg-reader/internal/adapter/sqlite"
	"github.com/couchcryptid/tsg-reader/internal/domain"
	"github.com/jonboulle/clockwork"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	capture := flag.String("capture", "", "capture file of raw instrument lines")
	csvPath := flag.String("csv", "", "CSV output to verify")
	dbPath := flag.String("db", "", "SQLite database to verify")
	table := flag.String("table", "tsg_data", "SQLite table name")
	flag.Parse()

	if *capture == "" && *csvPath == "" && *dbPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, *capture, *csvPath, *dbPath, *table))
}

func run(out io.Writer, capturePath, csvPath, dbPath, table string) int {
	// Capture times are irrelevant to validation; pin them so output is stable.
	domain.SetClock(clockwork.NewFakeClock())
	defer domain.SetClock(nil)

	fmt.Fprintln(out, "=== TSG Data Validation ===")

	var phases []*phase
	if capturePath != "" {
		f, err := os.Open(capturePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: open capture: %v\n", err)
			return 1
		}
		p, stats := validateCapture(f)
		f.Close()
		phases = append(phases, p)
		printStats(out, stats)
	}
	if csvPath != "" {
		phases = append(phases, validateCSV(csvPath))
	}
	if dbPath != "" {
		phases = append(phases, validateDB(dbPath, table))
	}

	// ── Report results ──
	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// captureStats counts parsed lines by format and failures by error kind.
type captureStats struct {
	lines    int
	byFormat map[string]int
	byKind   map[string]int
}

// validateCapture parses every non-blank line.
func validateCapture(r io.Reader) (*phase, captureStats) {
	p := &phase{name: "Capture file parses"}
	stats := captureStats{byFormat: map[string]int{}, byKind: map[string]int{}}

	sc := bufio.NewScanner(r)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.lines++

		rec, err := domain.ParseLine(line)
		if err != nil {
			stats.byKind[domain.ErrorKind(err)]++
			p.errorf("line %d: %v", lineNum, err)
			continue
		}
		stats.byFormat[rec.Format.String()]++
		checkRecord(p, fmt.Sprintf("line %d", lineNum), rec)
	}
	if err := sc.Err(); err != nil {
		p.errorf("read capture: %v", err)
	}
	return p, stats
}

func validateCSV(path string) *phase {
	p := &phase{name: "CSV output readable"}
	f, err := os.Open(path)
	if err != nil {
		p.errorf("open: %v", err)
		return p
	}
	defer f.Close()

	records, err := csvfile.ReadRecords(f)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	for i, rec := range records {
		checkRecord(p, fmt.Sprintf("row %d", i+2), rec)
	}
	return p
}

func validateDB(path, table string) *phase {
	p := &phase{name: "SQLite table readable"}
	if _, err := os.Stat(path); err != nil {
		p.errorf("stat: %v", err)
		return p
	}

	ctx := context.Background()
	s, err := sqlite.Open(ctx, path, table, discardLogger())
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	defer s.Close()

	records, err := s.Records(ctx)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	for i, rec := range records {
		checkRecord(p, fmt.Sprintf("row %d", i+1), rec)
	}
	return p
}

// checkRecord flags values a parsed record can never legitimately hold.
func checkRecord(p *phase, where string, rec domain.Record) {
	if rec.DatetimeUTC.IsZero() {
		p.errorf("%s: missing datetime_utc", where)
	}
	if rec.Salinity < 0 {
		p.errorf("%s: negative salinity %g", where, rec.Salinity)
	}
	if rec.Latitude != nil && (*rec.Latitude < -90 || *rec.Latitude > 90) {
		p.errorf("%s: latitude %g out of range", where, *rec.Latitude)
	}
	if rec.Longitude != nil && (*rec.Longitude < -180 || *rec.Longitude > 180) {
		p.errorf("%s: longitude %g out of range", where, *rec.Longitude)
	}
}

func printStats(out io.Writer, s captureStats) {
	fmt.Fprintf(out, "\nCapture lines: %d\n", s.lines)
	for _, k := range sortedKeys(s.byFormat) {
		fmt.Fprintf(out, "  parsed %-12s %d\n", k, s.byFormat[k])
	}
	for _, k := range sortedKeys(s.byKind) {
		fmt.Fprintf(out, "  failed %-12s %d\n", k, s.byKind[k])
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
