// Command tsgsynth generates synthetic thermosalinograph output for bench
// testing without an instrument. Lines are produced in the 8-field positional
// format and either printed (to feed tsgreader through a replay file or a pty)
// or parsed and written straight into the CSV and SQLite sinks.
//
// Usage:
//
//	go run ./cmd/tsgsynth -n 100 -interval 1s > capture.txt
//	go run ./cmd/tsgsynth -n 500 -start 2025-08-11T21:00:00Z -csv tsg_data.csv -db tsg.db
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/couchcryptid/tsg-reader/internal/adapter/csvfile"
	"github.com/couchcryptid/tsg-reader/internal/adapter/sqlite"
	"github.com/couchcryptid/tsg-reader/internal/domain"
	"github.com/couchcryptid/tsg-reader/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

// Value ranges observed on the survey line the generator imitates.
const (
	condMin, condMax       = 3.30, 3.31 // S/m
	tempMin, tempMax       = 10.8, 10.9
	elapsedMin, elapsedMax = 50.0, 250.0
	latMin, latMax         = 41.3166, 41.3167
	lonMin, lonMax         = -72.0608, -72.0607
	hullMin, hullMax       = -0.3, 0.1
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	n := flag.Int("n", 10, "number of lines to generate (0 runs until interrupted)")
	interval := flag.Duration("interval", time.Second, "time between samples")
	start := flag.String("start", "", "RFC3339 start time; uses a simulated clock and does not sleep")
	seed := flag.Uint64("seed", 1, "random seed")
	csvPath := flag.String("csv", "", "write records to this CSV file instead of stdout")
	dbPath := flag.String("db", "", "write records to this SQLite database instead of stdout")
	table := flag.String("table", "tsg_data", "SQLite table name")
	flag.Parse()

	clock := clockwork.NewRealClock()
	advance := clock.Sleep
	if *start != "" {
		at, err := time.Parse(time.RFC3339, *start)
		if err != nil {
			return fmt.Errorf("parse -start: %w", err)
		}
		fc := clockwork.NewFakeClockAt(at)
		clock, advance = fc, fc.Advance
	}
	domain.SetClock(clock)
	defer domain.SetClock(nil)

	gen := newGenerator(clock, rand.New(rand.NewPCG(*seed, *seed)))
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	var sinks []pipeline.Sink
	if *csvPath != "" {
		w, err := csvfile.NewWriter(*csvPath, logger)
		if err != nil {
			return err
		}
		defer w.Close()
		sinks = append(sinks, pipeline.Sink{Name: "csv", Loader: w})
	}
	if *dbPath != "" {
		s, err := sqlite.Open(ctx, *dbPath, *table, logger)
		if err != nil {
			return err
		}
		defer s.Close()
		sinks = append(sinks, pipeline.Sink{Name: "sqlite", Loader: s})
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for i := 0; *n == 0 || i < *n; i++ {
		if i > 0 {
			advance(*interval)
		}
		line := gen.next()
		if len(sinks) == 0 {
			if err := emit(out, line); err != nil {
				return err
			}
			continue
		}
		if err := store(ctx, sinks, line); err != nil {
			return err
		}
	}

	if len(sinks) > 0 {
		log.Printf("wrote %d records", *n)
	}
	return nil
}

// generator produces positional lines with incrementing scan numbers.
type generator struct {
	clock  clockwork.Clock
	rng    *rand.Rand
	scanNo int64
	start  time.Time
}

func newGenerator(clock clockwork.Clock, rng *rand.Rand) *generator {
	return &generator{clock: clock, rng: rng, start: clock.Now()}
}

func (g *generator) next() string {
	g.scanNo++
	now := g.clock.Now()
	temp := g.between(tempMin, tempMax)
	return fmt.Sprintf("%d %.5f %.4f %.4f %.1f %d %.6f %.6f",
		g.scanNo,
		g.between(condMin, condMax),
		temp,
		temp+g.between(hullMin, hullMax),
		g.between(elapsedMin, elapsedMax)+now.Sub(g.start).Seconds(),
		now.Unix(),
		g.between(latMin, latMax),
		g.between(lonMin, lonMax),
	)
}

func (g *generator) between(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func emit(w *bufio.Writer, line string) error {
	if _, err := io.WriteString(w, line+"\n"); err != nil {
		return err
	}
	return w.Flush()
}

// store parses the line the same way tsgreader would and writes the record.
func store(ctx context.Context, sinks []pipeline.Sink, line string) error {
	rec, err := domain.ParseLine(line)
	if err != nil {
		return fmt.Errorf("generated unparseable line %q: %w", line, err)
	}
	for _, s := range sinks {
		if err := s.Loader.LoadBatch(ctx, []domain.Record{rec}); err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
	}
	return nil
}
