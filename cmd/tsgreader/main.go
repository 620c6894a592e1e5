// Command tsgreader reads a thermosalinograph's line output, parses each line
// into a record, and stores the records in the configured sinks.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/tsg-reader/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/tsg-reader/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/tsg-reader/internal/adapter/kafka"
	"github.com/couchcryptid/tsg-reader/internal/adapter/serial"
	"github.com/couchcryptid/tsg-reader/internal/adapter/sqlite"
	"github.com/couchcryptid/tsg-reader/internal/config"
	"github.com/couchcryptid/tsg-reader/internal/observability"
	"github.com/couchcryptid/tsg-reader/internal/pipeline"
	"github.com/google/uuid"
)

func main() {
	if err := config.LoadEnvFile(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, logCloser, err := observability.NewLogger(cfg)
	if err != nil {
		slog.Error("failed to open log", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	sessionID := uuid.NewString()
	logger = logger.With("session_id", sessionID)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sinks, closers, err := openSinks(ctx, cfg, sessionID, logger)
	if err != nil {
		logger.Error("failed to open sinks", "error", err)
		closeAll(closers, logger)
		os.Exit(1)
	}

	var source *serial.Source
	if cfg.ReplayFile != "" {
		source = serial.NewReplaySource(cfg.ReplayFile, cfg.BatchFlushInterval, logger)
		logger.Info("replaying capture file", "path", cfg.ReplayFile)
	} else {
		source = serial.NewSerialSource(cfg.SerialPort, cfg.BaudRate, cfg.BatchFlushInterval, logger)
		logger.Info("reading serial port", "port", cfg.SerialPort, "baud", cfg.BaudRate)
	}

	p := pipeline.New(source, pipeline.NewTransformer(), sinks, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, sessionID, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start pipeline. A replayed capture ends the process once it is exhausted.
	go func() {
		defer stop()
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := source.Close(); err != nil {
		logger.Error("source close error", "error", err)
	}
	closeAll(closers, logger)

	logger.Info("shutdown complete")
}

type namedCloser struct {
	name string
	io.Closer
}

// openSinks builds every enabled sink. Closers are returned even on error so
// the caller can release what was already opened.
func openSinks(ctx context.Context, cfg *config.Config, sessionID string, logger *slog.Logger) ([]pipeline.Sink, []namedCloser, error) {
	var (
		sinks   []pipeline.Sink
		closers []namedCloser
	)

	if cfg.CSVPath != "" {
		w, err := csvfile.NewWriter(cfg.CSVPath, logger)
		if err != nil {
			return nil, closers, err
		}
		sinks = append(sinks, pipeline.Sink{Name: "csv", Loader: w})
		closers = append(closers, namedCloser{"csv", w})
	}

	if cfg.DBPath != "" {
		s, err := sqlite.Open(ctx, cfg.DBPath, cfg.DBTable, logger)
		if err != nil {
			return nil, closers, err
		}
		sinks = append(sinks, pipeline.Sink{Name: "sqlite", Loader: s})
		closers = append(closers, namedCloser{"sqlite", s})
	}

	if cfg.KafkaEnabled {
		w := kafkaadapter.NewWriter(cfg, sessionID, logger)
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Loader: w})
		closers = append(closers, namedCloser{"kafka", w})
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	if len(sinks) == 0 {
		logger.Warn("no sinks enabled, records will only be parsed")
	}
	return sinks, closers, nil
}

func closeAll(closers []namedCloser, logger *slog.Logger) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("sink close error", "sink", c.name, "error", err)
		}
	}
}
