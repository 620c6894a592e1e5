// Package serial delivers instrument lines to the pipeline, either live from a
// serial port or replayed from a capture file.
package serial

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/couchcryptid/tsg-reader/internal/domain"
	"github.com/jonboulle/clockwork"
)

const maxLineBytes = 4096

// item carries either a line or the terminal read error. The scanner
// goroutine sends exactly one error item last, so lines are never overtaken
// by the error that ended the stream.
type item struct {
	line domain.RawLine
	err  error
}

// Source reads newline-delimited instrument output and serves it in batches.
// It implements pipeline.BatchExtractor.
type Source struct {
	name          string
	open          func() (io.ReadCloser, error)
	reconnect     bool
	flushInterval time.Duration
	clock         clockwork.Clock
	logger        *slog.Logger

	mu      sync.Mutex
	rc      io.ReadCloser
	items   chan item
	quit    chan struct{}
	pending error
	done    bool

	seq atomic.Int64
}

// NewSerialSource reads from a serial device. Read failures are returned to
// the caller and the port is reopened on the next ExtractBatch.
func NewSerialSource(path string, baud int, flushInterval time.Duration, logger *slog.Logger) *Source {
	return &Source{
		name:          path,
		open:          func() (io.ReadCloser, error) { return openPort(path, baud) },
		reconnect:     true,
		flushInterval: flushInterval,
		clock:         clockwork.NewRealClock(),
		logger:        logger,
	}
}

// NewReplaySource reads a capture file once. After the last line it returns io.EOF.
func NewReplaySource(path string, flushInterval time.Duration, logger *slog.Logger) *Source {
	return NewReaderSource(path, func() (io.ReadCloser, error) { return os.Open(path) }, flushInterval, logger)
}

// NewReaderSource serves lines from whatever open returns, once.
func NewReaderSource(name string, open func() (io.ReadCloser, error), flushInterval time.Duration, logger *slog.Logger) *Source {
	return &Source{
		name:          name,
		open:          open,
		flushInterval: flushInterval,
		clock:         clockwork.NewRealClock(),
		logger:        logger,
	}
}

// ExtractBatch blocks until at least one line is available, then collects up
// to batchSize lines or until the flush interval elapses.
func (s *Source) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return nil, io.EOF
	}
	if err := s.pending; err != nil {
		s.pending = nil
		return nil, s.fail(err)
	}
	if s.items == nil {
		if err := s.start(); err != nil {
			return nil, err
		}
	}

	var batch []domain.RawLine
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case it := <-s.items:
		if it.err != nil {
			return nil, s.fail(it.err)
		}
		batch = append(batch, it.line)
	}

	timer := s.clock.NewTimer(s.flushInterval)
	defer timer.Stop()

	for len(batch) < batchSize {
		select {
		case <-ctx.Done():
			return batch, nil
		case <-timer.Chan():
			return batch, nil
		case it := <-s.items:
			if it.err != nil {
				s.pending = it.err
				return batch, nil
			}
			batch = append(batch, it.line)
		}
	}
	return batch, nil
}

// Close stops the reader goroutine and releases the underlying port or file.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	return s.stop()
}

func (s *Source) start() error {
	rc, err := s.open()
	if err != nil {
		return fmt.Errorf("open line source %s: %w", s.name, err)
	}
	s.rc = rc
	s.items = make(chan item, 256)
	s.quit = make(chan struct{})
	s.logger.Info("line source opened", "source", s.name)

	go s.scan(rc, s.items, s.quit)
	return nil
}

func (s *Source) stop() error {
	if s.items == nil {
		return nil
	}
	close(s.quit)
	err := s.rc.Close()
	s.rc = nil
	s.items = nil
	s.quit = nil
	return err
}

// fail tears down the current reader. For a one-shot source a clean end of
// input becomes io.EOF for every later call; for a serial port any end of
// input is an error and the next call reopens the device.
func (s *Source) fail(err error) error {
	if cerr := s.stop(); cerr != nil {
		s.logger.Warn("close line source failed", "source", s.name, "error", cerr)
	}
	if !s.reconnect {
		s.done = true
		if errors.Is(err, io.EOF) {
			s.logger.Info("line source exhausted", "source", s.name, "lines", s.seq.Load())
			return io.EOF
		}
		return fmt.Errorf("read %s: %w", s.name, err)
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("read serial port %s: %w", s.name, err)
}

func (s *Source) scan(r io.Reader, out chan<- item, quit <-chan struct{}) {
	send := func(it item) bool {
		select {
		case out <- it:
			return true
		case <-quit:
			return false
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256), maxLineBytes)

	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if !utf8.ValidString(text) {
			s.logger.Warn("dropping undecodable line", "source", s.name, "bytes", len(text))
			continue
		}
		line := domain.RawLine{
			Text:       text,
			Source:     s.name,
			Seq:        s.seq.Add(1),
			ReceivedAt: s.clock.Now().UTC(),
		}
		if !send(item{line: line}) {
			return
		}
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	send(item{err: err})
}
