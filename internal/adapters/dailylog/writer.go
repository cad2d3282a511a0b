package dailylog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quentinrf/radiometer/internal/domain"
)

const dateLayout = "20060102"

// FileName returns R[_name_]YYYYMMDD.csv for the calendar day of t
func FileName(name string, t time.Time) string {
	prefix := "R"
	if name != "" {
		prefix += "_" + name + "_"
	}
	return prefix + t.Format(dateLayout) + ".csv"
}

// Option customises a Writer
type Option func(*Writer)

// WithName adds a station name to every file name
func WithName(name string) Option {
	return func(w *Writer) { w.name = name }
}

// WithObjectTemperature appends the thermal sensor column to every line
func WithObjectTemperature() Option {
	return func(w *Writer) { w.objectTemperature = true }
}

// Writer appends samples to one file per calendar day.
// The open file always belongs to the date of the last written sample.
type Writer struct {
	mu                sync.Mutex
	dir               string
	name              string
	objectTemperature bool

	date string
	file *os.File
}

// NewWriter creates dir if needed; files are opened lazily on the first write
func NewWriter(dir string, opts ...Option) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	w := &Writer{dir: dir}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the file a sample taken at t is written to
func (w *Writer) Path(t time.Time) string {
	return filepath.Join(w.dir, FileName(w.name, t))
}

// WriteSample appends one line, rotating to a new file on a date change
func (w *Writer) WriteSample(ctx context.Context, sample domain.CalibratedSample) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	date := sample.Timestamp.Format(dateLayout)
	if w.file == nil || date != w.date {
		if err := w.rotate(sample.Timestamp); err != nil {
			return err
		}
	}

	line := FormatLine(sample, w.objectTemperature) + "\n"
	if _, err := w.file.WriteString(line); err != nil {
		return fmt.Errorf("failed to write sample: %w", err)
	}
	return nil
}

func (w *Writer) rotate(t time.Time) error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			log.Warn().Err(err).Str("date", w.date).Msg("failed to close daily log")
		}
		w.file = nil
	}

	path := w.Path(t)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open daily log: %w", err)
	}

	w.file = f
	w.date = t.Format(dateLayout)
	log.Info().Str("path", path).Msg("opened daily log")
	return nil
}

// Close closes the current file
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
