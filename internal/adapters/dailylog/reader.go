package dailylog

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quentinrf/radiometer/internal/domain"
)

// ReadDay returns every sample in the file for day, in file order.
// Malformed lines are skipped.
func ReadDay(dir, name string, day time.Time) ([]domain.CalibratedSample, error) {
	path := filepath.Join(dir, FileName(name, day))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open daily log: %w", err)
	}
	defer f.Close()

	var samples []domain.CalibratedSample
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		s, err := ParseLine(line, day.Location())
		if err != nil {
			log.Warn().Err(err).Str("path", path).Int("line", lineNo).Msg("skipping malformed line")
			continue
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read daily log: %w", err)
	}
	return samples, nil
}

// ReadLastDays returns samples from the files of the last days calendar days
// ending with the day of now, oldest first. Missing files are skipped.
func ReadLastDays(dir, name string, days int, now time.Time) ([]domain.CalibratedSample, error) {
	var all []domain.CalibratedSample
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		samples, err := ReadDay(dir, name, day)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		all = append(all, samples...)
	}
	return all, nil
}
