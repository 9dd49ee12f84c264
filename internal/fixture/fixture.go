// Package fixture implements the fixture workflow for one exam card:
// fetch the layout and scan, build the second-phase input, and post
// recognition results back to the service.
package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackzampolin/cardfix/internal/scanstat"
)

// ErrNotNumeric is returned when an exam id must be a number and is not.
var ErrNotNumeric = errors.New("exam id is not numeric")

// ErrInvalidExamID is returned for exam ids that are empty or would leave
// the cards directory.
var ErrInvalidExamID = errors.New("invalid exam id")

// Service is the subset of the scanstat client the workflow needs.
type Service interface {
	RecInfo(ctx context.Context, uid string) (json.RawMessage, error)
	GenerateScanDatas(ctx context.Context, payload any) (json.RawMessage, error)
	Download(ctx context.Context, rawURL string) (*scanstat.Download, error)
}

var _ Service = (*scanstat.Client)(nil)

// checkExamID ensures an id names exactly one directory under cards/.
func checkExamID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: exam id is required", ErrInvalidExamID)
	case id == "." || id == "..", id != filepath.Base(id), strings.ContainsAny(id, `/\`):
		return fmt.Errorf("%w: %q must be a plain name", ErrInvalidExamID, id)
	}
	return nil
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// writeFileAtomic writes data next to path and renames it into place, so an
// interrupted run never leaves a truncated fixture behind.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}
	return nil
}

// readJSONFile reads a file and checks that it holds a single JSON value.
func readJSONFile(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s is not valid JSON", path)
	}
	return data, nil
}
