package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default fixture root, relative to the working directory.
	DefaultDirName = "test_data"

	// CardsDirName is the subdirectory holding one directory per exam card.
	CardsDirName = "cards"

	// ImagesDirName is the per-card subdirectory for scan images.
	ImagesDirName = "images"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// ScanFileName is the scan document fetched from the service.
	ScanFileName = "scan.json"

	// SecondFileName is the combined pages+images document.
	SecondFileName = "scan_second.json"
)

// Dir represents the fixture root directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (./test_data).
func New(path string) (*Dir, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the fixture directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// Exists returns true if the root directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the root directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// CardsDir returns the directory holding all card fixtures.
func (d *Dir) CardsDir() string {
	return filepath.Join(d.path, CardsDirName)
}

// CardDir returns the working directory for one exam.
func (d *Dir) CardDir(examID string) string {
	return filepath.Join(d.CardsDir(), examID)
}

// ScanPath returns the path to an exam's scan document.
func (d *Dir) ScanPath(examID string) string {
	return filepath.Join(d.CardDir(examID), ScanFileName)
}

// ImagesDir returns the directory of scan images for an exam.
func (d *Dir) ImagesDir(examID string) string {
	return filepath.Join(d.CardDir(examID), ImagesDirName)
}

// ImagePath returns the path to a named image of an exam.
func (d *Dir) ImagePath(examID, name string) string {
	return filepath.Join(d.ImagesDir(examID), name)
}

// SecondPath returns the path to the combined pages+images document.
func (d *Dir) SecondPath(examID string) string {
	return filepath.Join(d.CardDir(examID), SecondFileName)
}

// RecResultPath returns the default location of a recognition result.
// The recognizer's test harness writes it next to the cards directory.
func (d *Dir) RecResultPath(examID string) string {
	return filepath.Join(d.path, examID+".json")
}

// PostPath returns where the assembled post payload is persisted.
func (d *Dir) PostPath(examID string) string {
	return filepath.Join(d.CardDir(examID), examID+"_post.json")
}

// ResultPath returns where the service response to a post is persisted.
func (d *Dir) ResultPath(examID string) string {
	return filepath.Join(d.CardDir(examID), examID+"_res.json")
}

// EnsureCardDir creates the card directory and its images subdirectory.
func (d *Dir) EnsureCardDir(examID string) error {
	if err := os.MkdirAll(d.ImagesDir(examID), 0o755); err != nil {
		return fmt.Errorf("failed to create card directory: %w", err)
	}
	return nil
}
