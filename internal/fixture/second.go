package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackzampolin/cardfix/internal/home"
	"github.com/jackzampolin/cardfix/internal/imgenc"
	"github.com/jackzampolin/cardfix/internal/scan"
)

// SecondRequest contains the parameters for building the second-phase input.
type SecondRequest struct {
	ExamID string
	TaskID string // Copied into task_id; empty by default
	Encode imgenc.Options
	Logger *slog.Logger
}

// ImageInfo describes one encoded image.
type ImageInfo struct {
	Name  string `json:"name" yaml:"name"`
	Mime  string `json:"mime" yaml:"mime"`
	Bytes int    `json:"bytes" yaml:"bytes"`
}

// SecondResult describes the document written by GenerateSecond.
type SecondResult struct {
	ExamID     string      `json:"exam_id" yaml:"exam_id"`
	OutputPath string      `json:"output_path" yaml:"output_path"`
	Images     []ImageInfo `json:"images" yaml:"images"`
	Bytes      int         `json:"bytes" yaml:"bytes"`
}

// GenerateSecond merges the pages of scan.json with every image under
// images/ (as data URIs) and writes scan_second.json.
func GenerateSecond(ctx context.Context, dir *home.Dir, req SecondRequest) (*SecondResult, error) {
	log := loggerOr(req.Logger)

	if err := checkExamID(req.ExamID); err != nil {
		return nil, err
	}

	scanPath := dir.ScanPath(req.ExamID)
	doc, err := os.ReadFile(scanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan document: %w", err)
	}
	pages, err := scan.RawPages(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", scanPath, err)
	}

	images, err := imgenc.EncodeDir(ctx, dir.ImagesDir(req.ExamID), req.Encode)
	if err != nil {
		return nil, fmt.Errorf("failed to encode images: %w", err)
	}
	if len(images) == 0 {
		log.Warn("no images found", "dir", dir.ImagesDir(req.ExamID))
	}

	input := scan.SecondInput{
		TaskID: req.TaskID,
		Pages:  pages,
		Images: imgenc.URIs(images),
	}
	data, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal second input: %w", err)
	}

	outPath := dir.SecondPath(req.ExamID)
	if err := writeFileAtomic(outPath, data); err != nil {
		return nil, err
	}

	res := &SecondResult{
		ExamID:     req.ExamID,
		OutputPath: outPath,
		Images:     make([]ImageInfo, len(images)),
		Bytes:      len(data),
	}
	for i, img := range images {
		res.Images[i] = ImageInfo{Name: img.Name, Mime: img.Mime, Bytes: img.Bytes}
	}

	log.Info("second input written", "exam_id", req.ExamID, "path", outPath, "images", len(images), "bytes", len(data))
	return res, nil
}
