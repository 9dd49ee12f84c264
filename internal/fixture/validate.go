package fixture

import (
	"fmt"
	"os"

	"github.com/jackzampolin/cardfix/internal/home"
	"github.com/jackzampolin/cardfix/internal/imgenc"
	"github.com/jackzampolin/cardfix/internal/scan"
)

// Report is the outcome of validating an exam's fixtures.
type Report struct {
	ExamID   string             `json:"exam_id" yaml:"exam_id"`
	ScanPath string             `json:"scan_path" yaml:"scan_path"`
	Valid    bool               `json:"valid" yaml:"valid"`
	Errors   []string           `json:"errors,omitempty" yaml:"errors,omitempty"`
	Pages    []scan.PageSummary `json:"pages,omitempty" yaml:"pages,omitempty"`
	Images   int                `json:"images" yaml:"images"`
}

// Validate checks scan.json against the layout schema and summarises each
// page. Schema and layout problems are reported, not returned as errors;
// the error is reserved for files that cannot be read.
func Validate(dir *home.Dir, examID string) (*Report, error) {
	if err := checkExamID(examID); err != nil {
		return nil, err
	}
	scanPath := dir.ScanPath(examID)
	doc, err := os.ReadFile(scanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan document: %w", err)
	}

	rep := &Report{ExamID: examID, ScanPath: scanPath}
	if err := scan.Validate(doc); err != nil {
		rep.Errors = append(rep.Errors, err.Error())
	}
	if s, err := scan.Parse(doc); err != nil {
		rep.Errors = append(rep.Errors, err.Error())
	} else {
		rep.Pages = s.Summarize()
		for _, p := range rep.Pages {
			if p.CornerError != "" {
				rep.Errors = append(rep.Errors, fmt.Sprintf("page %d: %s", p.Index, p.CornerError))
			}
		}
	}

	if images, err := imgenc.ListImages(dir.ImagesDir(examID)); err == nil {
		rep.Images = len(images)
	}

	rep.Valid = len(rep.Errors) == 0
	return rep, nil
}
