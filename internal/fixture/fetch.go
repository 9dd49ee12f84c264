package fixture

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/jackzampolin/cardfix/internal/home"
	"github.com/jackzampolin/cardfix/internal/imgenc"
	"github.com/jackzampolin/cardfix/internal/scan"
	"github.com/jackzampolin/cardfix/internal/scanstat"
)

// DefaultImageName is the file name given to a downloaded scan image.
const DefaultImageName = "test.jpg"

// FetchRequest contains the parameters for fetching an exam's fixtures.
type FetchRequest struct {
	ExamID    string
	ImageURL  string       // Optional scan image (or PDF of scans) to download
	ImageName string       // File name under images/ (default test.jpg)
	Logger    *slog.Logger // Optional logger for progress updates
}

// FetchResult describes the files written by Fetch.
type FetchResult struct {
	ExamID     string   `json:"exam_id" yaml:"exam_id"`
	ScanPath   string   `json:"scan_path" yaml:"scan_path"`
	ScanBytes  int      `json:"scan_bytes" yaml:"scan_bytes"`
	Pages      int      `json:"pages" yaml:"pages"`
	ImagePaths []string `json:"image_paths,omitempty" yaml:"image_paths,omitempty"`
	PDFPath    string   `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`
}

// Fetch downloads an exam's scan document into cards/<id>/scan.json and,
// when an image URL is given, its scan image into cards/<id>/images/.
func Fetch(ctx context.Context, svc Service, dir *home.Dir, req FetchRequest) (*FetchResult, error) {
	log := loggerOr(req.Logger)

	if err := checkExamID(req.ExamID); err != nil {
		return nil, err
	}
	name := req.ImageName
	if name == "" {
		name = DefaultImageName
	}
	if name != filepath.Base(name) {
		return nil, fmt.Errorf("image name must be a plain file name: %s", name)
	}

	if err := dir.EnsureCardDir(req.ExamID); err != nil {
		return nil, err
	}

	log.Info("fetching scan document", "exam_id", req.ExamID)
	doc, err := svc.RecInfo(ctx, req.ExamID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scan document: %w", err)
	}
	scanPath := dir.ScanPath(req.ExamID)
	if err := writeFileAtomic(scanPath, doc); err != nil {
		return nil, err
	}

	res := &FetchResult{
		ExamID:    req.ExamID,
		ScanPath:  scanPath,
		ScanBytes: len(doc),
	}
	if s, err := scan.Parse(doc); err == nil {
		res.Pages = len(s.Pages)
	} else {
		log.Warn("scan document does not parse as a card layout", "error", err)
	}

	if req.ImageURL == "" {
		log.Info("fetch complete", "exam_id", req.ExamID, "scan", scanPath)
		return res, nil
	}

	log.Info("downloading scan image", "url", req.ImageURL)
	dl, err := svc.Download(ctx, req.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}

	if isPDF(dl) {
		pdfPath := filepath.Join(dir.CardDir(req.ExamID), strings.TrimSuffix(name, filepath.Ext(name))+".pdf")
		if err := writeFileAtomic(pdfPath, dl.Data); err != nil {
			return nil, err
		}
		paths, err := extractPDFImages(pdfPath, dir.ImagesDir(req.ExamID))
		if err != nil {
			return nil, err
		}
		log.Info("extracted scan images from pdf", "pdf", pdfPath, "pages", pdfPageCount(pdfPath), "images", len(paths))
		res.PDFPath = pdfPath
		res.ImagePaths = paths
	} else {
		imagePath := dir.ImagePath(req.ExamID, name)
		if err := writeFileAtomic(imagePath, dl.Data); err != nil {
			return nil, err
		}
		res.ImagePaths = []string{imagePath}
	}

	log.Info("fetch complete", "exam_id", req.ExamID, "scan", scanPath, "images", len(res.ImagePaths))
	return res, nil
}

func isPDF(dl *scanstat.Download) bool {
	if bytes.HasPrefix(dl.Data, []byte("%PDF-")) {
		return true
	}
	mt, _, err := mime.ParseMediaType(dl.ContentType)
	return err == nil && mt == "application/pdf"
}

func pdfPageCount(path string) int {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0
	}
	return n
}

// extractPDFImages writes the images embedded in a PDF of scans to outDir and
// returns the paths that were added.
func extractPDFImages(pdfPath, outDir string) ([]string, error) {
	before, err := imgenc.ListImages(outDir)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(before))
	for _, p := range before {
		existing[p] = true
	}

	// Scanner output is rarely strictly conformant.
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.ExtractImagesFile(pdfPath, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract images from %s: %w", filepath.Base(pdfPath), err)
	}

	after, err := imgenc.ListImages(outDir)
	if err != nil {
		return nil, err
	}
	var added []string
	for _, p := range after {
		if !existing[p] {
			added = append(added, p)
		}
	}
	if len(added) == 0 {
		return nil, fmt.Errorf("no images found in %s", filepath.Base(pdfPath))
	}
	return added, nil
}
