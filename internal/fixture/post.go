package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackzampolin/cardfix/internal/home"
	"github.com/jackzampolin/cardfix/internal/scan"
)

// PostRequest contains the parameters for posting a recognition result.
type PostRequest struct {
	ExamID        string
	RecResultPath string   // Default: <root>/<id>.json
	FillRate      *float64 // nil means scan.DefaultFillRate; 0 is sent as 0
	DryRun        bool     // Write the payload but do not send it
	Logger        *slog.Logger
}

// PostResult describes the files written by Post.
type PostResult struct {
	ExamID       string `json:"exam_id" yaml:"exam_id"`
	PayloadPath  string `json:"payload_path" yaml:"payload_path"`
	ResponsePath string `json:"response_path,omitempty" yaml:"response_path,omitempty"`
	Sent         bool   `json:"sent" yaml:"sent"`
}

// BuildPayload assembles the generate_scan_datas payload from files on disk.
func BuildPayload(dir *home.Dir, req PostRequest) (*scan.ResultPayload, error) {
	uid, err := strconv.ParseInt(req.ExamID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, req.ExamID)
	}

	recPath := req.RecResultPath
	if recPath == "" {
		recPath = dir.RecResultPath(req.ExamID)
	}
	recResult, err := readJSONFile(recPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load recognition result: %w", err)
	}
	initParam, err := readJSONFile(dir.ScanPath(req.ExamID))
	if err != nil {
		return nil, fmt.Errorf("failed to load scan document: %w", err)
	}

	fillRate := scan.DefaultFillRate
	if req.FillRate != nil {
		fillRate = *req.FillRate
	}

	return &scan.ResultPayload{
		UID:          uid,
		RecResult:    recResult,
		RecInitParam: initParam,
		FillRate:     fillRate,
	}, nil
}

// Post writes <id>_post.json, sends it to generate_scan_datas and writes the
// response to <id>_res.json.
func Post(ctx context.Context, svc Service, dir *home.Dir, req PostRequest) (*PostResult, error) {
	log := loggerOr(req.Logger)

	payload, err := BuildPayload(dir, req)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	postPath := dir.PostPath(req.ExamID)
	if err := writeFileAtomic(postPath, data); err != nil {
		return nil, err
	}
	res := &PostResult{ExamID: req.ExamID, PayloadPath: postPath}

	if req.DryRun {
		log.Info("payload written, not sent", "path", postPath)
		return res, nil
	}

	log.Info("posting recognition result", "exam_id", req.ExamID, "bytes", len(data))
	resp, err := svc.GenerateScanDatas(ctx, json.RawMessage(data))
	if err != nil {
		return nil, fmt.Errorf("failed to post recognition result: %w", err)
	}

	resPath := dir.ResultPath(req.ExamID)
	if err := writeFileAtomic(resPath, resp); err != nil {
		return nil, err
	}
	res.ResponsePath = resPath
	res.Sent = true

	log.Info("post complete", "exam_id", req.ExamID, "response", resPath)
	return res, nil
}
