package scan

import "encoding/json"

// SecondInput is the combined document for the engine's second-phase
// inference: the layout pages plus every scan image as a data URI.
type SecondInput struct {
	TaskID string          `json:"task_id"`
	Pages  json.RawMessage `json:"pages"`
	Images []string        `json:"images"`
}

// ResultPayload is posted to generate_scan_datas.
type ResultPayload struct {
	UID          int64           `json:"uid"`
	RecResult    json.RawMessage `json:"recResult"`
	RecInitParam json.RawMessage `json:"recInitParam"`
	FillRate     float64         `json:"fillRate"`
}
