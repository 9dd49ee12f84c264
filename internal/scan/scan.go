// Package scan defines the documents exchanged with the grading service and
// the recognition engine: the scan layout, the second-phase input and the
// result payload.
package scan

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// DefaultFillRate is sent with every result payload unless overridden.
const DefaultFillRate = 0.5

// ErrNoPages is returned when a scan document has no pages member.
var ErrNoPages = errors.New("scan document has no pages")

// Scan is a typed view of a scan document. The raw document is what gets
// stored and forwarded; this view is only used for inspection.
type Scan struct {
	Pages    []Page `json:"pages"`
	IsInSeal bool   `json:"is_in_seal"`
	CardType int    `json:"card_type"`
}

// Page is the layout of one side of an answer card.
type Page struct {
	CardColumns      int               `json:"card_columns"`
	ModelSize        ModelSize         `json:"model_size"`
	ModelPoints      []ModelPoint      `json:"model_points"`
	PageNumberPoints []PageNumberPoint `json:"page_number_points"`
	AssistPoints     []AssistPoint     `json:"assist_points,omitempty"`
	Recognizes       []Recognition     `json:"recognizes"`
}

// ModelSize is the template size in pixels.
type ModelSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

// ModelPoint is a positioning mark printed on the card.
type ModelPoint struct {
	PointType  int        `json:"point_type"`
	Coordinate Coordinate `json:"coordinate"`
}

// PageNumberPoint marks a page-number box and how full it must be.
type PageNumberPoint struct {
	FillRate   float64    `json:"fill_rate"`
	Coordinate Coordinate `json:"coordinate"`
}

// AssistPoint is a pair of auxiliary alignment marks.
type AssistPoint struct {
	Right Coordinate `json:"right"`
	Left  Coordinate `json:"left"`
}

// Recognition is one region the engine must read.
type Recognition struct {
	RecID   string `json:"rec_id"`
	RecType int    `json:"rec_type"`
	Options []Item `json:"options"`
}

// Item is one option box of a recognition region.
type Item struct {
	Value      any        `json:"value"`
	Coordinate Coordinate `json:"coordinate"`
}

// Coordinate is a box in template pixels. The service emits both integers
// and floats; floats are truncated.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// UnmarshalJSON accepts integer or fractional numbers for every field.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var raw struct {
		X, Y, W, H json.Number
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fields := []struct {
		name string
		num  json.Number
		dst  *int
	}{
		{"x", raw.X, &c.X},
		{"y", raw.Y, &c.Y},
		{"w", raw.W, &c.W},
		{"h", raw.H, &c.H},
	}
	for _, f := range fields {
		if f.num == "" {
			return fmt.Errorf("coordinate: missing %s", f.name)
		}
		if i, err := f.num.Int64(); err == nil {
			*f.dst = int(i)
			continue
		}
		fv, err := f.num.Float64()
		if err != nil {
			return fmt.Errorf("coordinate: %s: %w", f.name, err)
		}
		*f.dst = int(math.Trunc(fv))
	}
	return nil
}

// Parse decodes a scan document into its typed view.
func Parse(doc []byte) (*Scan, error) {
	var s Scan
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scan document: %w", err)
	}
	return &s, nil
}

// RawPages returns the pages member of a scan document verbatim.
func RawPages(doc []byte) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse scan document: %w", err)
	}
	pages, ok := fields["pages"]
	if !ok || string(pages) == "null" {
		return nil, ErrNoPages
	}
	return pages, nil
}
