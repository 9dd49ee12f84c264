package scan

import "fmt"

// Corner indexes into the array returned by Corners.
const (
	TopLeft = iota
	TopRight
	BottomLeft
	BottomRight
)

// Corners picks the four reference model points of a page. Model points are
// laid out row by row, with one more point per row than there are columns,
// so the top-right mark sits at index c and the bottom-left at 2c+2.
func (p Page) Corners() ([4]ModelPoint, error) {
	var out [4]ModelPoint
	n := len(p.ModelPoints)
	if n < 4 {
		return out, fmt.Errorf("need at least 4 model points, have %d", n)
	}
	c := p.CardColumns
	if c < 1 || c > 4 {
		return out, fmt.Errorf("unsupported card_columns %d", c)
	}
	tr, bl := c, 2*c+2
	if bl >= n {
		return out, fmt.Errorf("card_columns %d needs at least %d model points, have %d", c, bl+1, n)
	}
	out[TopLeft] = p.ModelPoints[0]
	out[TopRight] = p.ModelPoints[tr]
	out[BottomLeft] = p.ModelPoints[bl]
	out[BottomRight] = p.ModelPoints[n-1]
	return out, nil
}

// PageSummary describes one page for the validate command.
type PageSummary struct {
	Index            int          `json:"index" yaml:"index"`
	CardColumns      int          `json:"card_columns" yaml:"card_columns"`
	ModelSize        ModelSize    `json:"model_size" yaml:"model_size"`
	ModelPoints      int          `json:"model_points" yaml:"model_points"`
	PageNumberPoints int          `json:"page_number_points" yaml:"page_number_points"`
	Recognitions     int          `json:"recognitions" yaml:"recognitions"`
	ByType           map[int]int  `json:"recognitions_by_type,omitempty" yaml:"recognitions_by_type,omitempty"`
	Corners          []Coordinate `json:"corners,omitempty" yaml:"corners,omitempty"`
	CornerError      string       `json:"corner_error,omitempty" yaml:"corner_error,omitempty"`
}

// Summarize reports per-page layout statistics.
func (s *Scan) Summarize() []PageSummary {
	out := make([]PageSummary, 0, len(s.Pages))
	for i, p := range s.Pages {
		sum := PageSummary{
			Index:            i,
			CardColumns:      p.CardColumns,
			ModelSize:        p.ModelSize,
			ModelPoints:      len(p.ModelPoints),
			PageNumberPoints: len(p.PageNumberPoints),
			Recognitions:     len(p.Recognizes),
		}
		if len(p.Recognizes) > 0 {
			sum.ByType = make(map[int]int)
			for _, r := range p.Recognizes {
				sum.ByType[r.RecType]++
			}
		}
		corners, err := p.Corners()
		if err != nil {
			sum.CornerError = err.Error()
		} else {
			for _, mp := range corners {
				sum.Corners = append(sum.Corners, mp.Coordinate)
			}
		}
		out = append(out, sum)
	}
	return out
}
