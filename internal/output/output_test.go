package output

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	ExamID string `json:"exam_id" yaml:"exam_id"`
	Images int    `json:"images" yaml:"images"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"yaml", FormatYAML, false},
		{"json", FormatJSON, false},
		{"", Default, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPrinter(t *testing.T) {
	v := sample{ExamID: "194751", Images: 2}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewPrinter(&buf, FormatJSON).Print(v); err != nil {
			t.Fatalf("Print() error = %v", err)
		}
		if !strings.Contains(buf.String(), `"exam_id": "194751"`) {
			t.Errorf("unexpected json output: %s", buf.String())
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewPrinter(&buf, FormatYAML).Print(v); err != nil {
			t.Fatalf("Print() error = %v", err)
		}
		if !strings.Contains(buf.String(), `exam_id: "194751"`) {
			t.Errorf("unexpected yaml output: %s", buf.String())
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := To(&bytes.Buffer{}, Format("xml"), v); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}
