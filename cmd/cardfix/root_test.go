package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/cardfix/internal/fixture"
	"github.com/jackzampolin/cardfix/internal/output"
)

const cardLayout = `{"pages":[{"card_columns":1,"model_size":{"w":100,"h":200},"model_points":[` +
	`{"point_type":1,"coordinate":{"x":0,"y":0,"w":5,"h":5}},` +
	`{"point_type":1,"coordinate":{"x":90,"y":0,"w":5,"h":5}},` +
	`{"point_type":2,"coordinate":{"x":0,"y":100,"w":5,"h":5}},` +
	`{"point_type":2,"coordinate":{"x":90,"y":100,"w":5,"h":5}},` +
	`{"point_type":1,"coordinate":{"x":0,"y":190,"w":5,"h":5}},` +
	`{"point_type":1,"coordinate":{"x":90,"y":190,"w":5,"h":5}}],` +
	`"page_number_points":[],"recognizes":[]}],"is_in_seal":false,"card_type":1}`

// execute runs the root command with args. Every call passes -o explicitly
// because flag values persist on the package-level command.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil))) })
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedCard(t *testing.T, root, examID, layout string) {
	t.Helper()
	images := filepath.Join(root, "cards", examID, "images")
	if err := os.MkdirAll(images, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "cards", examID, "scan.json"), []byte(layout), 0o644); err != nil {
		t.Fatalf("write scan.json: %v", err)
	}
	f, err := os.Create(filepath.Join(images, "page1.png"))
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := parseLevel(in)
		if err != nil || got != want {
			t.Errorf("parseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "cardfix ") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestConfigCommands(t *testing.T) {
	root := t.TempDir()

	out, err := execute(t, "config", "init", "--home", root, "-o", "yaml")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, filepath.Join(root, "config.yaml")) {
		t.Errorf("unexpected output: %s", out)
	}

	out, err = execute(t, "config", "get", "encode.quality", "--home", root, "-o", "json")
	if err != nil {
		t.Fatalf("config get failed: %v", err)
	}
	var entry struct {
		Key   string `json:"key"`
		Value int    `json:"value"`
	}
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if entry.Key != "encode.quality" || entry.Value != 95 {
		t.Errorf("unexpected entry: %+v", entry)
	}

	if _, err := execute(t, "config", "get", "no.such.key", "--home", root, "-o", "json"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestSecondAndValidateCommands(t *testing.T) {
	root := t.TempDir()
	seedCard(t, root, "194751", cardLayout)

	out, err := execute(t, "second", "194751", "--home", root, "-o", "json")
	if err != nil {
		t.Fatalf("second failed: %v", err)
	}
	if !strings.Contains(out, "page1.png") {
		t.Errorf("expected image in output: %s", out)
	}
	if _, err := os.Stat(filepath.Join(root, "cards", "194751", "scan_second.json")); err != nil {
		t.Errorf("scan_second.json not written: %v", err)
	}

	if _, err := execute(t, "validate", "194751", "--home", root, "-o", "json"); err != nil {
		t.Errorf("validate failed on a good layout: %v", err)
	}

	seedCard(t, root, "2", `{"pages":[{"card_columns":9}]}`)
	if _, err := execute(t, "validate", "2", "--home", root, "-o", "json"); err == nil {
		t.Error("expected validate to fail on a bad layout")
	}
}

func TestPostCommand_DryRun(t *testing.T) {
	root := t.TempDir()
	seedCard(t, root, "197864", cardLayout)
	if err := os.WriteFile(filepath.Join(root, "197864.json"), []byte(`{"pages":[]}`), 0o644); err != nil {
		t.Fatalf("write rec result: %v", err)
	}

	out, err := execute(t, "post", "197864", "--dry-run", "--home", root, "-o", "json")
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if !strings.Contains(out, `"sent": false`) {
		t.Errorf("unexpected output: %s", out)
	}
	if _, err := os.Stat(filepath.Join(root, "cards", "197864", "197864_post.json")); err != nil {
		t.Errorf("payload not written: %v", err)
	}

	if _, err := execute(t, "post", "197864", "--dry-run", "--fill-rate", "0", "--home", root, "-o", "json"); err != nil {
		t.Fatalf("post --fill-rate 0 failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "cards", "197864", "197864_post.json"))
	if err != nil {
		t.Fatalf("payload not written: %v", err)
	}
	var payload struct {
		FillRate *float64 `json:"fillRate"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload.FillRate == nil || *payload.FillRate != 0 {
		t.Errorf("fillRate = %v, want explicit 0", payload.FillRate)
	}
}

func TestOutputFlag_Invalid(t *testing.T) {
	if _, err := execute(t, "validate", "1", "--home", t.TempDir(), "-o", "xml"); err == nil {
		t.Error("expected error for unknown output format")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("stdout closed") }

func TestPrintGenerated(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))

	t.Run("print failure is logged", func(t *testing.T) {
		logs.Reset()
		fn := printGenerated(output.NewPrinter(failingWriter{}, output.FormatJSON), log, "194751")
		fn(&fixture.SecondResult{ExamID: "194751"}, nil)
		if !strings.Contains(logs.String(), "failed to print result") || !strings.Contains(logs.String(), "stdout closed") {
			t.Errorf("expected warning in logs, got: %s", logs.String())
		}
	})

	t.Run("successful run is printed", func(t *testing.T) {
		logs.Reset()
		var out bytes.Buffer
		fn := printGenerated(output.NewPrinter(&out, output.FormatJSON), log, "194751")
		fn(&fixture.SecondResult{ExamID: "194751"}, nil)
		if !strings.Contains(out.String(), `"exam_id": "194751"`) {
			t.Errorf("unexpected output: %s", out.String())
		}
		if logs.Len() != 0 {
			t.Errorf("unexpected logs: %s", logs.String())
		}
	})

	t.Run("failed run prints nothing", func(t *testing.T) {
		var out bytes.Buffer
		fn := printGenerated(output.NewPrinter(&out, output.FormatJSON), log, "194751")
		fn(nil, errors.New("boom"))
		if out.Len() != 0 {
			t.Errorf("expected no output, got: %s", out.String())
		}
	})
}
