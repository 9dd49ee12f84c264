package imgenc

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeJPEG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func decodeURI(t *testing.T, uri string) image.Image {
	t.Helper()
	data, mimeType, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI: %v", err)
	}
	if mimeType != JPEGMime {
		t.Fatalf("mime = %s, want %s", mimeType, JPEGMime)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("payload is not a jpeg: %v", err)
	}
	return img
}

func TestDataURI_RoundTrip(t *testing.T) {
	payload := []byte("hello scan")
	uri := DataURI("image/png", payload)
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix: %s", uri)
	}
	data, mimeType, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI() error = %v", err)
	}
	if mimeType != "image/png" || string(data) != string(payload) {
		t.Errorf("got %q %q", mimeType, data)
	}
}

func TestDecodeDataURI_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":      "",
		"no payload": "data:image/png;base64",
		"not base64": "data:image/png,rawtext",
		"bad base64": "data:image/png;base64,!!!",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, _, err := DecodeDataURI(in); err == nil {
				t.Errorf("expected error for %q", in)
			}
		})
	}

	t.Run("bare base64", func(t *testing.T) {
		data, mimeType, err := DecodeDataURI("aGk=")
		if err != nil || mimeType != "" || string(data) != "hi" {
			t.Errorf("got %q %q %v", data, mimeType, err)
		}
	})
}

func TestEncodeFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("png is re-encoded as jpeg", func(t *testing.T) {
		path := filepath.Join(dir, "page.png")
		writePNG(t, path, solid(40, 30, color.NRGBA{R: 200, G: 10, B: 10, A: 255}))

		enc, err := EncodeFile(path, Options{})
		if err != nil {
			t.Fatalf("EncodeFile() error = %v", err)
		}
		if enc.Name != "page.png" || enc.Mime != JPEGMime {
			t.Errorf("unexpected result: %+v", enc)
		}
		img := decodeURI(t, enc.DataURI)
		if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
			t.Errorf("unexpected size %v", img.Bounds())
		}
	})

	t.Run("transparency is flattened onto white", func(t *testing.T) {
		path := filepath.Join(dir, "clear.png")
		writePNG(t, path, solid(16, 16, color.NRGBA{}))

		enc, err := EncodeFile(path, Options{})
		if err != nil {
			t.Fatalf("EncodeFile() error = %v", err)
		}
		r, g, b, _ := decodeURI(t, enc.DataURI).At(8, 8).RGBA()
		if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
			t.Errorf("expected white, got %d %d %d", r>>8, g>>8, b>>8)
		}
	})

	t.Run("max side downscales", func(t *testing.T) {
		path := filepath.Join(dir, "big.jpg")
		writeJPEG(t, path, solid(200, 100, color.NRGBA{G: 255, A: 255}))

		enc, err := EncodeFile(path, Options{MaxSide: 50})
		if err != nil {
			t.Fatalf("EncodeFile() error = %v", err)
		}
		b := decodeURI(t, enc.DataURI).Bounds()
		if b.Dx() != 50 || b.Dy() != 25 {
			t.Errorf("expected 50x25, got %dx%d", b.Dx(), b.Dy())
		}
	})

	t.Run("raw keeps bytes", func(t *testing.T) {
		path := filepath.Join(dir, "raw.png")
		writePNG(t, path, solid(4, 4, color.NRGBA{A: 255}))
		original, _ := os.ReadFile(path)

		enc, err := EncodeFile(path, Options{Raw: true})
		if err != nil {
			t.Fatalf("EncodeFile() error = %v", err)
		}
		data, mimeType, _ := DecodeDataURI(enc.DataURI)
		if mimeType != "image/png" || !bytes.Equal(data, original) {
			t.Errorf("raw payload changed (mime %s)", mimeType)
		}
	})

	t.Run("non image", func(t *testing.T) {
		path := filepath.Join(dir, "notes.txt")
		os.WriteFile(path, []byte("not an image"), 0o644)

		_, err := EncodeFile(path, Options{})
		if !errors.Is(err, ErrNotImage) {
			t.Errorf("expected ErrNotImage, got %v", err)
		}
		_, err = EncodeFile(path, Options{Raw: true})
		if !errors.Is(err, ErrNotImage) {
			t.Errorf("raw: expected ErrNotImage, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := EncodeFile(filepath.Join(dir, "nope.jpg"), Options{}); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestEncodeDir(t *testing.T) {
	dir := t.TempDir()
	// Written out of order; listing order is by name.
	writeJPEG(t, filepath.Join(dir, "b.jpg"), solid(10, 20, color.NRGBA{B: 255, A: 255}))
	writePNG(t, filepath.Join(dir, "a.png"), solid(30, 10, color.NRGBA{R: 255, A: 255}))
	writePNG(t, filepath.Join(dir, "c.png"), solid(5, 5, color.NRGBA{A: 255}))
	os.WriteFile(filepath.Join(dir, ".DS_Store"), []byte("junk"), 0o644)
	os.Mkdir(filepath.Join(dir, "sub"), 0o755)

	images, err := EncodeDir(context.Background(), dir, Options{Workers: 2})
	if err != nil {
		t.Fatalf("EncodeDir() error = %v", err)
	}
	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(images))
	}
	for i, want := range []string{"a.png", "b.jpg", "c.png"} {
		if images[i].Name != want {
			t.Errorf("images[%d] = %s, want %s", i, images[i].Name, want)
		}
	}
	if w := decodeURI(t, images[0].DataURI).Bounds().Dx(); w != 30 {
		t.Errorf("first image width = %d, want 30", w)
	}

	uris := URIs(images)
	if len(uris) != 3 || uris[1] != images[1].DataURI {
		t.Error("URIs() does not preserve order")
	}

	t.Run("empty directory", func(t *testing.T) {
		images, err := EncodeDir(context.Background(), t.TempDir(), Options{})
		if err != nil || len(images) != 0 {
			t.Errorf("got %d images, err %v", len(images), err)
		}
	})

	t.Run("bad file fails the batch", func(t *testing.T) {
		bad := t.TempDir()
		writePNG(t, filepath.Join(bad, "ok.png"), solid(2, 2, color.NRGBA{A: 255}))
		os.WriteFile(filepath.Join(bad, "broken.jpg"), []byte{0xFF, 0xD8, 0x00}, 0o644)
		if _, err := EncodeDir(context.Background(), bad, Options{}); err == nil {
			t.Error("expected error for undecodable file")
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		if _, err := EncodeDir(context.Background(), filepath.Join(dir, "none"), Options{}); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}
