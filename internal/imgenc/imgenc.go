// Package imgenc turns scan images into base64 data URIs for engine inputs.
package imgenc

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// DefaultQuality is the JPEG quality used when Options.Quality is unset.
const DefaultQuality = 95

// JPEGMime is the MIME type of every re-encoded image.
const JPEGMime = "image/jpeg"

// ErrNotImage is returned when a file's content is not a recognised image.
var ErrNotImage = errors.New("not an image")

// Options controls how images are encoded.
type Options struct {
	Quality int  // JPEG quality 1-100 (default 95)
	MaxSide int  // Downscale so the longer side is at most this many pixels (0 = keep)
	Raw     bool // Embed the file bytes unchanged instead of re-encoding to JPEG
	Workers int  // Concurrent encoders for EncodeDir (default NumCPU)
}

func (o Options) quality() int {
	if o.Quality < 1 || o.Quality > 100 {
		return DefaultQuality
	}
	return o.Quality
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return runtime.NumCPU()
	}
	return o.Workers
}

// Encoded is one encoded image.
type Encoded struct {
	Name    string // Base name of the source file
	DataURI string
	Mime    string
	Bytes   int // Size of the embedded payload before base64
}

// DataURI builds a base64 data URI.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a base64 data URI into its payload and MIME type.
// A bare base64 string (no "data:" prefix) is accepted with an empty MIME type.
func DecodeDataURI(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", errors.New("empty data uri")
	}
	mimeType := ""
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", errors.New("data uri has no payload")
		}
		params, isBase64 := strings.CutSuffix(header, ";base64")
		if !isBase64 {
			return nil, "", errors.New("data uri is not base64 encoded")
		}
		mimeType = params
		s = payload
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
	}
	return data, mimeType, nil
}

// EncodeFile reads an image file and returns it as a data URI.
func EncodeFile(path string, opts Options) (*Encoded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	enc, err := EncodeBytes(data, opts)
	if err != nil {
		if opts.Raw && errors.Is(err, ErrNotImage) {
			// net/http does not sniff TIFF; fall back to the extension
			if m := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(m, "image/") {
				return &Encoded{Name: filepath.Base(path), DataURI: DataURI(m, data), Mime: m, Bytes: len(data)}, nil
			}
		}
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	enc.Name = filepath.Base(path)
	return enc, nil
}

// EncodeBytes encodes raw image bytes as a data URI.
func EncodeBytes(data []byte, opts Options) (*Encoded, error) {
	if opts.Raw {
		m := http.DetectContentType(data)
		if !strings.HasPrefix(m, "image/") {
			return nil, fmt.Errorf("%w: detected %s", ErrNotImage, m)
		}
		return &Encoded{DataURI: DataURI(m, data), Mime: m, Bytes: len(data)}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	out, err := ToJPEG(img, opts)
	if err != nil {
		return nil, err
	}
	return &Encoded{DataURI: DataURI(JPEGMime, out), Mime: JPEGMime, Bytes: len(out)}, nil
}

// ToJPEG re-encodes a decoded image as JPEG. Transparent pixels are composited
// onto white since JPEG has no alpha channel.
func ToJPEG(img image.Image, opts Options) ([]byte, error) {
	img = fit(img, opts.MaxSide)
	if !isOpaque(img) {
		img = flatten(img)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: opts.quality()}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

func flatten(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// fit downscales img so its longer side is at most maxSide.
func fit(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}
	var nw, nh int
	if w >= h {
		nw, nh = maxSide, max(1, h*maxSide/w)
	} else {
		nw, nh = max(1, w*maxSide/h), maxSide
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// ListImages returns the regular, non-hidden files of dir in name order.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}

// EncodeDir encodes every image in dir concurrently. Results keep the
// directory listing order; the first failure cancels the rest.
func EncodeDir(ctx context.Context, dir string, opts Options) ([]Encoded, error) {
	paths, err := ListImages(dir)
	if err != nil {
		return nil, err
	}

	results := make([]Encoded, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			enc, err := EncodeFile(p, opts)
			if err != nil {
				return err
			}
			results[i] = *enc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// URIs returns the data URIs of encoded images in order.
func URIs(images []Encoded) []string {
	out := make([]string, len(images))
	for i, img := range images {
		out[i] = img.DataURI
	}
	return out
}
