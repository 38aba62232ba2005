// Package testkit provides fixtures and helpers shared by package tests.
package testkit

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// Context returns a context bounded by timeout and cancelled at test cleanup.
func Context(t testing.TB, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// Gradient builds a w x h RGBA image with a diagonal gradient, so encoders
// have real content to compress.
func Gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / max(w, 1)),
				G: uint8(y * 255 / max(h, 1)),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img
}

// WriteJPEG writes a w x h JPEG named name into dir and returns its path.
func WriteJPEG(t testing.TB, dir, name string, w, h int) string {
	t.Helper()
	return writeImage(t, dir, name, func(f io.Writer) error {
		return jpeg.Encode(f, Gradient(w, h), &jpeg.Options{Quality: 95})
	})
}

// WritePNG writes a w x h PNG named name into dir and returns its path.
func WritePNG(t testing.TB, dir, name string, w, h int) string {
	t.Helper()
	return writeImage(t, dir, name, func(f io.Writer) error {
		return png.Encode(f, Gradient(w, h))
	})
}

// WriteCorrupt writes bytes that no image decoder accepts.
func WriteCorrupt(t testing.TB, dir, name string) string {
	t.Helper()
	return WriteFile(t, dir, name, []byte("this is not an image"))
}

// WriteFile writes raw content into dir/name.
func WriteFile(t testing.TB, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func writeImage(t testing.TB, dir, name string, encode func(io.Writer) error) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := encode(f); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

// DecodeConfig returns the dimensions of the image at path.
func DecodeConfig(t testing.TB, path string) image.Config {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode config %s: %v", path, err)
	}
	return cfg
}

// Eventually polls fn until it returns true or timeout elapses.
func Eventually(fn func() bool, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return nil
		}
		time.Sleep(interval)
	}
	return fmt.Errorf("condition not met within %v", timeout)
}

// Upload is one call recorded by MockMirror.
type Upload struct {
	Key  string
	Data []byte
}

// MockMirror records uploads; Err, when set, fails every upload.
type MockMirror struct {
	Err error

	mu      sync.Mutex
	uploads []Upload
}

func NewMockMirror() *MockMirror {
	return &MockMirror{}
}

func (m *MockMirror) Upload(ctx context.Context, file io.Reader, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, Upload{Key: key, Data: data})
	return "mock://" + key, nil
}

func (m *MockMirror) Name() string {
	return "mock"
}

// Uploads returns a copy of the recorded uploads.
func (m *MockMirror) Uploads() []Upload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Upload(nil), m.uploads...)
}
