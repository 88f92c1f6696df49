package background

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestList_FiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.JPG", "a.png", "c.jpeg", "notes.txt", "d.gif"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	paths, err := NewPicker(dir, 0).List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	want := []string{"a.png", "b.JPG", "c.jpeg"}
	if len(names) != len(want) {
		t.Fatalf("expected %q, got %q", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %q, got %q", want[i], names[i])
		}
	}
}

func TestPick_MissingDir(t *testing.T) {
	img, err := NewPicker(filepath.Join(t.TempDir(), "absent"), 0).Pick()
	if err != nil || img != nil {
		t.Errorf("expected nil picture and no error, got %v %v", img, err)
	}
}

func TestPick_PreparesAndCaches(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "altar.png"), 400, 200)

	p := NewPicker(dir, 100)
	p.Seed(1)
	first, err := p.Pick()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ContentType != "image/jpeg" || first.Name != "altar.png" {
		t.Errorf("unexpected picture %q %q", first.Name, first.ContentType)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(first.Data))
	if err != nil {
		t.Fatalf("decode prepared picture: %v", err)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("expected 100x50, got %dx%d", cfg.Width, cfg.Height)
	}

	second, err := p.Pick()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != first {
		t.Error("expected cached picture on second pick")
	}
}

func TestPrepare_DoesNotEnlarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small.png")
	writePNG(t, path, 40, 30)
	raw, _ := os.ReadFile(path)

	out, err := Prepare(raw, 1920)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 40 || cfg.Height != 30 {
		t.Errorf("expected 40x30, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestPrepare_Garbage(t *testing.T) {
	if _, err := Prepare([]byte("nope"), 100); err == nil {
		t.Error("expected decode error")
	}
}
