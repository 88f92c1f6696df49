// Package background picks background pictures from a directory and
// prepares them for embedding: decoded, shrunk to the slide width and
// re-encoded as JPEG.
package background

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nfnt/resize"
)

// Extensions accepted as background pictures.
var Extensions = []string{".png", ".jpg", ".jpeg"}

const jpegQuality = 85

// Image is a prepared background picture.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// Picker chooses random pictures from Dir. Prepared pictures are cached by
// path. A Picker is safe for concurrent use.
type Picker struct {
	Dir   string
	Width int // maximum pixel width; 0 keeps the original size

	mu    sync.Mutex
	rng   *rand.Rand
	cache map[string]*Image
}

// NewPicker returns a picker over dir.
func NewPicker(dir string, width int) *Picker {
	return &Picker{
		Dir:   dir,
		Width: width,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]*Image),
	}
}

// Seed makes the picker's choices reproducible.
func (p *Picker) Seed(seed int64) {
	p.mu.Lock()
	p.rng = rand.New(rand.NewSource(seed))
	p.mu.Unlock()
}

// List returns the candidate file paths in name order. A missing directory
// yields no candidates and no error.
func (p *Picker) List() ([]string, error) {
	entries, err := os.ReadDir(p.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read background dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !hasExt(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(p.Dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Pick returns a random prepared picture, or nil when the directory holds
// none.
func (p *Picker) Pick() (*Image, error) {
	paths, err := p.List()
	if err != nil || len(paths) == 0 {
		return nil, err
	}
	p.mu.Lock()
	path := paths[p.rng.Intn(len(paths))]
	p.mu.Unlock()
	return p.Load(path)
}

// Load prepares one picture.
func (p *Picker) Load(path string) (*Image, error) {
	p.mu.Lock()
	if img, ok := p.cache[path]; ok {
		p.mu.Unlock()
		return img, nil
	}
	p.mu.Unlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read background: %w", err)
	}
	data, err := Prepare(raw, p.Width)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", filepath.Base(path), err)
	}
	img := &Image{Name: filepath.Base(path), ContentType: "image/jpeg", Data: data}

	p.mu.Lock()
	p.cache[path] = img
	p.mu.Unlock()
	return img, nil
}

// Prepare decodes raw, shrinks it to at most width pixels wide keeping the
// aspect ratio and encodes it as JPEG. Narrower images are not enlarged.
func Prepare(raw []byte, width int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	if width > 0 && img.Bounds().Dx() > width {
		img = resize.Resize(uint(width), 0, img, resize.Lanczos3)
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func hasExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
