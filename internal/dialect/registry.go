package dialect

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed dialects.yaml
var embeddedTables []byte

// Registry is an ordered, compiled set of dialects.
type Registry struct {
	dialects []*Dialect
	byID     map[string]*Dialect
	byLabel  map[string]*Dialect
}

type tableFile struct {
	Dialects []*Dialect `yaml:"dialects"`
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the registry built from the embedded tables.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := Parse(embeddedTables)
		if err != nil {
			panic(fmt.Sprintf("embedded dialect tables: %v", err))
		}
		defaultReg = r
	})
	return defaultReg
}

// Load returns the registry from path, or the embedded default when path
// is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dialect tables: %w", err)
	}
	return Parse(data)
}

// Parse decodes, validates and compiles a YAML table file.
func Parse(data []byte) (*Registry, error) {
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse dialect tables: %w", err)
	}
	if len(tf.Dialects) == 0 {
		return nil, fmt.Errorf("parse dialect tables: no dialects defined")
	}

	r := &Registry{
		byID:    make(map[string]*Dialect, len(tf.Dialects)),
		byLabel: make(map[string]*Dialect, len(tf.Dialects)),
	}
	for _, d := range tf.Dialects {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate dialect id %q", d.ID)
		}
		if err := d.Compile(); err != nil {
			return nil, err
		}
		r.dialects = append(r.dialects, d)
		r.byID[d.ID] = d
		r.byLabel[d.Label] = d
	}
	return r, nil
}

// Get returns the dialect with the given ID.
func (r *Registry) Get(id string) (*Dialect, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// ByLabel returns the dialect whose classifier label matches.
func (r *Registry) ByLabel(label string) (*Dialect, bool) {
	d, ok := r.byLabel[label]
	return d, ok
}

// All returns the dialects in table order.
func (r *Registry) All() []*Dialect {
	out := make([]*Dialect, len(r.dialects))
	copy(out, r.dialects)
	return out
}
