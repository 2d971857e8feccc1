package formschema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/formkit/pkg/formdata"
)

// Form is a named schema plus its per-form decode policy.
type Form struct {
	Name           string
	Schema         *formdata.Schema
	Strict         bool
	LenientScalars bool
}

// Options returns the decoder options the form asks for.
func (f *Form) Options() []formdata.Option {
	return []formdata.Option{
		formdata.WithStrict(f.Strict),
		formdata.WithLenientScalars(f.LenientScalars),
	}
}

// Registry holds parsed forms by name. It is read-only after construction and
// safe for concurrent use.
type Registry struct {
	forms map[string]*Form
}

type document struct {
	Forms map[string]formDef `yaml:"forms"`
}

type formDef struct {
	Strict         bool       `yaml:"strict"`
	LenientScalars bool       `yaml:"lenient_scalars"`
	Fields         []fieldDef `yaml:"fields"`
}

type fieldDef struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Cardinality string `yaml:"cardinality"`
	MaxSize     string `yaml:"max_size"`
	Integer     bool   `yaml:"integer"`
}

// Parse builds a registry from a single YAML document:
//
//	forms:
//	  avatar-upload:
//	    strict: true
//	    lenient_scalars: true
//	    fields:
//	      - name: avatar
//	        type: file
//	        max_size: 5MB
//	      - name: tags
//	        type: string
//	        cardinality: list
//
// Unknown keys are rejected.
func Parse(data []byte) (*Registry, error) {
	r := &Registry{forms: make(map[string]*Form)}
	if err := r.add(data, "<inline>"); err != nil {
		return nil, err
	}
	return r, nil
}

// Load reads and parses the YAML file at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrReadFile, err)
	}
	r := &Registry{forms: make(map[string]*Form)}
	if err := r.add(data, path); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadFS parses every .yaml and .yml file in fsys into one registry.
// A form name defined in two files is an error.
func LoadFS(fsys fs.FS) (*Registry, error) {
	r := &Registry{forms: make(map[string]*Form)}
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
		default:
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return errors.Join(ErrReadFile, err)
		}
		return r.add(data, path)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns the schema of the named form.
func (r *Registry) Get(name string) (*formdata.Schema, bool) {
	f, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}
	return f.Schema, true
}

// Lookup returns the named form with its decode policy.
func (r *Registry) Lookup(name string) (*Form, bool) {
	if r == nil {
		return nil, false
	}
	f, ok := r.forms[name]
	return f, ok
}

// Names returns the registered form names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.forms))
	for name := range r.forms {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered forms.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.forms)
}

func (r *Registry) add(data []byte, source string) error {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDocument, source, err)
	}

	for name, def := range doc.Forms {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("%w: %s: empty form name", ErrInvalidForm, source)
		}
		if _, exists := r.forms[name]; exists {
			return fmt.Errorf("%w: %q (%s)", ErrDuplicateForm, name, source)
		}
		schema, err := def.schema()
		if err != nil {
			return fmt.Errorf("%w: %s: form %q: %w", ErrInvalidForm, source, name, err)
		}
		r.forms[name] = &Form{Name: name, Schema: schema, Strict: def.Strict, LenientScalars: def.LenientScalars}
	}
	return nil
}

func (d formDef) schema() (*formdata.Schema, error) {
	fields := make([]formdata.Field, 0, len(d.Fields))
	for _, fd := range d.Fields {
		f, err := fd.field()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return formdata.NewSchema(fields...)
}

func (fd fieldDef) field() (formdata.Field, error) {
	typ, err := formdata.ParseType(fd.Type)
	if err != nil {
		return formdata.Field{}, err
	}
	card, err := formdata.ParseCardinality(fd.Cardinality)
	if err != nil {
		return formdata.Field{}, err
	}
	size, err := parseMaxSize(fd.MaxSize)
	if err != nil {
		return formdata.Field{}, fmt.Errorf("field %q: %w", fd.Name, err)
	}
	return formdata.Field{
		Name:        fd.Name,
		Type:        typ,
		Cardinality: card,
		MaxSize:     size,
		Integer:     fd.Integer,
	}, nil
}

// parseMaxSize maps "" to the decoder default and "unlimited" to no cap.
func parseMaxSize(s string) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case "unlimited", "none":
		return formdata.Unlimited, nil
	}
	return formdata.ParseByteSize(s)
}
