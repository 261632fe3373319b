package scraper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Job is one crawl invocation: where to start, how to cut the page into
// records and whether to follow next-page links.
type Job struct {
	Source     string           `yaml:"source" json:"source"`
	BaseURL    string           `yaml:"base_url" json:"base_url,omitempty"`
	Selectors  SelectorConfig   `yaml:"selectors" json:"selectors"`
	Pagination PaginationConfig `yaml:"pagination" json:"pagination"`
}

// ReferenceURL is the base for resolving links on the first page.
func (j *Job) ReferenceURL() string {
	if j.BaseURL != "" {
		return j.BaseURL
	}
	return j.Source
}

func (j *Job) Validate() error {
	if strings.TrimSpace(j.Source) == "" {
		return fmt.Errorf("source is required")
	}
	if len(j.Selectors.Fields) == 0 {
		return fmt.Errorf("selectors.fields must contain at least one field")
	}
	for _, f := range j.Selectors.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("selectors.fields: field name is required")
		}
	}
	if j.Pagination.MaxPages < 0 {
		return fmt.Errorf("pagination.max_pages must be >= 0")
	}
	return nil
}

// SelectorConfig describes how a page is cut into records.
type SelectorConfig struct {
	// Container selects one element per record. Empty means the whole
	// document is a single record.
	Container string     `yaml:"container" json:"container"`
	Fields    FieldSpecs `yaml:"fields" json:"fields"`
}

// FieldSpec pairs an output field with its selector (may be empty).
type FieldSpec struct {
	Name     string
	Selector string
}

// FieldSpecs keeps the declaration order of fields; output records use it.
type FieldSpecs []FieldSpec

func (f FieldSpecs) Names() []string {
	names := make([]string, len(f))
	for i, spec := range f {
		names[i] = spec.Name
	}
	return names
}

func (f *FieldSpecs) add(name, sel string) {
	for i := range *f {
		if (*f)[i].Name == name {
			(*f)[i].Selector = sel
			return
		}
	}
	*f = append(*f, FieldSpec{Name: name, Selector: sel})
}

func (f *FieldSpecs) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: fields must be a mapping of name to selector", node.Line)
	}

	specs := FieldSpecs{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var name, sel string
		if err := node.Content[i].Decode(&name); err != nil {
			return fmt.Errorf("line %d: field name: %w", node.Content[i].Line, err)
		}
		if err := node.Content[i+1].Decode(&sel); err != nil {
			return fmt.Errorf("line %d: field %q: %w", node.Content[i+1].Line, name, err)
		}
		specs.add(name, sel)
	}
	*f = specs
	return nil
}

func (f *FieldSpecs) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("fields must be an object of name to selector")
	}

	specs := FieldSpecs{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected field key %v", tok)
		}

		var sel *string
		if err := dec.Decode(&sel); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		if sel == nil {
			specs.add(name, "")
		} else {
			specs.add(name, *sel)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*f = specs
	return nil
}

func (f FieldSpecs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, spec := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONPair(&buf, spec.Name, spec.Selector); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// PaginationConfig controls next-page following.
type PaginationConfig struct {
	Enabled      bool   `yaml:"enabled" json:"enabled"`
	NextSelector string `yaml:"next_selector" json:"next_selector,omitempty"`
	// MaxPages caps fetched pages including the first. 0 means unset.
	MaxPages int `yaml:"max_pages" json:"max_pages,omitempty"`
}

// Record is one extracted item. Field order follows the job's field list.
type Record struct {
	names  []string
	values map[string]string
}

// NewRecord returns a record with every field present and empty.
func NewRecord(names []string) *Record {
	r := &Record{
		names:  append([]string(nil), names...),
		values: make(map[string]string, len(names)),
	}
	for _, n := range names {
		r.values[n] = ""
	}
	return r
}

func (r *Record) Names() []string {
	return r.names
}

func (r *Record) Get(name string) string {
	return r.values[name]
}

// Set stores value under name. Unknown names are appended.
func (r *Record) Set(name, value string) {
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = value
}

// IsBlank reports whether every value is empty or whitespace.
func (r *Record) IsBlank() bool {
	for _, v := range r.values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONPair(&buf, name, r.values[name]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONPair(buf *bytes.Buffer, key, value string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// Source tells where a field value came from.
type Source string

const (
	SourceSelector  Source = "selector"
	SourceHeuristic Source = "heuristic"
	SourceNone      Source = "none"
)

// FieldResult is the outcome of extracting one field. A failed field has
// Err set and an empty Value; it never affects sibling fields.
type FieldResult struct {
	Value  string
	Source Source
	Err    error
}

func (r FieldResult) OK() bool {
	return r.Err == nil
}
