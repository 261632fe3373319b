package scraper

import (
	"fmt"

	"pagecrawl/internal/dom"
	"pagecrawl/internal/selector"
)

// FieldHook observes every extracted field. Used for metrics and debug logs.
type FieldHook func(field string, category Category, res FieldResult)

type compiledField struct {
	name     string
	category Category
	sel      selector.Parsed
}

type Scraper struct {
	container string
	fields    []compiledField
	names     []string
	extractor *Extractor
	hook      FieldHook
}

type Option func(*Scraper)

func WithFieldHook(h FieldHook) Option {
	return func(s *Scraper) { s.hook = h }
}

func NewScraper(cfg SelectorConfig, vocab *Vocabulary, opts ...Option) *Scraper {
	s := &Scraper{
		container: cfg.Container,
		names:     cfg.Fields.Names(),
		extractor: NewExtractor(vocab),
	}
	for _, f := range cfg.Fields {
		s.fields = append(s.fields, compiledField{
			name:     f.Name,
			category: vocab.Classify(f.Name),
			sel:      selector.Parse(f.Selector),
		})
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExtractPage cuts page into records. With a container selector every match
// is one record; without one the whole page is a single record. baseURL
// resolves relative href/src values.
//
// Only an unusable container selector is an error. Field failures leave
// the field empty.
func (s *Scraper) ExtractPage(page dom.Node, baseURL string) ([]*Record, error) {
	if s.container == "" {
		rec := NewRecord(s.names)
		for _, f := range s.fields {
			res := s.extractField(page, f, baseURL, page, true)
			rec.Set(f.name, res.Value)
		}
		return []*Record{rec}, nil
	}

	items, err := page.SelectAll(s.container)
	if err != nil {
		return nil, fmt.Errorf("container %q: %w", s.container, err)
	}

	records := make([]*Record, 0, len(items))
	for _, item := range items {
		rec := NewRecord(s.names)
		for _, f := range s.fields {
			res := s.extractField(item, f, baseURL, item, false)
			rec.Set(f.name, res.Value)
		}
		records = append(records, rec)
	}
	return records, nil
}

// extractField resolves f inside scope. An empty selector means scope itself
// is the element, except for a whole-page record where it means "no element".
func (s *Scraper) extractField(scope dom.Node, f compiledField, baseURL string, container dom.Node, wholePage bool) (res FieldResult) {
	defer func() {
		if r := recover(); r != nil {
			res = FieldResult{Err: fmt.Errorf("field %q: panic: %v", f.name, r)}
		}
		if s.hook != nil {
			s.hook(f.name, f.category, res)
		}
	}()

	var el dom.Node
	switch {
	case f.sel.HasBase():
		found, err := scope.SelectOne(f.sel.Base)
		if err != nil {
			return FieldResult{Err: fmt.Errorf("field %q: %w", f.name, err)}
		}
		el = found
	case !wholePage:
		el = scope
	}

	if el != nil && f.sel.Mode == selector.ModeHTML {
		return s.extractor.HTML(el, f.name)
	}
	return s.extractor.Extract(el, f.sel.Attr, baseURL, f.name, container)
}
