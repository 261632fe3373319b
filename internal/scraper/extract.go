package scraper

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"pagecrawl/internal/dom"
	"pagecrawl/internal/normalize"
)

// a date field value longer than this is treated as surrounding text
const maxDateValueLen = 20

// Extractor turns a matched element (or, when nothing matched, the record
// container) into a single field value.
type Extractor struct {
	vocab     *Vocabulary
	sanitizer *bluemonday.Policy
}

func NewExtractor(vocab *Vocabulary) *Extractor {
	return &Extractor{
		vocab:     vocab,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Extract reads field from el. With no element it falls back to the
// heuristic registered for the field's category, searching container.
// It never panics; a failure is reported in FieldResult.Err.
func (e *Extractor) Extract(el dom.Node, attr, baseURL, field string, container dom.Node) (res FieldResult) {
	defer recoverField(field, &res)

	category := e.vocab.Classify(field)
	source := SourceSelector

	if el == nil {
		if container == nil {
			return FieldResult{Source: SourceNone}
		}
		run := heuristicFor(category)
		if run == nil {
			return FieldResult{Source: SourceNone}
		}

		out := run(e, fallbackInput{container: container, attr: attr, category: category})
		if out.element == nil {
			if out.value == "" {
				return FieldResult{Source: SourceNone}
			}
			return FieldResult{Value: out.value, Source: SourceHeuristic}
		}
		el, attr, source = out.element, out.attr, SourceHeuristic
	}

	value, resolved := readValue(el, attr, baseURL)
	if resolved {
		return FieldResult{Value: value, Source: source}
	}

	if category == CategoryDate && (value == "" || normalize.RuneLen(value) > maxDateValueLen) {
		value = dateFromContext(el, value, container)
	}
	return FieldResult{Value: value, Source: source}
}

// HTML returns the sanitized inner markup of el.
func (e *Extractor) HTML(el dom.Node, field string) (res FieldResult) {
	defer recoverField(field, &res)

	inner, err := el.HTML()
	if err != nil {
		return FieldResult{Err: fmt.Errorf("field %q: %w", field, err)}
	}
	return FieldResult{
		Value:  strings.TrimSpace(e.sanitizer.Sanitize(inner)),
		Source: SourceSelector,
	}
}

// readValue reports resolved=true when value is an href/src made absolute.
func readValue(el dom.Node, attr, baseURL string) (value string, resolved bool) {
	if attr == "" {
		return el.Text(" "), false
	}

	v, _ := el.Attr(attr)
	v = strings.TrimSpace(v)
	if v != "" && (attr == "href" || attr == "src") && baseURL != "" {
		return resolveURL(baseURL, v), true
	}
	return v, false
}

// dateFromContext narrows a long or empty date value down to the date
// itself, looking at the value, the element's text and then the
// container's parent.
func dateFromContext(el dom.Node, value string, container dom.Node) string {
	candidates := []string{value, el.Text(" ")}
	if container != nil {
		if parent := container.Parent(); parent != nil {
			candidates = append(candidates, parent.Text(" "))
		}
	}

	for _, text := range candidates {
		if d := normalize.ExtractDate(text); d != "" {
			return d
		}
	}
	return value
}

func recoverField(field string, res *FieldResult) {
	if r := recover(); r != nil {
		*res = FieldResult{Err: fmt.Errorf("field %q: panic: %v", field, r)}
	}
}
