package scraper

import "strings"

// Category is the semantic class of a field, inferred from its name.
type Category int

const (
	CategoryGeneric Category = iota
	CategoryLink
	CategoryTitle
	CategoryDate
	CategoryType
)

func (c Category) String() string {
	switch c {
	case CategoryLink:
		return "link"
	case CategoryTitle:
		return "title"
	case CategoryDate:
		return "date"
	case CategoryType:
		return "type"
	default:
		return "generic"
	}
}

// Vocabulary holds the keyword lists that drive field classification,
// the type heuristic and next-page detection.
type Vocabulary struct {
	LinkKeywords  []string `yaml:"link_keywords"`
	TitleKeywords []string `yaml:"title_keywords"`
	DateKeywords  []string `yaml:"date_keywords"`
	TypeKeywords  []string `yaml:"type_keywords"`

	// TypeTerms are looked for inside record text by the type heuristic.
	TypeTerms []string `yaml:"type_terms"`

	NextPageKeywords     []string `yaml:"next_page_keywords"`
	NextPageSelectors    []string `yaml:"next_page_selectors"`
	PaginationContainers []string `yaml:"pagination_containers"`
}

// DefaultVocabulary returns the built-in keyword lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		LinkKeywords:  []string{"链接", "link", "url", "href"},
		TitleKeywords: []string{"标题", "title", "name"},
		DateKeywords:  []string{"日期", "时间", "date", "time", "publish"},
		TypeKeywords:  []string{"类型", "分类", "type", "category"},
		TypeTerms:     []string{"解读", "政策", "文件", "通知", "公告", "公示", "指南", "动态", "要闻"},
		NextPageKeywords: []string{
			"下一页", "下页", "next page", "Next", "next", "»", ">",
		},
		NextPageSelectors: []string{
			`li.next a`,
			`a.next`,
			`a[rel="next"]`,
			`a[aria-label="next"]`,
			`a[aria-label="Next"]`,
			`.pagination .next a`,
			`.pager .next a`,
		},
		PaginationContainers: []string{".pagination", ".pager", ".page", ".pagenav"},
	}
}

// WithDefaults fills every empty list from DefaultVocabulary.
func (v Vocabulary) WithDefaults() Vocabulary {
	d := DefaultVocabulary()
	fill := func(dst *[]string, src []string) {
		if len(*dst) == 0 {
			*dst = src
		}
	}
	fill(&v.LinkKeywords, d.LinkKeywords)
	fill(&v.TitleKeywords, d.TitleKeywords)
	fill(&v.DateKeywords, d.DateKeywords)
	fill(&v.TypeKeywords, d.TypeKeywords)
	fill(&v.TypeTerms, d.TypeTerms)
	fill(&v.NextPageKeywords, d.NextPageKeywords)
	fill(&v.NextPageSelectors, d.NextPageSelectors)
	fill(&v.PaginationContainers, d.PaginationContainers)
	return v
}

// Classify maps a field name to its category. Link is checked before
// title, so "title_link" is a link.
func (v *Vocabulary) Classify(field string) Category {
	name := strings.ToLower(field)
	switch {
	case containsAny(name, v.LinkKeywords):
		return CategoryLink
	case containsAny(name, v.TitleKeywords):
		return CategoryTitle
	case containsAny(name, v.DateKeywords):
		return CategoryDate
	case containsAny(name, v.TypeKeywords):
		return CategoryType
	default:
		return CategoryGeneric
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
