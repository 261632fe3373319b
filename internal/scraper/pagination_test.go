package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestDetector() *Detector {
	vocab := DefaultVocabulary()
	return NewDetector(&vocab)
}

var enabled = PaginationConfig{Enabled: true, MaxPages: 5}

func TestFindNext_Disabled(t *testing.T) {
	page := parse(t, `<a href="/p2">下一页</a>`)
	assert.Equal(t, "", newTestDetector().FindNext(page, "https://e.com/list", PaginationConfig{}))
}

func TestFindNext_ConfiguredSelector(t *testing.T) {
	page := parse(t, `<div class="pg"><a class="go" href="list_2.html">2</a></div><a href="/kw">下一页</a>`)
	cfg := enabled
	cfg.NextSelector = "div.pg a.go"

	assert.Equal(t, "https://e.com/news/list_2.html", newTestDetector().FindNext(page, "https://e.com/news/list.html", cfg))
}

func TestFindNext_ConfiguredSelectorWithoutMatchStops(t *testing.T) {
	// a last page still offers keyword and container links backwards
	page := parse(t, `<a href="/kw">下一页</a><div class="pagination"><a href="/list">1</a></div>`)
	cfg := enabled
	cfg.NextSelector = "a.nextbtn"

	assert.Equal(t, "", newTestDetector().FindNext(page, "https://e.com/list?p=2", cfg))
}

func TestFindNext_ConfiguredSelectorScriptHrefStops(t *testing.T) {
	page := parse(t, `<a class="go" href="javascript:;">2</a><a href="/kw">下一页</a>`)
	cfg := enabled
	cfg.NextSelector = "a.go"

	assert.Equal(t, "", newTestDetector().FindNext(page, "https://e.com/list", cfg))
}

func TestFindNext_InvalidConfiguredSelectorStops(t *testing.T) {
	page := parse(t, `<a href="/kw">Next</a>`)
	cfg := enabled
	cfg.NextSelector = "a["

	assert.Equal(t, "", newTestDetector().FindNext(page, "https://e.com/list", cfg))
}

func TestFindNext_Keyword(t *testing.T) {
	page := parse(t, `<a href="?page=1">上一页</a><a href="?page=3">下一页</a>`)
	assert.Equal(t, "https://e.com/list?page=3", newTestDetector().FindNext(page, "https://e.com/list?page=2", enabled))
}

func TestFindNext_KeywordOrder(t *testing.T) {
	// "下一页" is tried before ">" even though the ">" anchor comes first
	page := parse(t, `<a href="/gt">&gt;</a><a href="/cn">下一页</a>`)
	assert.Equal(t, "https://e.com/cn", newTestDetector().FindNext(page, "https://e.com/", enabled))
}

func TestFindNext_StructuralSelector(t *testing.T) {
	page := parse(t, `<ul><li class="next"><a href="/p/3">more</a></li></ul>`)
	assert.Equal(t, "https://e.com/p/3", newTestDetector().FindNext(page, "https://e.com/p/2", enabled))
}

func TestFindNext_RelNext(t *testing.T) {
	page := parse(t, `<a rel="next" href="/p/3">more</a>`)
	assert.Equal(t, "https://e.com/p/3", newTestDetector().FindNext(page, "https://e.com/p/2", enabled))
}

func TestFindNext_PaginationContainerLastLink(t *testing.T) {
	page := parse(t, `<div class="pagination"><a href="/p/1">1</a><a href="/p/2">2</a><a href="/p/3">3</a></div>`)
	assert.Equal(t, "https://e.com/p/3", newTestDetector().FindNext(page, "https://e.com/p/1", enabled))
}

func TestFindNext_ScriptLinksIgnored(t *testing.T) {
	page := parse(t, `<a href="javascript:next()">下一页</a><div class="pager"><a href="javascript:go(2)">2</a></div>`)
	assert.Equal(t, "", newTestDetector().FindNext(page, "https://e.com/", enabled))
}

func TestFindNext_None(t *testing.T) {
	page := parse(t, listingHTML)
	assert.Equal(t, "", newTestDetector().FindNext(page, "https://e.com/", enabled))
}
