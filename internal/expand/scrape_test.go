package expand

import (
	"reflect"
	"testing"
)

func TestParseScrapeAllMergesPatternsFirstSeen(t *testing.T) {
	page := `<html><body>
<script>{"videoId":"aaaaaaaaaaa"}</script>
<a href="/watch?v=bbbbbbbbbbb">link</a>
<script>{"url":"/watch?v=ccccccccccc","webPageType":"WEB_PAGE_TYPE_WATCH"}</script>
<a href="/watch?v=aaaaaaaaaaa&amp;t=1">dup</a>
</body></html>`
	got := parseScrapeAll([]byte(page))
	// 合并顺序：模式一（videoId 字段）先于模式二（JSON watch 路径）先于模式三（裸路径）。
	want := ids("aaaaaaaaaaa", "ccccccccccc", "bbbbbbbbbbb")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("期望 %v，实际 %v", want, got)
	}
}

func TestParseScrapeAllExcludesNonVideoPrefixes(t *testing.T) {
	page := `{"videoId":"PLabcdefghi"} /watch?v=RDabcdefghi {"videoId":"ddddddddddd"}`
	got := parseScrapeAll([]byte(page))
	want := ids("ddddddddddd")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("期望 %v，实际 %v", want, got)
	}
}

func TestParseScrapeAllEmptyPage(t *testing.T) {
	if got := parseScrapeAll([]byte(`<html><body>nothing relevant</body></html>`)); len(got) != 0 {
		t.Fatalf("期望空结果，实际 %v", got)
	}
}
