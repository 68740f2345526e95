package expand

import (
	"reflect"
	"testing"

	"github.com/John-Robertt/YTCR/internal/domain"
)

// 典型桌面版列表页：blob 内含逐行渲染器，A 重复出现一次。
const blobPage = `<html><head><title>My Course - YouTube</title></head><body>
<script>var ytInitialData = {"contents":[
{"playlistVideoRenderer":{"videoId":"aaaaaaaaaaa","title":{"runs":[{"text":"A"}]}}},
{"playlistVideoRenderer":{"videoId":"bbbbbbbbbbb","title":{"runs":[{"text":"B"}]}}},
{"playlistVideoRenderer":{"videoId":"aaaaaaaaaaa","title":{"runs":[{"text":"A again"}]}}},
{"playlistVideoRenderer":{"videoId":"ccccccccccc","title":{"runs":[{"text":"C"}]}}}
]};</script>
<script>{"videoId":"zzzzzzzzzzz"}</script>
</body></html>`

func ids(ss ...string) []domain.VideoID {
	out := make([]domain.VideoID, 0, len(ss))
	for _, s := range ss {
		out = append(out, domain.VideoID(s))
	}
	return out
}

func TestParseBlobStrictDedupesKeepsOrder(t *testing.T) {
	got := parseBlob([]byte(blobPage))
	// [A,B,A,C] ⇒ [A,B,C]：去重且保持发现顺序；blob 边界外的 id 不参与。
	want := ids("aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("期望 %v，实际 %v", want, got)
	}
}

func TestParseBlobLooseFallbackExcludesNonVideo(t *testing.T) {
	page := `<script>var ytInitialData = {"items":[
{"videoId":"ddddddddddd"},
{"videoId":"PLabcdefghi"},
{"videoId":"RDabcdefghi"},
{"videoId":"UCabcdefghi"},
{"videoId":"OLAK5uy_abc"},
{"videoId":"eeeeeeeeeee"},
{"videoId":"ddddddddddd"}
]};</script>`
	got := parseBlob([]byte(page))
	want := ids("ddddddddddd", "eeeeeeeeeee")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("期望排除非视频前缀并去重 %v，实际 %v", want, got)
	}
}

func TestParseBlobStrictWinsOverLoose(t *testing.T) {
	page := `<script>var ytInitialData = {"a":[
{"playlistVideoRenderer":{"videoId":"aaaaaaaaaaa"}},
{"videoId":"fffffffffff"}
]};</script>`
	got := parseBlob([]byte(page))
	// 严格模式命中后不再并入宽松模式的结果。
	want := ids("aaaaaaaaaaa")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("期望 %v，实际 %v", want, got)
	}
}

func TestParseBlobMissingMarkers(t *testing.T) {
	if got := parseBlob([]byte(`<html>no blob here "videoId":"aaaaaaaaaaa"</html>`)); got != nil {
		t.Fatalf("缺少起始标记时期望 nil，实际 %v", got)
	}
	if got := parseBlob([]byte(`var ytInitialData = {"videoId":"aaaaaaaaaaa"} no close`)); got != nil {
		t.Fatalf("缺少收尾标记时期望 nil，实际 %v", got)
	}
}
