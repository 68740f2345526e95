package expand

import (
	"bytes"
	"context"
	"net/http"
	"regexp"

	"github.com/John-Robertt/YTCR/internal/domain"
)

// 初始状态 JSON 的定位标记：赋值语句开头 + 紧随其后的 script 收尾。
var (
	blobStartMarker = []byte("var ytInitialData = ")
	blobEndMarker   = []byte(";</script>")
)

var (
	// 严格模式：id 嵌在逐行渲染器键下，命中即确定是列表里的视频。
	rowRendererRE = regexp.MustCompile(`"playlistVideoRenderer":\{"videoId":"([0-9A-Za-z_-]{11})"`)
	// 宽松模式：blob 里任意 videoId 字段；需配合非视频前缀排除。
	looseVideoIDRE = regexp.MustCompile(`"videoId":"([0-9A-Za-z_-]{11})"`)
)

// Blob 是策略一：桌面版列表页里嵌入的初始状态 JSON。
// 唯一能取到任意长播放列表的手段（其余手段都被上游截断），因此排第一。
// base 为空时指向正式站点；测试用它指向本地 server。
func Blob(base string) Strategy {
	return Strategy{
		Name: "blob",
		Run: func(ctx context.Context, list string, c *http.Client) ([]domain.VideoID, error) {
			html, err := fetchPage(ctx, c, playlistPageURL(base, list), false)
			if err != nil {
				return nil, err
			}
			return parseBlob(html), nil
		},
	}
}

// parseBlob 先定位 blob 边界，再取逐行渲染器下的 id；
// 严格模式一无所获时降级为宽松模式。纯函数。
func parseBlob(html []byte) []domain.VideoID {
	start := bytes.Index(html, blobStartMarker)
	if start < 0 {
		return nil
	}
	rest := html[start+len(blobStartMarker):]
	end := bytes.Index(rest, blobEndMarker)
	if end < 0 {
		return nil
	}
	blob := rest[:end]

	if ids := matchIDs(rowRendererRE, blob, false); len(ids) > 0 {
		return ids
	}
	return matchIDs(looseVideoIDRE, blob, true)
}

// matchIDs 跑一遍正则并做首见保序去重；excludeNonVideo 控制前缀排除。
func matchIDs(re *regexp.Regexp, b []byte, excludeNonVideo bool) []domain.VideoID {
	ms := re.FindAllSubmatch(b, -1)
	if len(ms) == 0 {
		return nil
	}
	out := make([]domain.VideoID, 0, len(ms))
	for _, m := range ms {
		if len(m) < 2 {
			continue
		}
		tok := string(m[1])
		id, ok := domain.ParseVideoID(tok)
		if !ok {
			continue
		}
		if excludeNonVideo && hasNonVideoPrefix(tok) {
			continue
		}
		out = append(out, id)
	}
	return dedupe(out)
}
