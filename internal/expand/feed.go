package expand

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"

	"github.com/John-Robertt/YTCR/internal/domain"
)

// Feed 是策略三：播放列表的订阅源（Atom XML）。
// 结构最稳定，但被上游截断在最近 15 条左右，只能当兜底。
func Feed(base string) Strategy {
	return Strategy{
		Name: "feed",
		Run: func(ctx context.Context, list string, c *http.Client) ([]domain.VideoID, error) {
			b := base
			if b == "" {
				b = "https://www.youtube.com"
			}
			u := b + "/feeds/videos.xml?playlist_id=" + url.QueryEscape(list)
			payload, err := fetchPage(ctx, c, u, false)
			if err != nil {
				return nil, err
			}
			ids, err := parseFeed(payload)
			if err != nil {
				return nil, &parseError{err: fmt.Errorf("解析订阅源失败：%w", err)}
			}
			return ids, nil
		},
	}
}

// parseFeed 从 Atom 条目里取 yt:videoId。纯函数；非法 XML 返回错误。
func parseFeed(payload []byte) ([]domain.VideoID, error) {
	var doc struct {
		Entries []struct {
			VideoID string `xml:"videoId"`
		} `xml:"entry"`
	}
	if err := xml.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}

	out := make([]domain.VideoID, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		if id, ok := domain.ParseVideoID(e.VideoID); ok {
			out = append(out, id)
		}
	}
	return dedupe(out), nil
}
