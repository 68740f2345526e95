package expand

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Title 尝试读取播放列表页的标题：og:title 优先，<title> 兜底。
// 供编排层机会性地给课程命名；任何失败都只返回空串，不产生课程级错误。
func Title(ctx context.Context, base, list string, c *http.Client) string {
	html, err := fetchPage(ctx, c, playlistPageURL(base, list), false)
	if err != nil {
		return ""
	}
	return parseTitle(html)
}

// parseTitle 纯函数。站点兜底标题（纯 "YouTube"）视同没有标题。
func parseTitle(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}

	if t, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if t = strings.TrimSpace(t); t != "" && t != "YouTube" {
			return t
		}
	}

	t := strings.TrimSpace(doc.Find("title").First().Text())
	t = strings.TrimSpace(strings.TrimSuffix(t, "- YouTube"))
	if t == "" || t == "YouTube" {
		return ""
	}
	return t
}
