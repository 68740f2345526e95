package expand

import (
	"context"
	"net/http"
	"regexp"

	"github.com/John-Robertt/YTCR/internal/domain"
)

// 三条互相独立的全文模式：videoId 字段、JSON 里的 watch 路径、裸 watch 路径。
// 按声明顺序合并（首见保序），站点结构漂移时三条里活一条就够。
var scrapePatterns = []*regexp.Regexp{
	regexp.MustCompile(`"videoId":"([0-9A-Za-z_-]{11})"`),
	regexp.MustCompile(`"url":"/watch\?v=([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`/watch\?v=([0-9A-Za-z_-]{11})`),
}

// Scrape 是策略二：不定位 blob，直接对整页 HTML 跑模式匹配。
// blob 标记漂移时的第一道退路，取同一张桌面版列表页。
func Scrape(base string) Strategy {
	return Strategy{
		Name: "scrape",
		Run: func(ctx context.Context, list string, c *http.Client) ([]domain.VideoID, error) {
			html, err := fetchPage(ctx, c, playlistPageURL(base, list), false)
			if err != nil {
				return nil, err
			}
			return parseScrapeAll(html), nil
		},
	}
}

// parseScrapeAll 依次跑三条模式并合并，去重首见保序，排除非视频前缀。纯函数。
func parseScrapeAll(html []byte) []domain.VideoID {
	var merged []domain.VideoID
	for _, re := range scrapePatterns {
		merged = append(merged, matchIDs(re, html, true)...)
	}
	return dedupe(merged)
}
