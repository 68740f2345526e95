package expand

import (
	"context"
	"net/http"
	"net/url"
	"regexp"

	"github.com/John-Robertt/YTCR/internal/domain"
)

// 旧版移动端页面用下划线命名：video_id。
var mobileVideoIDRE = regexp.MustCompile(`"video_id":"([0-9A-Za-z_-]{11})"`)

// Mobile 是策略四：移动端列表页（移动 UA 才会返回旧版结构）。
// 注意：该端点不保证条目顺序，产出按文档内首见序返回，仅作最后手段。
func Mobile(base string) Strategy {
	return Strategy{
		Name: "mobile",
		Run: func(ctx context.Context, list string, c *http.Client) ([]domain.VideoID, error) {
			b := base
			if b == "" {
				b = "https://m.youtube.com"
			}
			u := b + "/playlist?list=" + url.QueryEscape(list) + "&app=m"
			html, err := fetchPage(ctx, c, u, true)
			if err != nil {
				return nil, err
			}
			return matchIDs(mobileVideoIDRE, html, false), nil
		},
	}
}
