package meta

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/John-Robertt/YTCR/internal/domain"
)

// NoEmbed 是级联第二级：开放的嵌入信息聚合端点。
// schema 刻意宽容——只要载荷是 JSON，缺哪个字段就兜底哪个字段。
type NoEmbed struct {
	// BaseURL 为空时指向公共端点；测试用它指向本地 server。
	BaseURL string
}

func (NoEmbed) Name() string { return "noembed" }

func (s NoEmbed) Fetch(ctx context.Context, id domain.VideoID, c *http.Client) ([]byte, string, error) {
	if id == "" {
		return nil, "", errors.New("id 不能为空")
	}
	base := s.BaseURL
	if base == "" {
		base = "https://noembed.com/embed"
	}
	u := base + "?url=" + url.QueryEscape(id.WatchURL())
	b, err := fetchJSON(ctx, c, u)
	return b, u, err
}

// Parse 宽容：字段缺失（包括端点返回 {"error": ...} 的情况）按字段回退到
// 合成标题/合成缩略图，而不是整级失败。只有非 JSON 载荷才算解析失败。
func (NoEmbed) Parse(id domain.VideoID, payload []byte) (domain.VideoMeta, error) {
	if len(payload) == 0 {
		return domain.VideoMeta{}, errors.New("载荷为空")
	}
	var p struct {
		Title        string  `json:"title"`
		ThumbnailURL string  `json:"thumbnail_url"`
		Duration     float64 `json:"duration"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return domain.VideoMeta{}, err
	}

	m := domain.Synthesized(id)
	if t := strings.TrimSpace(p.Title); t != "" {
		m.Title = t
	}
	if u := strings.TrimSpace(p.ThumbnailURL); u != "" {
		m.ThumbURL = u
	}
	if p.Duration > 0 {
		m.DurationS = int(p.Duration)
	}
	return m, nil
}
