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

// OEmbed 是级联第一级：官方 oEmbed 端点。结构化 JSON，最稳定，因此最靠前。
type OEmbed struct {
	// BaseURL 为空时指向官方端点；测试用它指向本地 server。
	BaseURL string
}

func (OEmbed) Name() string { return "oembed" }

func (s OEmbed) Fetch(ctx context.Context, id domain.VideoID, c *http.Client) ([]byte, string, error) {
	if id == "" {
		return nil, "", errors.New("id 不能为空")
	}
	base := s.BaseURL
	if base == "" {
		base = "https://www.youtube.com/oembed"
	}
	u := base + "?url=" + url.QueryEscape(id.WatchURL()) + "&format=json"
	b, err := fetchJSON(ctx, c, u)
	return b, u, err
}

// Parse 严格校验：title 与 thumbnail_url 缺一不可。
// 半空载荷交给更宽容的下一级，而不是在最可信的一级上将就。
func (OEmbed) Parse(id domain.VideoID, payload []byte) (domain.VideoMeta, error) {
	if len(payload) == 0 {
		return domain.VideoMeta{}, errors.New("载荷为空")
	}
	var p struct {
		Title        string `json:"title"`
		ThumbnailURL string `json:"thumbnail_url"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return domain.VideoMeta{}, err
	}

	title := strings.TrimSpace(p.Title)
	thumb := strings.TrimSpace(p.ThumbnailURL)
	if title == "" {
		return domain.VideoMeta{}, errors.New("载荷缺少 title")
	}
	if thumb == "" {
		return domain.VideoMeta{}, errors.New("载荷缺少 thumbnail_url")
	}
	return domain.VideoMeta{ID: id, Title: title, ThumbURL: thumb}, nil
}
