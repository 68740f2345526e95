package meta

import (
	"context"
	"net/http"

	"github.com/John-Robertt/YTCR/internal/domain"
)

// Synth 是级联的最后一级：完全离线的合成兜底。
// 标题 "Video <id>"，缩略图走确定性的 URL 模板，时长 0（未知哨兵）。
type Synth struct{}

func (Synth) Name() string { return "synth" }

// Fetch 不访问网络，载荷留空交给 Parse 合成。
func (Synth) Fetch(ctx context.Context, id domain.VideoID, c *http.Client) ([]byte, string, error) {
	return nil, "", nil
}

func (Synth) Parse(id domain.VideoID, payload []byte) (domain.VideoMeta, error) {
	return domain.Synthesized(id), nil
}
