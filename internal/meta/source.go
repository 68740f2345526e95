// Package meta 把"单个视频 id → 标题/缩略图/时长"的级联解析收敛在一起。
// 级联整体永不失败：网络完全不可达时也会落到离线合成兜底。
package meta

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/John-Robertt/YTCR/internal/domain"
	"github.com/John-Robertt/YTCR/internal/infra/httpx"
)

// Source 把"端点变化"限制在 meta 包内部；核心流程只依赖统一接口与稳定的 VideoMeta。
//
// 约束：
// - Fetch 不做缓存、不做重试、不做限速（网络策略由 httpx 统一实现）
// - Parse 必须是纯函数：相同输入 => 相同输出
// - srcURL 用于 error_msg 与 report 追溯
type Source interface {
	Name() string
	Fetch(ctx context.Context, id domain.VideoID, c *http.Client) (payload []byte, srcURL string, err error)
	Parse(id domain.VideoID, payload []byte) (domain.VideoMeta, error)
}

// Defaults 返回级联的固定顺序：oembed → noembed → synth。
// 顺序即契约：越靠前越可信；最后一级离线合成，不可能失败。
func Defaults() []Source {
	return []Source{OEmbed{}, NoEmbed{}, Synth{}}
}

// ResolveTrace 按顺序尝试各 Source，第一个成功者胜出。
//
// 该函数不返回 error：即使调用方传入的列表全部失败，也会落到合成记录
// （used="synth"）。attempts 记录每一次尝试（含成功的最后一条，
// ErrorCode 为空），用于解释级联为什么降级。
func ResolveTrace(ctx context.Context, sources []Source, id domain.VideoID, c *http.Client) (meta domain.VideoMeta, used string, attempts []domain.MetaAttempt) {
	for _, s := range sources {
		name := strings.ToLower(strings.TrimSpace(s.Name()))

		payload, _, ferr := s.Fetch(ctx, id, c)
		if ferr != nil {
			attempts = append(attempts, domain.MetaAttempt{
				Source:    name,
				ErrorCode: domain.ErrCodeFetchFailed,
				ErrorMsg:  ferr.Error(),
			})
			continue
		}

		m, perr := s.Parse(id, payload)
		if perr != nil {
			attempts = append(attempts, domain.MetaAttempt{
				Source:    name,
				ErrorCode: domain.ErrCodeParseFailed,
				ErrorMsg:  perr.Error(),
			})
			continue
		}

		attempts = append(attempts, domain.MetaAttempt{Source: name})
		return m, name, attempts
	}

	// Defaults 的最后一级理论上走不到这里；兜底是为了让"永不失败"
	// 成为函数自身的性质，而不是对调用方列表的信任。
	attempts = append(attempts, domain.MetaAttempt{Source: "synth"})
	return domain.Synthesized(id), "synth", attempts
}

// fetchJSON 是 oembed / noembed 共用的抓取骨架：GET + 状态码归一化。
func fetchJSON(ctx context.Context, c *http.Client, u string) ([]byte, error) {
	if c == nil {
		return nil, errors.New("http client 不能为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := httpx.CheckStatus(resp); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, errors.New("empty response body")
	}
	return b, nil
}
