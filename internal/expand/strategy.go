// Package expand 把"播放列表 id → 有序去重的视频 id 列表"的四种提取手段
// 收敛为一条固定顺序的策略链。数据源不提供稳定 API，每种手段都脆弱，
// 所以设计为相互独立、先成先得：前面的策略拿到非空结果，后面的不再执行。
package expand

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/John-Robertt/YTCR/internal/domain"
)

// Strategy 是一种独立的提取手段。刻意用"具名闭包"而不是接口层级：
// 提取模式随站点漂移需要频繁换血，换一条 Run 不应牵动编排逻辑。
type Strategy struct {
	Name string
	Run  func(ctx context.Context, list string, c *http.Client) ([]domain.VideoID, error)
}

// ErrExhausted 表示四种策略全部空手而归（编排层据此走 seed 兜底）。
var ErrExhausted = errors.New("所有策略都未提取到任何视频 id")

// Defaults 返回固定的策略顺序：blob → scrape → feed → mobile。
// blob 最靠前：它是唯一能取到任意长列表的手段；feed 被上游截断在
// 最近 15 条左右，只配当兜底。
func Defaults() []Strategy {
	return []Strategy{Blob(""), Scrape(""), Feed(""), Mobile("")}
}

// Select 按名字构造策略顺序，供配置层裁剪/重排提取手段。
// 未知名与重名是配置错误；空列表等价于 Defaults。
func Select(names []string) ([]Strategy, error) {
	if len(names) == 0 {
		return Defaults(), nil
	}
	known := map[string]func() Strategy{
		"blob":   func() Strategy { return Blob("") },
		"scrape": func() Strategy { return Scrape("") },
		"feed":   func() Strategy { return Feed("") },
		"mobile": func() Strategy { return Mobile("") },
	}
	seen := make(map[string]bool, len(names))
	out := make([]Strategy, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			return nil, fmt.Errorf("策略名不能为空")
		}
		mk, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("未知策略：%q", raw)
		}
		if seen[name] {
			return nil, fmt.Errorf("重复的策略：%q", raw)
		}
		seen[name] = true
		out = append(out, mk())
	}
	return out, nil
}

// Expand 依次尝试各策略，第一个非空结果胜出（不合并、不投票）。
//
// 每个策略自己消化传输/解析错误：失败只会变成一条 attempt 记录，
// 级联继续往后走。只有全部策略空手而归才返回 ErrExhausted。
// 返回的 id 列表保证无重复，且保持胜出策略的发现顺序。
func Expand(ctx context.Context, strategies []Strategy, list string, c *http.Client) ([]domain.VideoID, []domain.ExpandAttempt, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil, errors.New("playlist id 不能为空")
	}

	var attempts []domain.ExpandAttempt
	for _, s := range strategies {
		ids, err := s.Run(ctx, list, c)
		if err != nil {
			attempts = append(attempts, domain.ExpandAttempt{
				Strategy:  s.Name,
				ErrorCode: classifyErr(err),
				ErrorMsg:  err.Error(),
			})
			continue
		}
		if len(ids) == 0 {
			attempts = append(attempts, domain.ExpandAttempt{
				Strategy:  s.Name,
				ErrorCode: domain.ErrCodeEmptyResult,
				ErrorMsg:  "未提取到任何视频 id",
			})
			continue
		}
		attempts = append(attempts, domain.ExpandAttempt{Strategy: s.Name, Found: len(ids)})
		return ids, attempts, nil
	}
	return nil, attempts, ErrExhausted
}

func classifyErr(err error) string {
	var be *BlockedError
	if errors.As(err, &be) {
		return domain.ErrCodeBlocked
	}
	var pe *parseError
	if errors.As(err, &pe) {
		return domain.ErrCodeParseFailed
	}
	return domain.ErrCodeFetchFailed
}

// parseError 标记"载荷拿到了但解析不动"（与网络失败分开归类）。
type parseError struct{ err error }

func (e *parseError) Error() string { return e.err.Error() }
func (e *parseError) Unwrap() error { return e.err }

// nonVideoPrefixes 是宽松模式下要排除的已知非视频 id 前缀：
// PL/UU/LL/OLAK5uy_ 播放列表、UC 频道、RD 电台歌单。
var nonVideoPrefixes = []string{"PL", "UU", "LL", "OLAK5uy_", "UC", "RD"}

func hasNonVideoPrefix(tok string) bool {
	for _, p := range nonVideoPrefixes {
		if strings.HasPrefix(tok, p) {
			return true
		}
	}
	return false
}

// dedupe 保序去重（首见保留）。
func dedupe(in []domain.VideoID) []domain.VideoID {
	seen := make(map[domain.VideoID]struct{}, len(in))
	out := make([]domain.VideoID, 0, len(in))
	for _, id := range in {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
