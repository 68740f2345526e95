// Package resolve 是引擎的编排层：分类 → 展开 → 条目级联 → 报告。
// 错误尽量"降级"为课程/条目级记录（单条失败不影响其他），
// 函数自身不返回 error：结果永远是一份结构化报告。
package resolve

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/John-Robertt/YTCR/internal/config"
	"github.com/John-Robertt/YTCR/internal/domain"
	"github.com/John-Robertt/YTCR/internal/expand"
	"github.com/John-Robertt/YTCR/internal/export"
	"github.com/John-Robertt/YTCR/internal/infra/httpx"
	"github.com/John-Robertt/YTCR/internal/meta"
	"github.com/John-Robertt/YTCR/internal/ref"
)

// Input 是一条待解析的输入引用。
// Title 非空时直接作为课程标题（跳过页面探测）；CLI 不暴露该字段，
// 它是给库调用方自带命名用的。
type Input struct {
	Raw   string
	Title string
}

// Deps 聚合一次运行共享的依赖。
//
// 约束：整个运行周期只构造一个 http.Client，逐层注入
// （连接复用依赖该行为；见 httpx 包）。
type Deps struct {
	Client     *http.Client
	Sources    []meta.Source
	Strategies []expand.Strategy

	// Pace 是条目之间的固定停顿（令牌桶容量 1：首条不等待）。
	// nil 表示不停顿，但条目之间仍检查取消。
	Pace *rate.Limiter

	// Title 机会性读取播放列表页标题；nil 表示关闭探测。
	Title func(ctx context.Context, list string, c *http.Client) string
}

// NewDeps 按最终配置构造默认依赖集。
func NewDeps(eff config.Effective) (Deps, error) {
	c, err := httpx.New(httpx.Options{
		ProxyURL:    eff.ProxyURL,
		InsecureTLS: eff.InsecureTLS,
		Timeout:     time.Duration(eff.RequestTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		return Deps{}, err
	}
	strategies, err := expand.Select(eff.Strategies)
	if err != nil {
		return Deps{}, err
	}

	// rate.Every(0) 即不限速，因此 pacing=0 也走同一路径。
	lim := rate.NewLimiter(rate.Every(time.Duration(eff.PacingMS)*time.Millisecond), 1)

	return Deps{
		Client:     c,
		Sources:    meta.Defaults(),
		Strategies: strategies,
		Pace:       lim,
		Title: func(ctx context.Context, list string, c *http.Client) string {
			return expand.Title(ctx, "", list, c)
		},
	}, nil
}

// Execute 构造默认依赖并解析整个批次，返回对外稳定的 RunReport。
func Execute(ctx context.Context, eff config.Effective, inputs []Input, obs Observer) domain.RunReport {
	started := time.Now().UTC()
	if obs != nil {
		obs.OnStart(eff)
	}

	deps, err := NewDeps(eff)
	if err != nil {
		rr := newRunReport(started)
		rr.Courses = append(rr.Courses, syntheticFailed(domain.ErrCodeConfigInvalid, fmt.Sprintf("配置无效：%v", err)))
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}
	return run(ctx, eff, deps, inputs, obs, started)
}

// ExecuteWithDeps 与 Execute 相同，但依赖集由调用方提供（注入点）。
func ExecuteWithDeps(ctx context.Context, eff config.Effective, deps Deps, inputs []Input, obs Observer) domain.RunReport {
	started := time.Now().UTC()
	if obs != nil {
		obs.OnStart(eff)
	}
	return run(ctx, eff, deps, inputs, obs, started)
}

func run(ctx context.Context, eff config.Effective, deps Deps, inputs []Input, obs Observer, started time.Time) domain.RunReport {
	rr := newRunReport(started)

	var store export.Store
	if eff.OutDir != "" {
		store = export.New(eff.OutDir)
	}

	// 课程串行：解析压力由 Pace 统一控制，不做跨课程并发。
	for i, in := range inputs {
		courseStarted := time.Now()
		rep := Course(ctx, eff, deps, in, obs)
		if eff.OutDir != "" && rep.Status != domain.StatusFailed {
			rep.Files = export.Apply(ctx, store, rep, eff.Thumbs, deps.Client)
		}
		rr.Courses = append(rr.Courses, rep)
		if obs != nil {
			obs.OnCourseDone(i+1, len(inputs), rep, time.Since(courseStarted))
		}
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

func newRunReport(started time.Time) domain.RunReport {
	return domain.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: started,
		Courses:   []domain.CourseReport{},
	}
}

// Course 解析一条输入引用：分类 → （播放列表）展开 → 条目级联 → 状态归纳。
func Course(ctx context.Context, eff config.Effective, deps Deps, in Input, obs Observer) domain.CourseReport {
	rep := domain.CourseReport{
		Input:          in.Raw,
		ExpandAttempts: []domain.ExpandAttempt{},
		Items:          []domain.ItemResult{},
		Files:          []domain.FileResult{},
	}

	classifyStarted := time.Now()
	r := ref.Classify(in.Raw)
	rep.RefKind = string(r.Kind)
	rep.Key = r.Key()

	// 无效输入没有 key，事件用原始输入定位。
	label := rep.Key
	if label == "" {
		label = strings.TrimSpace(in.Raw)
	}
	if obs != nil {
		obs.OnStageDone(label, "classify", map[string]any{"kind": string(r.Kind)}, time.Since(classifyStarted))
	}

	if !r.IsValid() {
		rep.Status = domain.StatusFailed
		rep.ErrorCode = domain.ErrCodeInvalidReference
		rep.ErrorMsg = "无效的链接或视频 id"
		return rep
	}

	// 批次中途取消后，排在后面的课程不再发起任何网络请求。
	if ctx.Err() != nil {
		rep.Status = domain.StatusFailed
		rep.ErrorCode = domain.ErrCodeCancelled
		rep.ErrorMsg = "解析被取消"
		return rep
	}

	var ids []domain.VideoID
	switch r.Kind {
	case domain.RefVideo:
		ids = []domain.VideoID{r.Video}
		rep.Source = domain.SourceSingle

	case domain.RefPlaylist:
		rep.Playlist = r.Playlist
		for _, s := range r.Seeds {
			rep.Seeds = append(rep.Seeds, string(s))
		}

		expandStarted := time.Now()
		got, attempts, err := expand.Expand(ctx, deps.Strategies, r.Playlist, deps.Client)
		rep.ExpandAttempts = append(rep.ExpandAttempts, attempts...)
		if err == nil {
			ids = got
			// Expand 保证成功时最后一条 attempt 就是胜出策略。
			rep.Source = attempts[len(attempts)-1].Strategy
		} else if len(r.Seeds) > 0 {
			ids = append(ids, r.Seeds...)
			rep.Source = domain.SourceSeed
		}
		if obs != nil {
			obs.OnStageDone(label, "expand", map[string]any{
				"found":    len(ids),
				"source":   rep.Source,
				"attempts": len(attempts),
			}, time.Since(expandStarted))
		}

		if len(ids) == 0 {
			rep.Status = domain.StatusFailed
			rep.ErrorCode = domain.ErrCodePlaylistEmpty
			rep.ErrorMsg = "未能获取播放列表视频，试试逐个添加视频"
			return rep
		}
	}

	// 课程标题：调用方指定 > 页面探测 > 第一个成功条目（循环后兜底）。
	// seed 兜底意味着站点当前不可达，页面探测只会白白多一次失败请求。
	if t := strings.TrimSpace(in.Title); t != "" {
		rep.Title = t
	} else if r.Kind == domain.RefPlaylist && rep.Source != domain.SourceSeed && deps.Title != nil {
		titleStarted := time.Now()
		rep.Title = deps.Title(ctx, r.Playlist, deps.Client)
		if obs != nil {
			obs.OnStageDone(label, "title", map[string]any{"found": rep.Title != ""}, time.Since(titleStarted))
		}
	}

	total := len(ids)
	okCount := 0
	cancelled := false
	for i, id := range ids {
		if err := pause(ctx, deps.Pace); err != nil {
			cancelled = true
			break
		}

		itemStarted := time.Now()
		res, callerGone := resolveItem(ctx, eff, deps, id)
		if res.OK() {
			okCount++
		}
		rep.Items = append(rep.Items, res)
		if obs != nil {
			obs.OnItemDone(label, i+1, total, res, time.Since(itemStarted))
		}
		if callerGone {
			cancelled = true
			break
		}
	}

	// 标题/封面的条目兜底。
	if rep.Title == "" {
		for _, it := range rep.Items {
			if it.OK() {
				rep.Title = it.Title
				break
			}
		}
	}
	for _, it := range rep.Items {
		if it.OK() {
			rep.ThumbURL = it.ThumbURL
			break
		}
	}

	switch {
	case cancelled:
		rep.Status = domain.StatusFailed
		rep.ErrorCode = domain.ErrCodeCancelled
		rep.ErrorMsg = "解析被取消"
	case okCount == 0:
		rep.Status = domain.StatusFailed
		rep.ErrorCode = domain.ErrCodeNoItemsResolved
		rep.ErrorMsg = "没有解析出任何视频"
	case okCount < total:
		rep.Status = domain.StatusPartial
	default:
		rep.Status = domain.StatusResolved
	}
	return rep
}

// Single 解析单个视频引用为一条 ItemResult（不走课程/报告编排）。
// 播放列表输入对该操作无效。
func Single(ctx context.Context, eff config.Effective, deps Deps, raw string) domain.ItemResult {
	r := ref.Classify(raw)
	if r.Kind != domain.RefVideo {
		msg := "无效的链接或视频 id"
		if r.Kind == domain.RefPlaylist {
			msg = "期望单个视频，实际是播放列表引用"
		}
		return domain.ItemResult{
			Status:    domain.StatusFailed,
			ErrorCode: domain.ErrCodeInvalidReference,
			ErrorMsg:  msg,
			Attempts:  []domain.MetaAttempt{},
		}
	}
	res, _ := resolveItem(ctx, eff, deps, r.Video)
	return res
}

// resolveItem 解析单个视频条目的元数据。
// 第二个返回值表示调用方已取消（此时不把离线合成兜底记成成功，
// 调用方应停止整个循环）。
func resolveItem(ctx context.Context, eff config.Effective, deps Deps, id domain.VideoID) (res domain.ItemResult, callerGone bool) {
	itemCtx, cancel := context.WithTimeout(ctx, itemBudget(eff))
	m, used, attempts := meta.ResolveTrace(itemCtx, deps.Sources, id, deps.Client)
	expired := itemCtx.Err() != nil
	cancel()

	if expired {
		res = domain.ItemResult{
			ID:        string(id),
			Status:    domain.StatusFailed,
			ErrorCode: domain.ErrCodeCancelled,
			Attempts:  attempts,
		}
		if ctx.Err() != nil {
			res.ErrorMsg = "解析被取消"
			return res, true
		}
		res.ErrorMsg = "条目超出时间上限，已放弃"
		return res, false
	}

	return domain.ItemResult{
		ID:        string(id),
		Title:     m.Title,
		ThumbURL:  m.ThumbURL,
		DurationS: m.DurationS,
		Source:    used,
		Status:    domain.StatusResolved,
		Attempts:  attempts,
	}, false
}

// itemBudget 是单条目的时间上限：两级网络来源各自的请求超时，
// 加上固定零头（合成兜底与调度开销）。
func itemBudget(eff config.Effective) time.Duration {
	t := time.Duration(eff.RequestTimeoutMS) * time.Millisecond
	if t <= 0 {
		t = time.Duration(config.DefaultRequestTimeoutMS) * time.Millisecond
	}
	return 2*t + 250*time.Millisecond
}

// pause 在条目之间应用固定停顿；ctx 取消时立刻返回。
func pause(ctx context.Context, lim *rate.Limiter) error {
	if lim == nil {
		return ctx.Err()
	}
	return lim.Wait(ctx)
}

func syntheticFailed(code, msg string) domain.CourseReport {
	return domain.CourseReport{
		Status:         domain.StatusFailed,
		ErrorCode:      code,
		ErrorMsg:       msg,
		ExpandAttempts: []domain.ExpandAttempt{},
		Items:          []domain.ItemResult{},
		Files:          []domain.FileResult{},
	}
}
