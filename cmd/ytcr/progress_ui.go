package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/YTCR/internal/config"
	"github.com/John-Robertt/YTCR/internal/domain"
	"github.com/John-Robertt/YTCR/internal/resolve"
)

var _ resolve.Observer = (*progressUI)(nil)

// progressUI 是一个"简洁版"的交互终端进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：resolve 层只发事件，CLI 决定如何展示
// - keepalive：长时间无条目完成时也会定期输出一行，降低等待焦虑
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	course      string
	courseIdx   int
	courseTotal int
	itemDone    int
	itemTotal   int
	ok          int
	fail        int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(eff config.Effective) {
	now := time.Now()

	p.mu.Lock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	fmt.Fprintf(p.w, "[%s] YTCR resolve\n", now.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	if eff.OutDir == "" {
		fmt.Fprintln(p.w, "  out: off（不导出）")
	} else {
		fmt.Fprintf(p.w, "  out: %s\n", eff.OutDir)
		fmt.Fprintf(p.w, "  thumbs: %s\n", onOff(eff.Thumbs))
	}
	fmt.Fprintf(p.w, "  pacing_ms: %d\n", eff.PacingMS)
	fmt.Fprintf(p.w, "  request_timeout_ms: %d\n", eff.RequestTimeoutMS)
	fmt.Fprintf(p.w, "  proxy: %s\n", formatProxy(eff.ProxyURL))
	if eff.InsecureTLS {
		fmt.Fprintln(p.w, "  insecure_tls: on（仅对已知域名放宽，其余仍严格校验）")
	} else {
		fmt.Fprintln(p.w, "  insecure_tls: off")
	}
	fmt.Fprintf(p.w, "  strategies: %s\n", strategiesChain(eff.Strategies))
	fmt.Fprintln(p.w)

	p.lastPrinted = time.Now()
	if !p.tickerStarted {
		p.startTickerLocked()
	}
	p.mu.Unlock()
}

func (p *progressUI) OnStageDone(course, stage string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.course = course

	switch stage {
	case "classify":
		fmt.Fprintf(p.w, "%s 分类: kind=%s (%s)\n",
			truncate(course, 60), stringField(fields, "kind"), formatShortDuration(dur),
		)
	case "expand":
		fmt.Fprintf(p.w, "%s 展开: found=%d source=%s attempts=%d (%s)\n",
			truncate(course, 60),
			intField(fields, "found"),
			stringField(fields, "source"),
			intField(fields, "attempts"),
			formatShortDuration(dur),
		)
	case "title":
		fmt.Fprintf(p.w, "%s 标题: found=%s (%s)\n",
			truncate(course, 60), onOff(boolField(fields, "found")), formatShortDuration(dur),
		)
	default:
		// 兜底：未知阶段也不要静默（便于调试/演进）。
		fmt.Fprintf(p.w, "%s %s (%s)\n", truncate(course, 60), stage, formatShortDuration(dur))
	}

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnItemDone(course string, idx, total int, res domain.ItemResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.course = course
	p.itemDone = idx
	p.itemTotal = total

	percent := 0
	if total > 0 {
		percent = idx * 100 / total
	}

	if res.OK() {
		p.ok++
		fmt.Fprintf(p.w, "[%d/%d %d%%] %s OK source=%s %s%s (%s)\n",
			idx, total, percent, res.ID, res.Source,
			truncate(res.Title, 60), formatFallbackNote(res), formatShortDuration(dur),
		)
	} else {
		p.fail++
		chain := formatAttemptChain(res.Attempts, 1)
		if chain != "" {
			chain = " attempts=" + chain
		}
		fmt.Fprintf(p.w, "[%d/%d %d%%] %s FAIL %s: %s%s (%s)\n",
			idx, total, percent, res.ID, res.ErrorCode,
			truncate(res.ErrorMsg, 160), chain, formatShortDuration(dur),
		)
	}

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnCourseDone(idx, total int, rep domain.CourseReport, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.courseIdx = idx
	p.courseTotal = total

	key := rep.Key
	if key == "" {
		key = strings.TrimSpace(rep.Input)
	}

	switch rep.Status {
	case domain.StatusFailed:
		fmt.Fprintf(p.w, "课程 [%d/%d] %s FAIL %s: %s (%s)\n\n",
			idx, total, truncate(key, 60), rep.ErrorCode, truncate(rep.ErrorMsg, 160), formatShortDuration(dur),
		)
	default:
		okItems := 0
		for _, it := range rep.Items {
			if it.OK() {
				okItems++
			}
		}
		status := "OK"
		if rep.Status == domain.StatusPartial {
			status = "PARTIAL"
		}
		fmt.Fprintf(p.w, "课程 [%d/%d] %s %s items=%d/%d source=%s %s (%s)\n\n",
			idx, total, truncate(key, 60), status, okItems, len(rep.Items),
			rep.Source, truncate(rep.Title, 60), formatShortDuration(dur),
		)
	}

	p.lastPrinted = time.Now()

	// 最后一门完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.tickerStarted && p.courseIdx >= p.courseTotal {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				// 已完成：安全退出（OnCourseDone 会 close stopCh，但这里也做兜底）。
				if p.courseTotal > 0 && p.courseIdx >= p.courseTotal {
					p.mu.Unlock()
					return
				}

				if time.Since(p.lastPrinted) > threshold {
					elapsed := time.Since(p.startedAt)
					fmt.Fprintf(p.w, "进度: course=%s done=%d/%d ok=%d fail=%d elapsed=%s\n",
						truncate(p.course, 60), p.itemDone, p.itemTotal, p.ok, p.fail, formatElapsed(elapsed),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-p.stopCh:
				return
			}
		}
	}()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func strategiesChain(names []string) string {
	if len(names) == 0 {
		return "blob -> scrape -> feed -> mobile"
	}
	return strings.Join(names, " -> ")
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// formatFallbackNote 在条目成功但经历过降级时展示第一个失败来源的原因
// （只展示第一条，否则会变成噪音）。
func formatFallbackNote(res domain.ItemResult) string {
	if len(res.Attempts) < 2 {
		return ""
	}
	for _, a := range res.Attempts {
		if strings.TrimSpace(a.ErrorCode) == "" {
			continue
		}
		msg := strings.TrimSpace(a.ErrorMsg)
		if msg == "" {
			msg = a.ErrorCode
		} else {
			msg = a.ErrorCode + ": " + msg
		}
		return " fallback(" + strings.TrimSpace(a.Source) + " " + truncate(msg, 90) + ")"
	}
	return ""
}

func formatAttemptChain(attempts []domain.MetaAttempt, max int) string {
	if len(attempts) == 0 || max == 0 {
		return ""
	}
	if max < 0 {
		max = len(attempts)
	}
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		s := strings.TrimSpace(a.Source)
		if ec := strings.TrimSpace(a.ErrorCode); ec != "" {
			s += ":" + ec
		}
		if em := strings.TrimSpace(a.ErrorMsg); em != "" {
			s += ":" + truncate(em, 80)
		}
		parts = append(parts, s)
		if len(parts) >= max {
			break
		}
	}
	return strings.Join(parts, ";")
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	default:
		return 0
	}
}

func stringField(fields map[string]any, key string) string {
	if fields == nil {
		return ""
	}
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}

func boolField(fields map[string]any, key string) bool {
	if fields == nil {
		return false
	}
	if b, ok := fields[key].(bool); ok {
		return b
	}
	return false
}
