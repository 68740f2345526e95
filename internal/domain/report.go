package domain

import (
	"encoding/json"
	"time"
)

const (
	// StatusResolved 表示课程（或单条）完整解析成功。
	StatusResolved = "resolved"
	// StatusPartial 表示课程成功但有条目彻底失败（结果比 id 列表短）。
	StatusPartial = "partial"
	// StatusFailed 表示课程级失败（无效引用 / 展开失败 / 全部条目失败）。
	StatusFailed = "failed"
)

const (
	FileStatusPlanned = "planned"
	FileStatusWritten = "written"
	FileStatusSkipped = "skipped"
	FileStatusFailed  = "failed"
)

const (
	FileKindCourseJSON = "course_json"
	FileKindThumb      = "thumb"
)

const (
	// ErrCodeInvalidReference：输入无法分类为视频或播放列表。
	ErrCodeInvalidReference = "invalid_reference"
	// ErrCodePlaylistEmpty：四个策略全空且没有可用 seed。
	ErrCodePlaylistEmpty = "playlist_empty"
	// ErrCodeNoItemsResolved：展开得到 id，但每一条的元数据解析都彻底失败。
	ErrCodeNoItemsResolved = "no_items_resolved"
	// ErrCodeCancelled：调用方在条目之间放弃了本次解析。
	ErrCodeCancelled = "cancelled"

	// 阶段级 code（只出现在 attempts 轨迹里，不会成为课程级失败）。
	ErrCodeFetchFailed = "fetch_failed"
	ErrCodeParseFailed = "parse_failed"
	ErrCodeEmptyResult = "empty_result"
	ErrCodeBlocked     = "blocked"

	ErrCodeConfigInvalid  = "config_invalid"
	ErrCodeIOFailed       = "io_failed"
	ErrCodeTargetConflict = "target_conflict"
)

// 课程 id 列表的来源标记（CourseReport.Source）。
const (
	SourceSeed   = "seed"   // 展开全空，回退到分类时捕获的 seed id
	SourceSingle = "single" // 输入本身是单视频引用
)

// ExpandAttempt 记录一次展开策略的尝试（用于解释为什么走到了后面的策略）。
type ExpandAttempt struct {
	Strategy  string `json:"strategy"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
	Found     int    `json:"found"`
}

// MetaAttempt 记录一次元数据来源的尝试（级联为什么降级）。
type MetaAttempt struct {
	Source    string `json:"source"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// RunReport 是对外稳定输出（stdout JSON / course.json 汇总）的结构。
type RunReport struct {
	RunID string `json:"run_id"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary RunSummary     `json:"summary"`
	Courses []CourseReport `json:"courses"`
}

type RunSummary struct {
	Resolved int `json:"resolved"`
	Partial  int `json:"partial"`
	Failed   int `json:"failed"`

	Items       int `json:"items"`
	ItemsFailed int `json:"items_failed"`

	// FilesFailed 统计导出阶段的产物写入失败（课程本身可能仍是 resolved）。
	FilesFailed int `json:"files_failed"`
}

// CourseReport 是一次课程解析（一个输入引用）的完整结果。
//
// 约束：Items 保持解析顺序——顺序本身就是引擎契约的一部分
// （id 顺序来自胜出策略的发现顺序，元数据解析不改变它），禁止排序。
type CourseReport struct {
	Input string `json:"input"`
	Key   string `json:"key"`

	RefKind  string   `json:"ref_kind"`
	Playlist string   `json:"playlist,omitempty"`
	Seeds    []string `json:"seeds,omitempty"`

	Title    string `json:"title"`
	ThumbURL string `json:"thumbnail_url"`

	// Source 标记 id 列表来自哪个策略（blob/scrape/feed/mobile），
	// 或 "seed"（兜底）/"single"（单视频输入）。
	Source string `json:"source"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	ExpandAttempts []ExpandAttempt `json:"expand_attempts"`
	Items          []ItemResult    `json:"items"`
	Files          []FileResult    `json:"files"`
}

// ItemResult 是单个视频条目的解析结果。
type ItemResult struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ThumbURL  string `json:"thumbnail_url"`
	DurationS int    `json:"duration_s"`

	// Source 标记元数据来自级联的哪一级（oembed/noembed/synth）。
	Source string `json:"source"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Attempts []MetaAttempt `json:"attempts"`
}

// FileResult 是导出阶段对单个产物文件的处置结果。
// 文件失败不冲掉课程级状态（课程状态只描述解析），原因记在 ErrorCode/ErrorMsg。
type FileResult struct {
	Path      string `json:"path"` // 相对 out 根目录
	Kind      string `json:"kind"` // "course_json" | "thumb"
	Status    string `json:"status"`
	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

// OK 表示该条目拿到了可用元数据（合成兜底也算成功——这是契约）。
func (it ItemResult) OK() bool {
	return it.Status == StatusResolved
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) summary 由 courses/items 计算得出
//
// 注意：与条目顺序相关的任何排序都被刻意排除在外（见 CourseReport 约束）。
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	var s RunSummary
	for i := range r.Courses {
		c := &r.Courses[i]
		switch c.Status {
		case StatusResolved:
			s.Resolved++
		case StatusPartial:
			s.Partial++
		case StatusFailed:
			s.Failed++
		}
		for _, it := range c.Items {
			s.Items++
			if !it.OK() {
				s.ItemsFailed++
			}
		}
		for _, f := range c.Files {
			if f.Status == FileStatusFailed {
				s.FilesFailed++
			}
		}
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
