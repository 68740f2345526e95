package resolve

import (
	"time"

	"github.com/John-Robertt/YTCR/internal/config"
	"github.com/John-Robertt/YTCR/internal/domain"
)

// Observer 把"运行进度/阶段/条目结果"从核心解析流程中解耦出来。
//
// 约束：
// - resolve 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - Observer 的实现必须并发安全：调用方可能自带 ticker 线程。
// - obs 为 nil 时静默运行：引擎没有日志，可观测性只走事件 + 结构化报告。
type Observer interface {
	// OnStart 在 Execute 开始时调用（应尽量早，保证用户 1 秒内看到输出）。
	OnStart(eff config.Effective)
	// OnStageDone 在某课程的一个阶段（classify/expand/title）结束时调用。
	// course 是课程标识（key；无效输入时回退为原始输入）。
	OnStageDone(course, stage string, fields map[string]any, dur time.Duration)
	// OnItemDone 在某条目解析完成时调用；进度分数 = idx/total。
	OnItemDone(course string, idx, total int, res domain.ItemResult, dur time.Duration)
	// OnCourseDone 在一条输入引用处理完成（含导出）时调用。
	OnCourseDone(idx, total int, rep domain.CourseReport, dur time.Duration)
}
