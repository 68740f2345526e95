package domain

// VideoMeta 是元数据级联解析得到的展示信息（最小可用集）。
//
// 约束：
// - DurationS==0 是合法的"未知"哨兵：解析阶段拿不到时长时不猜测，
//   由播放器在真实播放后回填（外部协作方职责，不在本引擎内）
// - 字段缺失允许回退为合成值，但结构必须稳定（调用方直接落库/渲染）
// - 引擎不缓存 VideoMeta：所有权在调用方，每次解析都是新鲜构造
type VideoMeta struct {
	ID        VideoID `json:"id"`
	Title     string  `json:"title"`
	ThumbURL  string  `json:"thumbnail_url"`
	DurationS int     `json:"duration_s"`
}

// Synthesized 返回完全离线合成的兜底元数据。
// 该构造永不失败，是 "resolveMetadata 绝不抛错" 契约的最后一环。
func Synthesized(id VideoID) VideoMeta {
	return VideoMeta{
		ID:       id,
		Title:    "Video " + string(id),
		ThumbURL: id.ThumbURL(),
	}
}
