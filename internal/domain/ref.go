package domain

// RefKind 标记一次分类的结果形态。
type RefKind string

const (
	RefInvalid  RefKind = "invalid"
	RefVideo    RefKind = "video"
	RefPlaylist RefKind = "playlist"
)

// Reference 是用户输入（URL / 裸 id / 任意文本）分类后的形态。
//
// 约束：
// - 每次解析调用现场构造，不持久化（引擎不保存任何跨请求状态）
// - Seeds 只是"从同一 URL 顺带恢复出的视频 id"，仅作 Expander 全部落空时的
//   最后兜底，绝不能当作主数据源
type Reference struct {
	Kind RefKind

	// Video 仅在 Kind==RefVideo 时有值。
	Video VideoID

	// Playlist / Seeds 仅在 Kind==RefPlaylist 时有值。
	Playlist string
	Seeds    []VideoID
}

// IsValid 表示该引用可以进入解析流程。
func (r Reference) IsValid() bool {
	return r.Kind == RefVideo || r.Kind == RefPlaylist
}

// Key 返回该引用的稳定标识（导出目录名、report 定位锚点都用它）。
func (r Reference) Key() string {
	switch r.Kind {
	case RefVideo:
		return string(r.Video)
	case RefPlaylist:
		return r.Playlist
	default:
		return ""
	}
}
