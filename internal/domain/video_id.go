package domain

import (
	"regexp"
	"strings"
)

// VideoID 是视频的唯一主键（YouTube 的 11 位不透明 token）。
//
// 约束：从外部 payload（页面 blob、feed、JSON 接口）拿到的候选串必须先过
// ParseVideoID；宁可丢弃可疑 token，也不允许把播放列表/频道 id 混进课程。
type VideoID string

var videoIDRE = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

// ParseVideoID 校验并解析 11 位视频 id。
// 输入必须恰好 11 位，且只含 [0-9A-Za-z_-]。
func ParseVideoID(s string) (VideoID, bool) {
	s = strings.TrimSpace(s)
	if !videoIDRE.MatchString(s) {
		return "", false
	}
	return VideoID(s), true
}

// WatchURL 返回该视频的规范 watch 页地址（oEmbed/noembed 查询都以它为输入）。
func (v VideoID) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + string(v)
}

// ThumbURL 返回按固定模板合成的缩略图地址。
// hqdefault 对所有公开视频稳定存在（不需要鉴权），是兜底阶段的确定性来源。
func (v VideoID) ThumbURL() string {
	return "https://img.youtube.com/vi/" + string(v) + "/hqdefault.jpg"
}
