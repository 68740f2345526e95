// Package ref 把任意用户输入分类为引用（视频 / 播放列表 / 无效）。
// 只做字符串与 URL 形态判断，不访问网络。
package ref

import (
	"net/url"
	"strings"

	"github.com/John-Robertt/YTCR/internal/domain"
)

// Classify 按固定顺序应用分类规则（先命中先生效），幂等：
// 1) 裸 id：trim 后恰好 11 字符且不含 "/"，按字面接受。
//    注意：这条刻意宽松——不校验字符集，用户声称是 id 就当 id，
//    让后续解析阶段用合成兜底去面对它。
// 2) URL 解析；无 "://" 但含 "." 的输入先补 "https://"（容忍省略协议）。
// 3) list 查询参数非空 ⇒ 播放列表；同 URL 里可恢复的视频 id 记入 Seeds。
// 4) v 查询参数 ⇒ 视频（取前 11 字符，容忍尾部噪音）。
// 5) youtu.be 短链首段路径 ⇒ 视频。
// 6) /embed/<id>、/shorts/<id>、/live/<id> 路径 ⇒ 视频。
// 7) 其余 ⇒ 无效。
func Classify(raw string) domain.Reference {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.Reference{Kind: domain.RefInvalid}
	}

	// 规则 1：裸 id。
	if len(s) == 11 && !strings.Contains(s, "/") {
		return domain.Reference{Kind: domain.RefVideo, Video: domain.VideoID(s)}
	}

	u, ok := parseURL(s)
	if !ok {
		return domain.Reference{Kind: domain.RefInvalid}
	}
	q := u.Query()

	// 规则 3：list 参数优先于一切视频形态
	// （watch?v=..&list=.. 指向的是列表里的那一集，整体按播放列表处理）。
	if list := q.Get("list"); list != "" {
		r := domain.Reference{Kind: domain.RefPlaylist, Playlist: list}
		if id, ok := idFromToken(q.Get("v")); ok {
			r.Seeds = []domain.VideoID{id}
		}
		return r
	}

	// 规则 4：v 参数。
	if id, ok := idFromToken(q.Get("v")); ok {
		return domain.Reference{Kind: domain.RefVideo, Video: id}
	}

	segs := pathSegments(u)

	// 规则 5：youtu.be 短链。
	if strings.EqualFold(u.Hostname(), "youtu.be") && len(segs) > 0 {
		if id, ok := idFromToken(segs[0]); ok {
			return domain.Reference{Kind: domain.RefVideo, Video: id}
		}
	}

	// 规则 6：embed / shorts / live 路径形态。
	for i := 0; i+1 < len(segs); i++ {
		switch segs[i] {
		case "embed", "shorts", "live":
			if id, ok := idFromToken(segs[i+1]); ok {
				return domain.Reference{Kind: domain.RefVideo, Video: id}
			}
		}
	}

	return domain.Reference{Kind: domain.RefInvalid}
}

// parseURL 解析输入为带 host 的 URL。
// 无协议但形似域名（含 "."）时补 https:// 再试；其余情况直接判失败。
func parseURL(s string) (*url.URL, bool) {
	if !strings.Contains(s, "://") {
		if !strings.Contains(s, ".") {
			return nil, false
		}
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, true
}

// idFromToken 取 token 前 11 字符并做严格校验；不足 11 或字符集非法则失败。
// 尾部噪音（跟踪参数残渣、多余路径字符）因此被自然丢弃。
func idFromToken(tok string) (domain.VideoID, bool) {
	if len(tok) < 11 {
		return "", false
	}
	return domain.ParseVideoID(tok[:11])
}

func pathSegments(u *url.URL) []string {
	var segs []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}
