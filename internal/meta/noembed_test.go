package meta

import (
	"testing"

	"github.com/John-Robertt/YTCR/internal/domain"
)

func TestNoEmbedParseTolerant(t *testing.T) {
	id := domain.VideoID("dQw4w9WgXcQ")
	synthThumb := id.ThumbURL()

	cases := []struct {
		name      string
		payload   string
		ok        bool
		wantTitle string
		wantThumb string
		wantDur   int
	}{
		{
			name:      "完整载荷",
			payload:   `{"title":"Real Title","thumbnail_url":"https://x/t.jpg","duration":212.4}`,
			ok:        true,
			wantTitle: "Real Title",
			wantThumb: "https://x/t.jpg",
			wantDur:   212,
		},
		{
			name:      "只有 title 则缩略图回退合成",
			payload:   `{"title":"Only Title"}`,
			ok:        true,
			wantTitle: "Only Title",
			wantThumb: synthThumb,
		},
		{
			name:      "只有缩略图则标题回退合成",
			payload:   `{"thumbnail_url":"https://x/t.jpg"}`,
			ok:        true,
			wantTitle: "Video dQw4w9WgXcQ",
			wantThumb: "https://x/t.jpg",
		},
		{
			name:      "端点返回 error 字段按全缺字段处理",
			payload:   `{"error":"no matching providers found"}`,
			ok:        true,
			wantTitle: "Video dQw4w9WgXcQ",
			wantThumb: synthThumb,
		},
		{name: "非 JSON 才算失败", payload: `not json at all`, ok: false},
		{name: "空载荷", payload: ``, ok: false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m, err := NoEmbed{}.Parse(id, []byte(c.payload))
			if c.ok && err != nil {
				t.Fatalf("不期望错误：%v", err)
			}
			if !c.ok {
				if err == nil {
					t.Fatalf("期望错误，但解析成功：%+v", m)
				}
				return
			}
			if m.Title != c.wantTitle {
				t.Fatalf("期望标题 %q，实际 %q", c.wantTitle, m.Title)
			}
			if m.ThumbURL != c.wantThumb {
				t.Fatalf("期望缩略图 %q，实际 %q", c.wantThumb, m.ThumbURL)
			}
			if m.DurationS != c.wantDur {
				t.Fatalf("期望时长 %d，实际 %d", c.wantDur, m.DurationS)
			}
		})
	}
}
