package expand

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/John-Robertt/YTCR/internal/domain"
)

// fakeSite 在一个 server 上同时扮演桌面列表页、订阅源和移动端入口。
type fakeSite struct {
	srv *httptest.Server

	playlistHits int
	feedHits     int
	mobileHits   int

	playlistBody   string
	playlistStatus int // 0 ⇒ 200
	feedBody       string
	feedStatus     int
	mobileBody     string

	consentRedirect bool // 桌面列表页 302 到 consent 域
	lastMobileUA    string
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()
	f := &fakeSite{}
	mux := http.NewServeMux()
	mux.HandleFunc("/playlist", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("app") == "m" {
			f.mobileHits++
			f.lastMobileUA = r.Header.Get("User-Agent")
			w.Write([]byte(f.mobileBody))
			return
		}
		f.playlistHits++
		if f.consentRedirect {
			http.Redirect(w, r, "https://consent.youtube.com/m?continue=x", http.StatusFound)
			return
		}
		if f.playlistStatus != 0 {
			w.WriteHeader(f.playlistStatus)
			return
		}
		w.Write([]byte(f.playlistBody))
	})
	mux.HandleFunc("/feeds/videos.xml", func(w http.ResponseWriter, r *http.Request) {
		f.feedHits++
		if f.feedStatus != 0 {
			w.WriteHeader(f.feedStatus)
			return
		}
		w.Write([]byte(f.feedBody))
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeSite) strategies() []Strategy {
	return []Strategy{Blob(f.srv.URL), Scrape(f.srv.URL), Feed(f.srv.URL), Mobile(f.srv.URL)}
}

func TestExpandFirstStrategyShortCircuits(t *testing.T) {
	f := newFakeSite(t)
	f.playlistBody = blobPage

	got, attempts, err := Expand(context.Background(), f.strategies(), "PLtest", &http.Client{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := ids("aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("期望 %v，实际 %v", want, got)
	}
	if f.playlistHits != 1 || f.feedHits != 0 || f.mobileHits != 0 {
		t.Fatalf("期望短路（页面 1 次、后续策略 0 次），实际 %d/%d/%d",
			f.playlistHits, f.feedHits, f.mobileHits)
	}
	if len(attempts) != 1 || attempts[0].Strategy != "blob" || attempts[0].Found != 3 || attempts[0].ErrorCode != "" {
		t.Fatalf("期望单条 blob 胜出 attempt，实际 %+v", attempts)
	}
}

func TestExpandFallsThroughToFeed(t *testing.T) {
	f := newFakeSite(t)
	f.playlistBody = `<html><body>nothing to extract</body></html>`
	f.feedBody = feedXML

	got, attempts, err := Expand(context.Background(), f.strategies(), "PLtest", &http.Client{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := ids("aaaaaaaaaaa", "bbbbbbbbbbb")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("期望 %v，实际 %v", want, got)
	}
	if f.playlistHits != 2 {
		t.Fatalf("期望 blob 与 scrape 各取一次页面，实际 %d", f.playlistHits)
	}
	if len(attempts) != 3 {
		t.Fatalf("期望 3 条 attempts，实际 %+v", attempts)
	}
	for i, a := range attempts[:2] {
		if a.ErrorCode != domain.ErrCodeEmptyResult {
			t.Fatalf("期望第 %d 条 empty_result，实际 %+v", i, a)
		}
	}
	if attempts[2].Strategy != "feed" || attempts[2].Found != 2 {
		t.Fatalf("期望 feed 胜出且 found=2，实际 %+v", attempts[2])
	}
}

func TestExpandMobileLastResort(t *testing.T) {
	f := newFakeSite(t)
	f.playlistStatus = http.StatusInternalServerError
	f.feedStatus = http.StatusNotFound
	f.mobileBody = `<html>{"video_id":"ddddddddddd"}{"video_id":"eeeeeeeeeee"}{"video_id":"ddddddddddd"}</html>`

	got, attempts, err := Expand(context.Background(), f.strategies(), "PLtest", &http.Client{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := ids("ddddddddddd", "eeeeeeeeeee")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("期望 %v，实际 %v", want, got)
	}
	if len(attempts) != 4 {
		t.Fatalf("期望 4 条 attempts，实际 %+v", attempts)
	}
	for i, a := range attempts[:3] {
		if a.ErrorCode != domain.ErrCodeFetchFailed {
			t.Fatalf("期望第 %d 条 fetch_failed，实际 %+v", i, a)
		}
	}
	if !strings.Contains(f.lastMobileUA, "Mobile") {
		t.Fatalf("期望移动端 UA，实际 %q", f.lastMobileUA)
	}
}

func TestExpandConsentRedirectIsBlocked(t *testing.T) {
	f := newFakeSite(t)
	f.consentRedirect = true
	f.feedBody = `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`
	f.mobileBody = `<html>no ids</html>`

	_, attempts, err := Expand(context.Background(), f.strategies(), "PLtest", &http.Client{})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("期望 ErrExhausted，实际 %v", err)
	}
	if len(attempts) != 4 {
		t.Fatalf("期望 4 条 attempts，实际 %+v", attempts)
	}
	for i, a := range attempts[:2] {
		if a.ErrorCode != domain.ErrCodeBlocked {
			t.Fatalf("期望第 %d 条 blocked，实际 %+v", i, a)
		}
		if !strings.Contains(a.ErrorMsg, "consent") {
			t.Fatalf("期望 error_msg 指明 consent，实际 %q", a.ErrorMsg)
		}
	}
}

func TestExpandAllEmptyExhausted(t *testing.T) {
	f := newFakeSite(t)
	f.playlistBody = `<html>blank</html>`
	f.feedBody = `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`
	f.mobileBody = `<html>blank</html>`

	got, attempts, err := Expand(context.Background(), f.strategies(), "PLtest", &http.Client{})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("期望 ErrExhausted，实际 %v", err)
	}
	if got != nil {
		t.Fatalf("期望无结果，实际 %v", got)
	}
	if len(attempts) != 4 {
		t.Fatalf("期望 4 条 attempts，实际 %+v", attempts)
	}
	for i, a := range attempts {
		if a.ErrorCode != domain.ErrCodeEmptyResult {
			t.Fatalf("期望第 %d 条 empty_result，实际 %+v", i, a)
		}
	}
}

func TestExpandEmptyListID(t *testing.T) {
	if _, _, err := Expand(context.Background(), Defaults(), "  ", &http.Client{}); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}

func TestSelect(t *testing.T) {
	def, err := Select(nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	wantOrder := []string{"blob", "scrape", "feed", "mobile"}
	if len(def) != 4 {
		t.Fatalf("期望默认 4 条策略，实际 %d", len(def))
	}
	for i, s := range def {
		if s.Name != wantOrder[i] {
			t.Fatalf("期望默认顺序 %v，实际第 %d 条是 %s", wantOrder, i, s.Name)
		}
	}

	sub, err := Select([]string{"feed", "blob"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(sub) != 2 || sub[0].Name != "feed" || sub[1].Name != "blob" {
		t.Fatalf("期望按给定顺序构造，实际 %+v", sub)
	}

	if _, err := Select([]string{"blob", "quic"}); err == nil {
		t.Fatalf("未知策略名应当报错")
	}
	if _, err := Select([]string{"blob", "blob"}); err == nil {
		t.Fatalf("重复策略名应当报错")
	}
}
