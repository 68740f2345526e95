package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew_ProxyDisablesKeepAlive(t *testing.T) {
	c, err := New(Options{ProxyURL: "http://127.0.0.1:8080"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	tr, ok := c.Transport.(*Transport)
	if !ok {
		t.Fatalf("期望 *Transport，实际 %T", c.Transport)
	}
	if tr.Base.Proxy == nil {
		t.Fatalf("期望启用代理，但 Proxy=nil")
	}
	if !tr.Base.DisableKeepAlives {
		t.Fatalf("期望禁用 keep-alive，但 Base.DisableKeepAlives=false")
	}
	if !tr.DisableKeepAlives {
		t.Fatalf("期望设置 Request.Close=true 的额外保险，但 DisableKeepAlives=false")
	}
}

func TestNew_DefaultIsStrictDirect(t *testing.T) {
	c, err := New(Options{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	tr := c.Transport.(*Transport)
	if tr.Base.Proxy != nil {
		t.Fatalf("不期望启用代理，但 Proxy!=nil")
	}
	if tr.Base.DisableKeepAlives {
		t.Fatalf("不期望禁用 keep-alive，但 Base.DisableKeepAlives=true")
	}
	if tr.Relaxed != nil {
		t.Fatalf("默认必须严格校验证书，但 Relaxed!=nil")
	}
}

func TestNew_InvalidProxyURL(t *testing.T) {
	_, err := New(Options{ProxyURL: "http://[::1"})
	if err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}

func TestHostAllowed(t *testing.T) {
	allow := DefaultRelaxedHosts
	cases := []struct {
		host string
		want bool
	}{
		{"youtube.com", true},
		{"www.youtube.com", true},
		{"m.youtube.com", true},
		{"youtu.be", true},
		{"noembed.com", true},
		{"i.ytimg.com", true},
		{"YOUTUBE.COM", true},
		{"evil-youtube.com", false},
		{"youtube.com.evil.example", false},
		{"example.com", false},
		{"", false},
	}
	for _, c := range cases {
		if got := hostAllowed(c.host, allow); got != c.want {
			t.Fatalf("hostAllowed(%q)：期望 %v，实际 %v", c.host, c.want, got)
		}
	}
}

func TestRoundTripFillsDesktopUA(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	c, err := New(Options{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp.Body.Close()

	if gotUA == "" {
		t.Fatalf("期望补默认 UA，实际为空")
	}
	if strings.Contains(gotUA, "Mobile") {
		t.Fatalf("默认 UA 应为桌面端，实际 %q", gotUA)
	}
}

func TestRoundTripKeepsExplicitUA(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	c, err := New(Options{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("User-Agent", MobileUA())
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp.Body.Close()

	if !strings.Contains(gotUA, "Mobile") {
		t.Fatalf("期望保留显式移动端 UA，实际 %q", gotUA)
	}
}

// httptest 的 TLS 证书是自签名的：放宽校验能通过，严格校验必然失败。
// 借此验证白名单边界——开关打开也只对名单内的 host 放宽。
func TestRelaxedTLSRespectsAllowlist(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	// host 在名单内：自签名证书被放宽校验接受。
	inList, err := New(Options{InsecureTLS: true, RelaxedHosts: []string{"127.0.0.1"}})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp, err := inList.Get(srv.URL)
	if err != nil {
		t.Fatalf("白名单内 host 应走放宽校验，实际错误：%v", err)
	}
	resp.Body.Close()

	// host 不在名单内：即使开关打开也必须严格校验（自签名 ⇒ 失败）。
	outList, err := New(Options{InsecureTLS: true, RelaxedHosts: []string{"example.com"}})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if resp, err := outList.Get(srv.URL); err == nil {
		resp.Body.Close()
		t.Fatalf("名单外 host 不应放宽证书校验，但请求成功了")
	}

	// 开关关闭：名单无意义，一律严格。
	off, err := New(Options{InsecureTLS: false, RelaxedHosts: []string{"127.0.0.1"}})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if resp, err := off.Get(srv.URL); err == nil {
		resp.Body.Close()
		t.Fatalf("InsecureTLS=false 时不应放宽证书校验，但请求成功了")
	}
}

func TestCheckStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
	}))
	defer srv.Close()

	c, err := New(Options{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	resp, err := c.Get(srv.URL + "/ok")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp.Body.Close()
	if err := CheckStatus(resp); err != nil {
		t.Fatalf("2xx 不应产生错误：%v", err)
	}

	resp, err = c.Get(srv.URL + "/missing")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp.Body.Close()
	serr := CheckStatus(resp)
	if serr == nil {
		t.Fatalf("期望 StatusError，但得到 nil")
	}
	if !IsStatus(serr, http.StatusNotFound) {
		t.Fatalf("期望 404 StatusError，实际 %v", serr)
	}
	if !strings.Contains(serr.Error(), "HTTP 404") {
		t.Fatalf("期望 error_msg 含状态码，实际 %q", serr.Error())
	}
}
