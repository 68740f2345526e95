// Package httpx 把引擎的全部网络策略固化为一个可注入的 http.Client：
// UA 池、代理、keep-alive 策略、以及"放宽证书→严格证书"的受限回退。
//
// 设计目标：meta / expand 只负责"定位资源 + 解析载荷"，不关心网络策略细节；
// 整个运行周期只构造一个 client，逐层注入（连接复用依赖该行为）。
package httpx

import (
	"crypto/tls"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultTimeout = 20 * time.Second

// DefaultRelaxedHosts 是放宽证书校验允许触达的 host 白名单。
// 规则：精确匹配或子域匹配（youtube.com 覆盖 www. / m. 等子域）。
// 白名单外的 host 永远走严格校验，开关打开也不例外。
var DefaultRelaxedHosts = []string{
	"youtube.com",
	"youtu.be",
	"noembed.com",
	"img.youtube.com",
	"i.ytimg.com",
}

// Options 描述一次运行的网络策略。零值可用（直连、严格证书、默认超时）。
type Options struct {
	// ProxyURL 非空时全部流量走该代理，并禁用 keep-alive（每请求新连接）。
	ProxyURL string

	// InsecureTLS 打开"放宽证书→严格证书"的回退。默认关闭；
	// 打开后也只对 RelaxedHosts 白名单内的 host 生效。
	InsecureTLS bool

	// RelaxedHosts 覆盖白名单；为空时用 DefaultRelaxedHosts。
	RelaxedHosts []string

	// Timeout 为 0 时用默认总超时。
	Timeout time.Duration
}

// StatusError 表示站点返回了非 2xx 的 HTTP 状态码。
// 各阶段用它生成可操作的 error_msg，并据此归类 fetch_failed。
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d url=%s", e.StatusCode, e.URL)
}

// CheckStatus 把非 2xx 响应归一化为 *StatusError（2xx 返回 nil）。
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	u := ""
	if resp.Request != nil && resp.Request.URL != nil {
		u = resp.Request.URL.String()
	}
	return &StatusError{URL: u, StatusCode: resp.StatusCode}
}

// IsStatus 判断 err 链上是否有指定状态码的 StatusError。
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Transport 实现"补默认 UA + 受限放宽证书回退"的 RoundTripper。
//
// 回退顺序固定：放宽在前、严格在后（放宽命中即省去第二次握手）；
// 只有 GET/HEAD 且无 body 的请求才做第二次尝试。
type Transport struct {
	// Base 是严格证书的底座，永远存在。
	Base *http.Transport

	// Relaxed 仅在 InsecureTLS 打开时非 nil。
	Relaxed *http.Transport

	relaxedHosts []string

	ua *uaPool

	// DisableKeepAlives 决定是否对 Request 设置 Close=true（额外保险）。
	// 真正禁用 keep-alive 依赖 Base/Relaxed 的 DisableKeepAlives。
	DisableKeepAlives bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	r := t.prep(req)

	if t.Relaxed == nil || !hostAllowed(r.URL.Hostname(), t.relaxedHosts) {
		return t.Base.RoundTrip(r)
	}

	resp, err := t.Relaxed.RoundTrip(r)
	if err == nil {
		return resp, nil
	}
	if req.Context().Err() != nil {
		// ctx 已取消：不做第二次尝试，直接返回（更可解释）。
		return nil, err
	}
	canReplay := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	if !canReplay {
		return nil, err
	}
	return t.Base.RoundTrip(t.prep(req))
}

// prep 克隆请求并补齐策略字段，避免在 RoundTripper 内部污染调用方的 request。
func (t *Transport) prep(req *http.Request) *http.Request {
	r := req.Clone(req.Context())
	if r.Header.Get("User-Agent") == "" {
		r.Header.Set("User-Agent", t.ua.random())
	}
	if t.DisableKeepAlives {
		r.Close = true
	}
	return r
}

// hostAllowed 判断 host 是否命中白名单（大小写不敏感，支持子域）。
func hostAllowed(host string, allow []string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return false
	}
	for _, a := range allow {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

// New 构造整个运行共享的 HTTP client。
//
// 规则：
// - proxy 非空：必须走代理，且禁用 keep-alive（每请求新连接）
// - 内置桌面 UA 池：未显式设置 UA 的请求随机补一个
// - InsecureTLS 只解锁白名单 host 的"放宽→严格"回退，不做全局放宽
func New(opts Options) (*http.Client, error) {
	disableKA := false
	var proxy func(*http.Request) (*url.URL, error)
	if p := strings.TrimSpace(opts.ProxyURL); p != "" {
		u, err := url.Parse(p)
		if err != nil {
			return nil, err
		}
		proxy = http.ProxyURL(u)
		// proxy 模式强制每请求新连接（代理池轮换依赖该行为）。
		disableKA = true
	}

	base := &http.Transport{
		Proxy:                 proxy,
		DisableKeepAlives:     disableKA,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}

	tr := &Transport{
		Base:              base,
		ua:                globalDesktopUA,
		DisableKeepAlives: disableKA,
	}
	if opts.InsecureTLS {
		relaxed := base.Clone()
		relaxed.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		tr.Relaxed = relaxed
		tr.relaxedHosts = opts.RelaxedHosts
		if len(tr.relaxedHosts) == 0 {
			tr.relaxedHosts = DefaultRelaxedHosts
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// MobileUA 返回一个移动端 UA。
// 移动端入口按 UA 返回不同的页面结构，调用方显式设置后 Transport 不再覆盖。
func MobileUA() string {
	return globalMobileUA.random()
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

var (
	globalDesktopUA = newUAPool([]string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	})
	globalMobileUA = newUAPool([]string{
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_3 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Mobile Safari/537.36",
	})
)

func newUAPool(uas []string) *uaPool {
	// UA 列表保持短小但多样；不对外暴露配置。
	return &uaPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: uas,
	}
}
