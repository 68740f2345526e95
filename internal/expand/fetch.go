package expand

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/John-Robertt/YTCR/internal/infra/httpx"
)

// BlockedError 表示请求被重定向到了人机确认页（consent 域）。
// 产品约束：不尝试绕过，该策略记 blocked，级联继续往后走。
type BlockedError struct {
	URL string
}

func (e *BlockedError) Error() string {
	if e == nil || strings.TrimSpace(e.URL) == "" {
		return "blocked: consent"
	}
	return "blocked: consent url=" + e.URL
}

func playlistPageURL(base, list string) string {
	if base == "" {
		base = "https://www.youtube.com"
	}
	return base + "/playlist?list=" + url.QueryEscape(list)
}

// fetchPage 是各策略共用的抓取骨架：GET + consent 拦截 + 状态码归一化。
// mobileUA=true 时显式设置移动端 UA（桌面 UA 由 httpx 自动补齐）。
func fetchPage(ctx context.Context, c *http.Client, u string, mobileUA bool) ([]byte, error) {
	if c == nil {
		return nil, errors.New("http client 不能为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if mobileUA {
		req.Header.Set("User-Agent", httpx.MobileUA())
	}

	// 重定向去往 consent 域 ⇒ 在跟随之前就拦下（不给确认页发请求）。
	c2 := *c
	c2.CheckRedirect = func(r *http.Request, via []*http.Request) error {
		if strings.HasPrefix(strings.ToLower(r.URL.Hostname()), "consent.") {
			return &BlockedError{URL: r.URL.String()}
		}
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		return nil
	}

	resp, err := c2.Do(req)
	if err != nil {
		// CheckRedirect 的错误被 url.Error 包了一层；还原为类型化错误。
		var be *BlockedError
		if errors.As(err, &be) {
			return nil, be
		}
		return nil, err
	}
	defer resp.Body.Close()

	if err := httpx.CheckStatus(resp); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, errors.New("empty response body")
	}
	return b, nil
}
