// Package config 负责发现/读取 ytcr.json、加载环境覆盖，并与 CLI 参数
// 合并为最终配置。实现层直接消费 Effective，不再做二次默认/优先级判断。
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/John-Robertt/YTCR/internal/expand"
)

// ErrCodeInvalid 表示配置文件/环境变量无法解析，或字段不合法。
const ErrCodeInvalid = "config_invalid"

const (
	// DefaultPacingMS 是条目间固定停顿的默认值（毫秒）。
	DefaultPacingMS = 350
	// DefaultRequestTimeoutMS 是单次网络请求的默认总超时（毫秒）。
	DefaultRequestTimeoutMS = 8000

	maxPacingMS         = 5000
	minRequestTimeoutMS = 1000
	maxRequestTimeoutMS = 60000
)

// CLIArgs 只包含 CLI 暴露的两项开关（out/thumbs），并保留"是否显式指定"。
// 这能保证覆盖优先级可实现：例如 --thumbs=false 必须能覆盖 config.thumbs=true。
type CLIArgs struct {
	Out    string
	OutSet bool

	Thumbs    bool
	ThumbsSet bool
}

// FileConfig 对应 ytcr.json 的解析结构。文件整体可选，逐字段可缺。
type FileConfig struct {
	Out              string       `json:"out"`
	Thumbs           *bool        `json:"thumbs"`
	PacingMS         *int         `json:"pacing_ms"`
	RequestTimeoutMS *int         `json:"request_timeout_ms"`
	Proxy            *ProxyConfig `json:"proxy"`
	InsecureTLS      *bool        `json:"insecure_tls"`
	Strategies       []string     `json:"strategies"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

// envOverrides 是部署敏感项的环境覆盖入口。
// 代理 URL 常携带凭据，应当放环境而不是落进 JSON 文件。
type envOverrides struct {
	ProxyURL    string `env:"YTCR_PROXY_URL"`
	InsecureTLS *bool  `env:"YTCR_INSECURE_TLS"`
}

// Effective 是合并并做最小规范化后的最终配置。
type Effective struct {
	// OutDir 为空表示不导出；非空时为 clean 过的绝对路径。
	OutDir string
	Thumbs bool

	PacingMS         int
	RequestTimeoutMS int

	ProxyURL    string
	InsecureTLS bool

	// Strategies 为空表示默认全部（blob/scrape/feed/mobile 顺序）。
	// 已通过 expand.Select 验证。
	Strategies []string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if strings.TrimSpace(e.Path) != "" {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：%v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 按固定规则合并三个来源：
//
// 发现规则：
// - <cwd>/ytcr.json 可选；存在但无法解析 ⇒ config_invalid
// - <cwd>/.env 尽力加载（供本地部署放 YTCR_* 变量；缺失/损坏都不报错）
//
// 覆盖优先级：
// - out / thumbs：CLI > config > 默认（不导出 / 不下载）
// - proxy / insecure_tls：环境（YTCR_PROXY_URL / YTCR_INSECURE_TLS）> config
// - pacing / request_timeout / strategies：仅由 config 控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (Effective, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return Effective{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, "ytcr.json")
	fc, _, err := readFileConfig(cfgPath)
	if err != nil {
		return Effective{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	_ = godotenv.Load(filepath.Join(cwdAbs, ".env"))
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return Effective{}, &Error{Code: ErrCodeInvalid, Err: fmt.Errorf("环境变量无效：%w", err)}
	}

	return merge(cwdAbs, cli, fc, ov, cfgPath)
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, ov envOverrides, cfgPath string) (Effective, error) {
	// out：CLI > config > 默认不导出
	out := ""
	if cli.OutSet {
		out = strings.TrimSpace(cli.Out)
	} else {
		out = strings.TrimSpace(fc.Out)
	}
	if out != "" {
		out = absCleanFrom(cwdAbs, out)
	}

	// thumbs：CLI > config > 默认 false
	thumbs := false
	if cli.ThumbsSet {
		thumbs = cli.Thumbs
	} else if fc.Thumbs != nil {
		thumbs = *fc.Thumbs
	}
	if thumbs && out == "" {
		return Effective{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("thumbs=true 但未指定 out 目录")}
	}

	pacing := DefaultPacingMS
	if fc.PacingMS != nil {
		pacing = *fc.PacingMS
	}
	// 文档约定：范围 [0, 5000]；超出截断。
	if pacing < 0 {
		pacing = 0
	}
	if pacing > maxPacingMS {
		pacing = maxPacingMS
	}

	reqTimeout := DefaultRequestTimeoutMS
	if fc.RequestTimeoutMS != nil {
		reqTimeout = *fc.RequestTimeoutMS
	}
	if reqTimeout < minRequestTimeoutMS {
		reqTimeout = minRequestTimeoutMS
	}
	if reqTimeout > maxRequestTimeoutMS {
		reqTimeout = maxRequestTimeoutMS
	}

	// proxy：环境 > config
	proxyURL := strings.TrimSpace(ov.ProxyURL)
	if proxyURL == "" && fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return Effective{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("proxy.url 无效：%q", proxyURL)}
		}
	}

	// insecure_tls：环境 > config > 默认 false（默认严格证书）
	insecure := false
	if fc.InsecureTLS != nil {
		insecure = *fc.InsecureTLS
	}
	if ov.InsecureTLS != nil {
		insecure = *ov.InsecureTLS
	}

	strategies := append([]string(nil), fc.Strategies...)
	if _, err := expand.Select(strategies); err != nil {
		return Effective{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	return Effective{
		OutDir:           out,
		Thumbs:           thumbs,
		PacingMS:         pacing,
		RequestTimeoutMS: reqTimeout,
		ProxyURL:         proxyURL,
		InsecureTLS:      insecure,
		Strategies:       strategies,
	}, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
