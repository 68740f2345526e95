package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/YTCR/internal/batch"
	"github.com/John-Robertt/YTCR/internal/config"
	"github.com/John-Robertt/YTCR/internal/domain"
	"github.com/John-Robertt/YTCR/internal/resolve"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "resolve":
		if code := resolveCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func resolveCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printResolveUsage()
			return 0
		}
	}

	ra, err := parseResolveArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printResolveUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Out:       ra.Out,
		OutSet:    ra.OutSet,
		Thumbs:    ra.Thumbs,
		ThumbsSet: ra.ThumbsSet,
	})
	if err != nil {
		emitReport(reportForConfigError(err))
		return 1
	}

	inputs, err := collectInputs(ra)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	// Ctrl-C / SIGTERM：取消引擎 ctx，已完成的课程保留在报告里。
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		<-sig
		cancel()
	}()

	progressW, interactive := pickProgressWriter()
	var obs resolve.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	rr := resolve.Execute(ctx, eff, inputs, obs)

	emitReport(rr)
	if interactive {
		emitLocations(progressW, eff)
	}
	if rr.Summary.Failed == 0 && rr.Summary.FilesFailed == 0 {
		return 0
	}
	return 1
}

type resolveArgs struct {
	Input string
	Batch string

	Out    string
	OutSet bool

	Thumbs    bool
	ThumbsSet bool
}

func parseResolveArgs(args []string) (resolveArgs, error) {
	ra := resolveArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--out":
			if i+1 >= len(args) {
				return resolveArgs{}, fmt.Errorf("--out 需要一个值")
			}
			i++
			ra.Out = args[i]
			ra.OutSet = true
		case strings.HasPrefix(a, "--out="):
			ra.Out = strings.TrimPrefix(a, "--out=")
			ra.OutSet = true
		case a == "--batch":
			if i+1 >= len(args) {
				return resolveArgs{}, fmt.Errorf("--batch 需要一个值")
			}
			i++
			ra.Batch = args[i]
		case strings.HasPrefix(a, "--batch="):
			ra.Batch = strings.TrimPrefix(a, "--batch=")
		case a == "--thumbs":
			ra.Thumbs = true
			ra.ThumbsSet = true
		case strings.HasPrefix(a, "--thumbs="):
			v := strings.TrimPrefix(a, "--thumbs=")
			switch v {
			case "true":
				ra.Thumbs = true
			case "false":
				ra.Thumbs = false
			default:
				return resolveArgs{}, fmt.Errorf("--thumbs 只能是 true 或 false，实际是 %q", v)
			}
			ra.ThumbsSet = true
		case strings.HasPrefix(a, "-"):
			return resolveArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if ra.Input != "" {
				return resolveArgs{}, fmt.Errorf("重复的输入：%q 与 %q", ra.Input, a)
			}
			ra.Input = a
		}
	}

	if ra.Input == "" && strings.TrimSpace(ra.Batch) == "" {
		return resolveArgs{}, fmt.Errorf("需要一个链接/视频 id，或 --batch 清单")
	}
	if ra.Input != "" && strings.TrimSpace(ra.Batch) != "" {
		return resolveArgs{}, fmt.Errorf("链接输入与 --batch 不能同时使用")
	}
	return ra, nil
}

func collectInputs(ra resolveArgs) ([]resolve.Input, error) {
	if ra.Input != "" {
		return []resolve.Input{{Raw: ra.Input}}, nil
	}
	refs, err := batch.ReadRefs(ra.Batch)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("批量清单没有可解析的引用：%s", ra.Batch)
	}
	inputs := make([]resolve.Input, 0, len(refs))
	for _, r := range refs {
		inputs = append(inputs, resolve.Input{Raw: r})
	}
	return inputs, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  ytcr resolve <链接|视频id> [--out DIR] [--thumbs[=true|false]]
  ytcr resolve --batch FILE [--out DIR] [--thumbs[=true|false]]

命令：
  resolve    把视频/播放列表引用解析为课程报告

使用 "ytcr resolve --help" 查看详细说明。
`)
}

func printResolveUsage() {
	fmt.Fprint(os.Stdout, `用法：
  ytcr resolve <链接|视频id> [--out DIR] [--thumbs[=true|false]]
  ytcr resolve --batch FILE [--out DIR] [--thumbs[=true|false]]

参数：
  --out       导出目录：每门课程写入 <out>/<key>/course.json（未指定则读配置文件；默认不导出）
  --thumbs    下载缩略图到 <out>/<key>/thumbs/（需要 out 目录；支持 --thumbs=false 覆盖配置）
  --batch     从清单文件批量解析（一行一条引用，空行与 # 注释跳过）
  -h, --help  显示帮助
`)
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：resolved=%d partial=%d failed=%d items=%d items_failed=%d files_failed=%d\n",
			rr.Summary.Resolved, rr.Summary.Partial, rr.Summary.Failed,
			rr.Summary.Items, rr.Summary.ItemsFailed, rr.Summary.FilesFailed,
		)
		if rr.Summary.Failed > 0 {
			for _, c := range rr.Courses {
				if c.Status != domain.StatusFailed {
					continue
				}
				key := c.Key
				if key == "" {
					// 无效/合成课程：用原始输入做定位锚点。
					key = strings.TrimSpace(c.Input)
				}
				if key == "" {
					key = "<unknown>"
				}
				fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, c.ErrorCode, c.ErrorMsg)
			}
		}
		if rr.Summary.FilesFailed > 0 {
			for _, c := range rr.Courses {
				for _, f := range c.Files {
					if f.Status != domain.FileStatusFailed {
						continue
					}
					fmt.Fprintf(os.Stderr, "%s %s: %s\n", f.Path, f.ErrorCode, f.ErrorMsg)
				}
			}
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：resolved=%d partial=%d failed=%d items=%d items_failed=%d files_failed=%d\n",
		rr.Summary.Resolved, rr.Summary.Partial, rr.Summary.Failed,
		rr.Summary.Items, rr.Summary.ItemsFailed, rr.Summary.FilesFailed,
	)
}

func reportForConfigError(err error) domain.RunReport {
	code := config.Code(err)
	if code == "" {
		code = domain.ErrCodeConfigInvalid
	}
	now := time.Now().UTC()
	rr := domain.RunReport{
		RunID:      uuid.NewString(),
		StartedAt:  now,
		FinishedAt: now,
		Courses: []domain.CourseReport{{
			Status:         domain.StatusFailed,
			ErrorCode:      code,
			ErrorMsg:       err.Error(),
			ExpandAttempts: []domain.ExpandAttempt{},
			Items:          []domain.ItemResult{},
			Files:          []domain.FileResult{},
		}},
	}
	rr.Finalize()
	return rr
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}

func emitLocations(w io.Writer, eff config.Effective) {
	// 降低"完成后不知道产物在哪"的摩擦，且不影响 stdout JSON 契约。
	if w == nil || eff.OutDir == "" {
		return
	}
	fmt.Fprintf(w, "out: %s\n", eff.OutDir)
}
