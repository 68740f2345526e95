// Package export 把解析完成的课程落盘为稳定产物：
// <out>/<key>/course.json（原子覆盖）与 <out>/<key>/thumbs/<id>.jpg（不覆盖）。
// 引擎核心不碰磁盘；导出是调用方侧的附加能力，失败只降级为 file 级结果。
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/John-Robertt/YTCR/internal/domain"
	"github.com/John-Robertt/YTCR/internal/infra/fsx"
	"github.com/John-Robertt/YTCR/internal/infra/httpx"
	"github.com/John-Robertt/YTCR/internal/infra/imgx"
)

// Store 提供 <out>/ 下的产物路径与现状读取。
type Store struct {
	Root string // 导出根目录（绝对路径，由配置层保证）
}

func New(root string) Store {
	return Store{Root: filepath.Clean(strings.TrimSpace(root))}
}

// key 来自播放列表 id（URL 查询参数，外部可控）或视频 id。
// 最小约束：只放行 id 字符集，挡掉路径穿越；不做更多"聪明"处理。
var keyRE = regexp.MustCompile(`^[0-9A-Za-z_-]+$`)

func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("课程 key 不能为空")
	}
	if !keyRE.MatchString(key) {
		return "", fmt.Errorf("非法课程 key：%q", key)
	}
	return key, nil
}

// CourseDir 返回该课程产物目录的绝对路径。
func (s Store) CourseDir(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, k), nil
}

// State 是一次导出前的现状快照（只做 ReadDir，不读文件内容）。
type State struct {
	HasCourseJSON bool
	// Thumbs 是 thumbs/ 下已存在的文件名集合。
	Thumbs map[string]struct{}
}

// ReadState 读取 <out>/<key>/ 的现状。目录不存在返回空状态且不报错。
func (s Store) ReadState(key string) (State, error) {
	dir, err := s.CourseDir(key)
	if err != nil {
		return State{}, err
	}

	st := State{Thumbs: map[string]struct{}{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return State{}, err
	}
	for _, e := range entries {
		if e.Name() == "course.json" && !e.IsDir() {
			st.HasCourseJSON = true
		}
	}

	tentries, err := os.ReadDir(filepath.Join(dir, "thumbs"))
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return State{}, err
	}
	for _, e := range tentries {
		if !e.IsDir() {
			st.Thumbs[e.Name()] = struct{}{}
		}
	}
	return st, nil
}

// Doc 是 course.json 的稳定结构（持久层/UI 直接消费）。
//
// 约束：
// - Items 只收成功条目，且保持解析顺序
// - 不含时间戳等非确定字段：同一解析结果重复导出须逐字节一致
type Doc struct {
	Key      string    `json:"key"`
	Title    string    `json:"title"`
	ThumbURL string    `json:"thumbnail_url"`
	Source   string    `json:"source"`
	Items    []DocItem `json:"items"`
}

type DocItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ThumbURL  string `json:"thumbnail_url"`
	DurationS int    `json:"duration_s"`
}

// DocFromReport 把课程报告收敛为导出文档。
// title 为空时回退到 key（避免生成空标题的课程）。
func DocFromReport(rep domain.CourseReport) Doc {
	title := strings.TrimSpace(rep.Title)
	if title == "" {
		title = rep.Key
	}

	doc := Doc{
		Key:      rep.Key,
		Title:    title,
		ThumbURL: strings.TrimSpace(rep.ThumbURL),
		Source:   rep.Source,
		Items:    make([]DocItem, 0, len(rep.Items)),
	}
	for _, it := range rep.Items {
		if !it.OK() {
			continue
		}
		doc.Items = append(doc.Items, DocItem{
			ID:        it.ID,
			Title:     it.Title,
			ThumbURL:  it.ThumbURL,
			DurationS: it.DurationS,
		})
	}
	return doc
}

// Encode 把 Doc 编码为 course.json 的字节（缩进 + 末尾换行，稳定输出）。
func Encode(doc Doc) ([]byte, error) {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// Apply 对一门解析完成的课程执行导出。
//
// 规则：
// - course.json 总是原子覆盖（重复运行刷新内容）
// - 缩略图只在 thumbs=true 时下载；已存在的跳过（need-check），绝不覆盖
// - 任何失败都只落到对应 file 结果上，互不影响，也不影响课程状态
func Apply(ctx context.Context, s Store, rep domain.CourseReport, thumbs bool, c *http.Client) []domain.FileResult {
	// 先生成完整计划，再就地翻转状态：报告里始终能看到"本该写什么"。
	results := []domain.FileResult{{
		Path:   filepath.Join(rep.Key, "course.json"),
		Kind:   domain.FileKindCourseJSON,
		Status: domain.FileStatusPlanned,
	}}
	var thumbItems []domain.ItemResult
	if thumbs {
		for _, it := range rep.Items {
			if !it.OK() {
				continue
			}
			thumbItems = append(thumbItems, it)
			results = append(results, domain.FileResult{
				Path:   filepath.Join(rep.Key, "thumbs", it.ID+".jpg"),
				Kind:   domain.FileKindThumb,
				Status: domain.FileStatusPlanned,
			})
		}
	}

	dir, err := s.CourseDir(rep.Key)
	if err != nil {
		failAll(results, domain.ErrCodeIOFailed, err.Error())
		return results
	}
	st, err := s.ReadState(rep.Key)
	if err != nil {
		failAll(results, domain.ErrCodeIOFailed, fmt.Sprintf("读取导出现状失败：%v", err))
		return results
	}

	b, err := Encode(DocFromReport(rep))
	if err != nil {
		results[0].Status = domain.FileStatusFailed
		results[0].ErrorCode = domain.ErrCodeIOFailed
		results[0].ErrorMsg = fmt.Sprintf("生成 course.json 失败：%v", err)
	} else if err := fsx.WriteFileAtomicReplace(dir, "course.json", b); err != nil {
		results[0].Status = domain.FileStatusFailed
		results[0].ErrorCode = writeCode(err)
		results[0].ErrorMsg = fmt.Sprintf("写入 course.json 失败：%v", err)
	} else {
		results[0].Status = domain.FileStatusWritten
	}

	thumbsDir := filepath.Join(dir, "thumbs")
	for i, it := range thumbItems {
		res := &results[1+i]

		name := it.ID + ".jpg"
		if _, ok := st.Thumbs[name]; ok {
			res.Status = domain.FileStatusSkipped
			continue
		}
		if ctx.Err() != nil {
			res.Status = domain.FileStatusFailed
			res.ErrorCode = domain.ErrCodeCancelled
			res.ErrorMsg = "导出被取消"
			continue
		}

		raw, err := download(ctx, c, it.ThumbURL)
		if err != nil {
			res.Status = domain.FileStatusFailed
			res.ErrorCode = domain.ErrCodeFetchFailed
			res.ErrorMsg = fmt.Sprintf("下载缩略图失败：%v", err)
			continue
		}
		jpg, err := imgx.CoverCropJPEG(raw)
		if err != nil {
			res.Status = domain.FileStatusFailed
			res.ErrorCode = domain.ErrCodeParseFailed
			res.ErrorMsg = fmt.Sprintf("裁切缩略图失败：%v", err)
			continue
		}

		switch err := fsx.WriteFileAtomicNoOverwrite(thumbsDir, name, jpg); {
		case err == nil:
			res.Status = domain.FileStatusWritten
		case errors.Is(err, os.ErrExist):
			// 状态快照之后才出现的文件：同样视为已满足。
			res.Status = domain.FileStatusSkipped
		default:
			res.Status = domain.FileStatusFailed
			res.ErrorCode = writeCode(err)
			res.ErrorMsg = fmt.Sprintf("写入缩略图失败：%v", err)
		}
	}

	return results
}

// writeCode 区分"目标路径被占"与普通写失败。
func writeCode(err error) string {
	if fsx.IsPathTypeConflict(err) {
		return domain.ErrCodeTargetConflict
	}
	return domain.ErrCodeIOFailed
}

func failAll(results []domain.FileResult, code, msg string) {
	for i := range results {
		results[i].Status = domain.FileStatusFailed
		results[i].ErrorCode = code
		results[i].ErrorMsg = msg
	}
}

func download(ctx context.Context, c *http.Client, u string) ([]byte, error) {
	if c == nil {
		return nil, errors.New("http client 不能为空")
	}
	if strings.TrimSpace(u) == "" {
		return nil, errors.New("缩略图 URL 为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := httpx.CheckStatus(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}
