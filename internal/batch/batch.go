// Package batch 读取批量解析的输入清单：一行一条引用。
package batch

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadRefs 读取清单文件并返回引用列表。
//
// 规则：
// - 每行一条引用，首尾空白剔除
// - 空行与 # 开头的注释行跳过
// - 重复行首见保留（同一引用一轮只解析一次）
// - 行内容不做分类校验：无效引用照常进入解析，由报告标记失败
func ReadRefs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取批量清单失败：%w", err)
	}
	defer f.Close()

	seen := make(map[string]struct{})
	refs := make([]string, 0, 16)

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		refs = append(refs, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("读取批量清单失败：%w", err)
	}
	return refs, nil
}
