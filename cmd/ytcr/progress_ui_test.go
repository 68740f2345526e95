package main

import (
	"testing"

	"github.com/John-Robertt/YTCR/internal/domain"
)

func TestFormatFallbackNote(t *testing.T) {
	res := domain.ItemResult{
		ID:     "dQw4w9WgXcQ",
		Source: "noembed",
		Status: domain.StatusResolved,
		Attempts: []domain.MetaAttempt{
			{Source: "oembed", ErrorCode: domain.ErrCodeFetchFailed, ErrorMsg: "HTTP 403"},
			{Source: "noembed"},
		},
	}
	got := formatFallbackNote(res)
	if got == "" {
		t.Fatalf("期望非空 fallback note")
	}

	direct := domain.ItemResult{
		Source:   "oembed",
		Status:   domain.StatusResolved,
		Attempts: []domain.MetaAttempt{{Source: "oembed"}},
	}
	if formatFallbackNote(direct) != "" {
		t.Fatalf("未降级时不应有 fallback note")
	}
}

func TestFormatAttemptChain(t *testing.T) {
	attempts := []domain.MetaAttempt{
		{Source: "oembed", ErrorCode: domain.ErrCodeFetchFailed, ErrorMsg: "HTTP 403"},
		{Source: "synth"},
	}
	got := formatAttemptChain(attempts, -1)
	if got == "" {
		t.Fatalf("期望非空 attempt chain")
	}
}

func TestParseResolveArgs(t *testing.T) {
	ra, err := parseResolveArgs([]string{"dQw4w9WgXcQ", "--out", "/tmp/courses", "--thumbs"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ra.Input != "dQw4w9WgXcQ" || ra.Out != "/tmp/courses" || !ra.OutSet || !ra.Thumbs || !ra.ThumbsSet {
		t.Fatalf("参数不符合预期：%+v", ra)
	}

	ra, err = parseResolveArgs([]string{"--batch=refs.txt", "--thumbs=false"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ra.Batch != "refs.txt" || ra.Thumbs || !ra.ThumbsSet {
		t.Fatalf("参数不符合预期：%+v", ra)
	}

	if _, err := parseResolveArgs(nil); err == nil {
		t.Fatalf("缺少输入应报错")
	}
	if _, err := parseResolveArgs([]string{"dQw4w9WgXcQ", "--batch", "refs.txt"}); err == nil {
		t.Fatalf("输入与 --batch 互斥")
	}
	if _, err := parseResolveArgs([]string{"--bogus"}); err == nil {
		t.Fatalf("未知参数应报错")
	}
}
