package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestFinalizeSummaryAndUTC(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	r := RunReport{
		RunID:      "r-1",
		StartedAt:  time.Date(2024, 5, 1, 20, 0, 0, 0, loc),
		FinishedAt: time.Date(2024, 5, 1, 20, 0, 3, 0, loc),
		Courses: []CourseReport{
			{
				Status: StatusResolved,
				Items: []ItemResult{
					{ID: "aaaaaaaaaaa", Status: StatusResolved},
					{ID: "bbbbbbbbbbb", Status: StatusResolved},
				},
			},
			{
				Status: StatusPartial,
				Items: []ItemResult{
					{ID: "ccccccccccc", Status: StatusResolved},
					{ID: "ddddddddddd", Status: StatusFailed, ErrorCode: ErrCodeFetchFailed},
				},
				Files: []FileResult{
					{Path: "PL1/course.json", Kind: "course_json", Status: FileStatusWritten},
					{Path: "PL1/thumbs/ccccccccccc.jpg", Kind: "thumb", Status: FileStatusFailed},
				},
			},
			{Status: StatusFailed, ErrorCode: ErrCodeInvalidReference},
		},
	}

	r.Finalize()

	if r.StartedAt.Location() != time.UTC || r.FinishedAt.Location() != time.UTC {
		t.Fatalf("期望时间归一化为 UTC，实际 %v / %v", r.StartedAt.Location(), r.FinishedAt.Location())
	}
	if r.Summary.Resolved != 1 || r.Summary.Partial != 1 || r.Summary.Failed != 1 {
		t.Fatalf("期望 summary 1/1/1，实际 %d/%d/%d",
			r.Summary.Resolved, r.Summary.Partial, r.Summary.Failed)
	}
	if r.Summary.Items != 4 || r.Summary.ItemsFailed != 1 {
		t.Fatalf("期望 items=4 failed=1，实际 %d/%d", r.Summary.Items, r.Summary.ItemsFailed)
	}
	if r.Summary.FilesFailed != 1 {
		t.Fatalf("期望 files_failed=1，实际 %d", r.Summary.FilesFailed)
	}
}

func TestReportJSONKeepsItemOrder(t *testing.T) {
	r := RunReport{
		Courses: []CourseReport{{
			Status: StatusResolved,
			Items: []ItemResult{
				{ID: "zzzzzzzzzzz", Status: StatusResolved},
				{ID: "aaaaaaaaaaa", Status: StatusResolved},
				{ID: "mmmmmmmmmmm", Status: StatusResolved},
			},
		}},
	}
	r.Finalize()

	raw, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	s := string(raw)
	zi := strings.Index(s, "zzzzzzzzzzz")
	ai := strings.Index(s, "aaaaaaaaaaa")
	mi := strings.Index(s, "mmmmmmmmmmm")
	if !(zi < ai && ai < mi) {
		t.Fatalf("期望条目保持解析顺序，实际 JSON：%s", s)
	}

	var back RunReport
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(back.Courses) != 1 || len(back.Courses[0].Items) != 3 {
		t.Fatalf("期望回读 1 门课 3 条目，实际 %d/%d",
			len(back.Courses), len(back.Courses[0].Items))
	}
	if back.Courses[0].Items[0].ID != "zzzzzzzzzzz" {
		t.Fatalf("期望首条目 zzzzzzzzzzz，实际 %s", back.Courses[0].Items[0].ID)
	}
}

func TestFinalizeTimesRFC3339Z(t *testing.T) {
	r := RunReport{
		StartedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", -5*3600)),
		FinishedAt: time.Date(2024, 5, 1, 12, 0, 1, 0, time.FixedZone("X", -5*3600)),
	}
	r.Finalize()

	raw, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !strings.Contains(string(raw), `"started_at":"2024-05-01T17:00:00Z"`) {
		t.Fatalf("期望 UTC Z 后缀时间，实际 %s", raw)
	}
}
