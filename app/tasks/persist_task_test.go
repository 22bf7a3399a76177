package tasks

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/catalog"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/database"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/parser"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/pipeline"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/review"
)

func generated(contentID string) *pipeline.Result {
	kakao := parser.Parse("kakao", "브릿츠메디가 태국에 진출합니다.")
	env := parser.Wrap("kakao", kakao)

	return &pipeline.Result{
		ContentID: contentID,
		Channels: []pipeline.ChannelResult{
			{
				Channel:     "kakao",
				Text:        "브릿츠메디가 태국에 진출합니다.",
				Parsed:      &env,
				CharCount:   kakao.Count(),
				RangeStatus: catalog.RangeBelow,
				Issues:      []review.Issue{{Severity: review.SeverityCritical, Category: review.CategoryFactOmission, Quote: "300대"}},
				Fixed:       true,
			},
			{
				Channel: "instagram",
				Text:    "⚠️ 생성 실패: overloaded",
				Err:     errors.New("overloaded"),
			},
		},
	}
}

func TestPersistTask_Execute(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	contents := database.NewContentRepository(db)
	channels := database.NewChannelRepository(db)

	c := &database.Content{Title: "토르RF 태국 공급 계약", SourceType: "press_release"}
	if err := contents.CreateContent(ctx, c); err != nil {
		t.Fatalf("Failed to create content: %v", err)
	}

	task := NewPersistTask(generated(c.ID), contents, channels, database.NewFallbackWriter(t.TempDir()))
	task.Start()
	if err := task.Execute(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	rows, err := channels.ListChannels(ctx, c.ID)
	if err != nil {
		t.Fatalf("Failed to list channels: %v", err)
	}
	if len(rows) != 1 || rows[0].Channel != "kakao" {
		t.Fatalf("Expected only the successful channel to be stored, got %+v", rows)
	}
	if rows[0].Kind != parser.KindText || rows[0].RangeStatus != "below" {
		t.Errorf("Unexpected stored row %+v", rows[0])
	}
	// the fix resolved everything, so no issues are stored
	if string(rows[0].Issues) != "[]" {
		t.Errorf("Expected remaining issues to replace the findings, got %s", rows[0].Issues)
	}

	var env struct {
		Channel string `json:"channel"`
		Kind    string `json:"kind"`
	}
	if err := json.Unmarshal(rows[0].Parsed, &env); err != nil || env.Kind != parser.KindText {
		t.Errorf("Expected parsed envelope, got %s (err %v)", rows[0].Parsed, err)
	}

	got, _ := contents.GetContent(ctx, c.ID)
	if got.Status != database.StageReview {
		t.Errorf("Expected draft to move to review, got '%s'", got.Status)
	}
}

func TestPersistTask_KeepsLaterStage(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	contents := database.NewContentRepository(db)

	c := &database.Content{Title: "승인된 콘텐츠", SourceType: "research", Status: database.StageApproved}
	if err := contents.CreateContent(ctx, c); err != nil {
		t.Fatalf("Failed to create content: %v", err)
	}

	task := NewPersistTask(generated(c.ID), contents, database.NewChannelRepository(db), database.NewFallbackWriter(t.TempDir()))
	if err := task.Execute(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, _ := contents.GetContent(ctx, c.ID)
	if got.Status != database.StageApproved {
		t.Errorf("Expected approved stage to be kept, got '%s'", got.Status)
	}
}

func TestPersistTask_GiveUpWritesFallback(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	contents := database.NewContentRepository(db)
	channels := database.NewChannelRepository(db)
	dir := t.TempDir()

	// the content row does not exist, so the foreign key rejects the write
	task := NewPersistTask(generated("missing"), contents, channels, database.NewFallbackWriter(dir))
	err := task.Execute(ctx)
	if err == nil {
		t.Fatal("Expected error for missing content")
	}
	task.GiveUp(err)

	files, _ := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if len(files) != 1 {
		t.Fatalf("Expected one fallback file, got %v", files)
	}
	f, err := os.Open(files[0])
	if err != nil {
		t.Fatalf("Failed to open fallback file: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec database.FallbackRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("Invalid fallback line: %v", err)
		}
		if rec.Kind != "channel_content" || rec.Err == "" {
			t.Errorf("Unexpected fallback record %+v", rec)
		}
		lines++
	}
	if lines != 1 {
		t.Errorf("Expected one fallback record, got %d", lines)
	}
}

type refusingScheduler struct{}

func (refusingScheduler) Start() {}

func (refusingScheduler) Stop() {}

func (refusingScheduler) EnqueueTask(TaskInterface) error {
	return errors.New("task queue is full")
}

func TestPersistHook(t *testing.T) {
	dir := t.TempDir()
	hook := PersistHook(refusingScheduler{}, nil, nil, database.NewFallbackWriter(dir))

	if err := hook(context.Background(), &pipeline.Result{}); err != nil {
		t.Errorf("Expected ad-hoc results to be ignored, got %v", err)
	}

	if err := hook(context.Background(), generated("c-1")); err == nil {
		t.Error("Expected error when the queue refuses the task")
	}
	if files, _ := filepath.Glob(filepath.Join(dir, "*.jsonl")); len(files) != 1 {
		t.Errorf("Expected refused result in the fallback log, got %v", files)
	}
}
