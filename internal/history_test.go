package internal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iksnae/datachat/testutil"
)

func openTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := OpenHistory(testutil.TempDBPath(t))
	if err != nil {
		t.Fatalf("OpenHistory() error = %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestHistory_SaveAndLoad(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()
	want := CreateTestTranscript("session-1")

	if err := h.SaveTranscript(ctx, want); err != nil {
		t.Fatalf("SaveTranscript() error = %v", err)
	}

	got, err := h.LoadTranscript(ctx, "session-1")
	if err != nil {
		t.Fatalf("LoadTranscript() error = %v", err)
	}
	if got.ActiveDataset != "sales_2024" {
		t.Errorf("ActiveDataset = %q, want sales_2024", got.ActiveDataset)
	}
	if !got.StartedAt.Equal(want.StartedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("times = %v / %v, want %v / %v", got.StartedAt, got.UpdatedAt, want.StartedAt, want.UpdatedAt)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(got.Messages))
	}

	answer := got.Messages[1]
	if answer.Role != RoleAssistant || answer.Summary != "North leads revenue." {
		t.Errorf("answer = %+v", answer)
	}
	if answer.VisualizationURL != "/visualizations/chart_1.html" {
		t.Errorf("VisualizationURL = %q", answer.VisualizationURL)
	}
	if cols := answer.Table.Columns(); len(cols) != 2 || cols[0] != "region" || cols[1] != "revenue" {
		t.Errorf("table columns = %v, want [region revenue]", cols)
	}
	if v := answer.Table.Cell(1, "revenue"); v != nil {
		t.Errorf("null cell round-tripped as %v", v)
	}
	if got.Messages[0].Table != nil {
		t.Error("message without a table should load with a nil table")
	}
}

func TestHistory_SaveReplacesMessages(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()

	tr := CreateTestTranscript("session-1")
	if err := h.SaveTranscript(ctx, tr); err != nil {
		t.Fatalf("SaveTranscript() error = %v", err)
	}

	tr.Messages = append(tr.Messages, Message{
		ID: "3", Role: RoleUser, Content: "and by month?", CreatedAt: tr.UpdatedAt.Add(time.Minute),
	})
	tr.UpdatedAt = tr.UpdatedAt.Add(time.Minute)
	if err := h.SaveTranscript(ctx, tr); err != nil {
		t.Fatalf("second SaveTranscript() error = %v", err)
	}

	got, err := h.LoadTranscript(ctx, "session-1")
	if err != nil {
		t.Fatalf("LoadTranscript() error = %v", err)
	}
	if len(got.Messages) != 3 || got.Messages[2].Content != "and by month?" {
		t.Errorf("messages after re-save = %+v", got.Messages)
	}
}

func TestHistory_ListMostRecentFirst(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()

	older := CreateTestTranscript("older")
	newer := CreateTestTranscript("newer")
	newer.UpdatedAt = older.UpdatedAt.Add(time.Hour)
	empty := CreateTestTranscriptWithMessages("empty", nil)

	for _, tr := range []*Transcript{older, newer, empty} {
		if err := h.SaveTranscript(ctx, tr); err != nil {
			t.Fatalf("SaveTranscript(%s) error = %v", tr.ID, err)
		}
	}

	list, err := h.ListTranscripts(ctx)
	if err != nil {
		t.Fatalf("ListTranscripts() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len(ListTranscripts()) = %d, want 3", len(list))
	}
	if list[0].ID != "newer" || list[1].ID != "older" || list[2].ID != "empty" {
		t.Errorf("order = %s, %s, %s", list[0].ID, list[1].ID, list[2].ID)
	}
	if list[0].MessageCount != 2 || list[0].FirstQuestion != "What is total revenue by region?" {
		t.Errorf("summary = %+v", list[0])
	}
	if list[2].MessageCount != 0 || list[2].FirstQuestion != "" {
		t.Errorf("empty summary = %+v", list[2])
	}
}

func TestHistory_Errors(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{
			name: "load missing",
			run: func() error {
				_, err := h.LoadTranscript(ctx, "nope")
				return err
			},
			wantErr: ErrTranscriptNotFound,
		},
		{
			name:    "delete missing",
			run:     func() error { return h.DeleteTranscript(ctx, "nope") },
			wantErr: ErrTranscriptNotFound,
		},
		{
			name:    "save without id",
			run:     func() error { return h.SaveTranscript(ctx, &Transcript{}) },
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if err == nil {
				t.Fatal("expected error")
			}
			var histErr *HistoryError
			if !errors.As(err, &histErr) {
				t.Errorf("error %T is not *HistoryError", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHistory_DeleteAndFind(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()

	for _, id := range []string{"abc-123", "abd-456"} {
		if err := h.SaveTranscript(ctx, CreateTestTranscript(id)); err != nil {
			t.Fatalf("SaveTranscript(%s) error = %v", id, err)
		}
	}

	if tr, err := h.FindTranscript(ctx, "abc"); err != nil || tr.ID != "abc-123" {
		t.Errorf("FindTranscript(abc) = %v, %v", tr, err)
	}
	if _, err := h.FindTranscript(ctx, "ab"); err == nil {
		t.Error("FindTranscript(ab) should be ambiguous")
	}
	if _, err := h.FindTranscript(ctx, "zzz"); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("FindTranscript(zzz) error = %v", err)
	}

	if err := h.DeleteTranscript(ctx, "abc-123"); err != nil {
		t.Fatalf("DeleteTranscript() error = %v", err)
	}
	if _, err := h.LoadTranscript(ctx, "abc-123"); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("deleted transcript still loads: %v", err)
	}
	list, err := h.ListTranscripts(ctx)
	if err != nil || len(list) != 1 || list[0].ID != "abd-456" {
		t.Errorf("ListTranscripts() after delete = %v, %v", list, err)
	}
}

func TestHistory_PersistsAcrossOpens(t *testing.T) {
	path := testutil.TempDBPath(t)
	ctx := context.Background()

	h, err := OpenHistory(path)
	if err != nil {
		t.Fatalf("OpenHistory() error = %v", err)
	}
	if err := h.SaveTranscript(ctx, CreateTestTranscript("kept")); err != nil {
		t.Fatalf("SaveTranscript() error = %v", err)
	}
	h.Close()

	reopened, err := OpenHistory(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.LoadTranscript(ctx, "kept"); err != nil {
		t.Errorf("LoadTranscript() after reopen error = %v", err)
	}
}
