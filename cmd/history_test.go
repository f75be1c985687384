package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/datachat/internal"
)

// seedArchive writes transcripts to a fresh archive and returns its path
func seedArchive(t *testing.T, dir string, transcripts ...*internal.Transcript) string {
	t.Helper()
	path := filepath.Join(dir, "history.db")
	h, err := internal.OpenHistory(path)
	if err != nil {
		t.Fatalf("OpenHistory() error = %v", err)
	}
	defer h.Close()
	for _, tr := range transcripts {
		if err := h.SaveTranscript(context.Background(), tr); err != nil {
			t.Fatalf("SaveTranscript(%s) error = %v", tr.ID, err)
		}
	}
	return path
}

func TestHistoryCommand(t *testing.T) {
	dir := setupCommandEnv(t)
	dbPath := seedArchive(t, dir, internal.CreateTestTranscript("abc12345-0000"))

	out, err := executeCommand(t, "history", "--history-db", dbPath)
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	for _, want := range []string{"Found 1 transcript(s)", "abc12345", "What is total revenue by region?", "sales_2024"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHistoryCommand_Empty(t *testing.T) {
	dir := setupCommandEnv(t)
	out, err := executeCommand(t, "history", "--history-db", filepath.Join(dir, "empty.db"))
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if !strings.Contains(out, "No transcripts found") {
		t.Errorf("output = %q", out)
	}
}

func TestHistoryDeleteCommand(t *testing.T) {
	dir := setupCommandEnv(t)
	dbPath := seedArchive(t, dir, internal.CreateTestTranscript("abc12345-0000"))

	if _, err := executeCommand(t, "history", "delete", "abc1", "--history-db", dbPath); err != nil {
		t.Fatalf("history delete error = %v", err)
	}
	out, err := executeCommand(t, "history", "--history-db", dbPath)
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if !strings.Contains(out, "No transcripts found") {
		t.Errorf("transcript still listed:\n%s", out)
	}

	if _, err := executeCommand(t, "history", "delete", "zzz", "--history-db", dbPath); err == nil {
		t.Error("deleting an unknown transcript should fail")
	}
}

func TestDisplayTranscripts_Untitled(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	displayTranscripts(&buf, []internal.TranscriptSummary{{ID: "id-1", UpdatedAt: now}}, now)
	if !strings.Contains(buf.String(), "Untitled") {
		t.Errorf("output = %q", buf.String())
	}
}
