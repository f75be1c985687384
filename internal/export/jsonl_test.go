package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/datachat/internal"
)

func TestJSONLExporter_Export(t *testing.T) {
	tests := []struct {
		name      string
		tr        *internal.Transcript
		wantLines int
	}{
		{
			name:      "answered question",
			tr:        internal.CreateTestTranscript("t1"),
			wantLines: 2,
		},
		{
			name:      "empty transcript",
			tr:        internal.CreateTestTranscriptWithMessages("t2", nil),
			wantLines: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&JSONLExporter{}).Export(tt.tr, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			lines := 0
			scanner := bufio.NewScanner(&buf)
			for scanner.Scan() {
				lines++
				var obj map[string]any
				if err := json.Unmarshal(scanner.Bytes(), &obj); err != nil {
					t.Errorf("line %d is not JSON: %v", lines, err)
				}
				if obj["transcript_id"] != tt.tr.ID {
					t.Errorf("line %d transcript_id = %v", lines, obj["transcript_id"])
				}
			}
			if lines != tt.wantLines {
				t.Errorf("lines = %d, want %d", lines, tt.wantLines)
			}
		})
	}
}

func TestJSONLExporter_FieldOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONLExporter{}).Export(internal.CreateTestTranscript("t1"), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if !strings.HasPrefix(lines[0], `{"transcript_id":"t1","id":"1","role":"user"`) {
		t.Errorf("first line = %s", lines[0])
	}
	if !strings.Contains(lines[1], `"visualizationUrl":"/visualizations/chart_1.html"`) {
		t.Errorf("second line missing visualization: %s", lines[1])
	}
	if !strings.Contains(lines[1], `{"region":"north","revenue":1200.5}`) {
		t.Errorf("second line table = %s", lines[1])
	}
}
