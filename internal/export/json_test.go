package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/datachat/internal"
	"github.com/iksnae/datachat/testutil"
)

func TestJSONExporter_Export(t *testing.T) {
	tr := internal.CreateTestTranscript("t1")
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(tr, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded internal.Transcript
	testutil.JSONUnmarshal(t, buf.Bytes(), &decoded)
	if decoded.ID != "t1" || len(decoded.Messages) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if cols := decoded.Messages[1].Table.Columns(); len(cols) != 2 || cols[0] != "region" {
		t.Errorf("table columns = %v", cols)
	}

	out := buf.String()
	if !strings.Contains(out, "\n  ") {
		t.Error("JSON output should be indented")
	}
	if strings.Index(out, `"region"`) > strings.Index(out, `"revenue"`) {
		t.Error("table keys should keep row order")
	}
}

func TestJSONExporter_Extension(t *testing.T) {
	if got := (&JSONExporter{}).Extension(); got != "json" {
		t.Errorf("Extension() = %q, want json", got)
	}
}
