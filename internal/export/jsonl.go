package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/datachat/internal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// JSONLExporter exports transcripts in JSONL format (one message per line)
type JSONLExporter struct{}

// Export exports a transcript to JSONL format
func (e *JSONLExporter) Export(t *internal.Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range t.Messages {
		obj := orderedmap.New[string, any]()
		obj.Set("transcript_id", t.ID)
		obj.Set("id", msg.ID)
		obj.Set("role", msg.Role)
		obj.Set("content", msg.Content)
		if !msg.CreatedAt.IsZero() {
			obj.Set("created_at", msg.CreatedAt.Format(time.RFC3339))
		}
		if len(msg.Table) > 0 {
			obj.Set("table", msg.Table)
		}
		if msg.VisualizationURL != "" {
			obj.Set("visualizationUrl", msg.VisualizationURL)
		}
		if msg.VisualizationHTML != "" {
			obj.Set("visualizationHtml", msg.VisualizationHTML)
		}

		// Encode to single line
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode message %s: %w", msg.ID, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
