package internal

import (
	"encoding/json"
	"strconv"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Row is one table row. Column order follows the order of keys in the gateway payload.
type Row = orderedmap.OrderedMap[string, any]

// Table is an ordered sequence of rows returned by a query
type Table []*Row

// NewRow builds a row from alternating column/value pairs
func NewRow(pairs ...any) *Row {
	row := orderedmap.New[string, any]()
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		row.Set(key, pairs[i+1])
	}
	return row
}

// Columns returns the column names in iteration order of the first non-null row
func (t Table) Columns() []string {
	for _, row := range t {
		if row == nil {
			continue
		}
		cols := make([]string, 0, row.Len())
		for pair := row.Oldest(); pair != nil; pair = pair.Next() {
			cols = append(cols, pair.Key)
		}
		return cols
	}
	return nil
}

// Cell returns the value of column in row i, or nil when absent
func (t Table) Cell(i int, column string) any {
	if i < 0 || i >= len(t) || t[i] == nil {
		return nil
	}
	v, _ := t[i].Get(column)
	return v
}

// FormatCell renders a scalar cell as its primitive text; nil becomes ""
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Message is one turn in the conversation
type Message struct {
	ID                string    `json:"id"`
	Role              Role      `json:"role"`
	Content           string    `json:"content"`
	Summary           string    `json:"summary,omitempty"`
	Table             Table     `json:"table,omitempty"`
	VisualizationHTML string    `json:"visualizationHtml,omitempty"`
	VisualizationURL  string    `json:"visualizationUrl,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// HasVisualization reports whether the message carries inline markup or a hosted reference
func (m Message) HasVisualization() bool {
	return m.VisualizationHTML != "" || m.VisualizationURL != ""
}

// Dataset is a data source previously uploaded to the gateway
type Dataset struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// NewDataset returns a dataset whose display name defaults to its identifier
func NewDataset(id string) Dataset {
	return Dataset{ID: id, Name: id}
}

// Transcript is a saved copy of one session's message log
type Transcript struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	ActiveDataset string    `json:"active_dataset,omitempty"`
	Messages      []Message `json:"messages"`
}

// TranscriptSummary is an archive listing entry
type TranscriptSummary struct {
	ID            string
	StartedAt     time.Time
	UpdatedAt     time.Time
	ActiveDataset string
	MessageCount  int
	FirstQuestion string
}
