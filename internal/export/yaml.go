package export

import (
	"io"
	"time"

	"github.com/iksnae/datachat/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports transcripts in YAML format. Table columns keep
// their gateway order.
type YAMLExporter struct{}

// Export exports a transcript to YAML format
func (e *YAMLExporter) Export(t *internal.Transcript, w io.Writer) error {
	doc, err := transcriptNode(t)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	return enc.Encode(doc)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}

func transcriptNode(t *internal.Transcript) (*yaml.Node, error) {
	doc := mappingNode()
	if err := addScalars(doc,
		"id", t.ID,
		"started_at", t.StartedAt.Format(time.RFC3339),
		"updated_at", t.UpdatedAt.Format(time.RFC3339),
	); err != nil {
		return nil, err
	}
	if t.ActiveDataset != "" {
		if err := addScalars(doc, "active_dataset", t.ActiveDataset); err != nil {
			return nil, err
		}
	}

	messages := &yaml.Node{Kind: yaml.SequenceNode}
	for _, msg := range t.Messages {
		node, err := messageNode(msg)
		if err != nil {
			return nil, err
		}
		messages.Content = append(messages.Content, node)
	}
	doc.Content = append(doc.Content, keyNode("messages"), messages)
	return doc, nil
}

func messageNode(msg internal.Message) (*yaml.Node, error) {
	node := mappingNode()
	if err := addScalars(node, "id", msg.ID, "role", string(msg.Role), "content", msg.Content); err != nil {
		return nil, err
	}
	if msg.Summary != "" && msg.Summary != msg.Content {
		if err := addScalars(node, "summary", msg.Summary); err != nil {
			return nil, err
		}
	}
	if len(msg.Table) > 0 {
		table, err := tableNode(msg.Table)
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, keyNode("table"), table)
	}
	if msg.VisualizationURL != "" {
		if err := addScalars(node, "visualization_url", msg.VisualizationURL); err != nil {
			return nil, err
		}
	}
	if msg.VisualizationHTML != "" {
		if err := addScalars(node, "visualization_html", msg.VisualizationHTML); err != nil {
			return nil, err
		}
	}
	if !msg.CreatedAt.IsZero() {
		if err := addScalars(node, "created_at", msg.CreatedAt.Format(time.RFC3339)); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func tableNode(table internal.Table) (*yaml.Node, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range table {
		rowNode := mappingNode()
		if row != nil {
			for pair := row.Oldest(); pair != nil; pair = pair.Next() {
				if err := addScalars(rowNode, pair.Key, pair.Value); err != nil {
					return nil, err
				}
			}
		}
		seq.Content = append(seq.Content, rowNode)
	}
	return seq, nil
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode}
}

func keyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}

// addScalars appends alternating key/value pairs to a mapping node
func addScalars(node *yaml.Node, pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		value := &yaml.Node{}
		if err := value.Encode(pairs[i+1]); err != nil {
			return &internal.ExportError{Format: "yaml", Err: err}
		}
		node.Content = append(node.Content, keyNode(key), value)
	}
	return nil
}
