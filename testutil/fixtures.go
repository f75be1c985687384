package testutil

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

// SampleQueryResponse is a gateway answer with a summary, a two-row table and a hosted chart
const SampleQueryResponse = `{
  "summary": "Revenue grew in both regions.",
  "table": [
    {"region": "north", "revenue": 1200.5, "growth": null},
    {"region": "south", "revenue": 980, "growth": 0.12}
  ],
  "visualizationUrl": "/visualizations/chart_1.html"
}`

// CreateZipFixture writes a dataset archive containing one ndjson file and returns its path
func CreateZipFixture(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip fixture: %v", err)
	}
	defer func() { _ = f.Close() }()

	zw := zip.NewWriter(f)
	w, err := zw.Create("orders.ndjson")
	if err != nil {
		t.Fatalf("Failed to add zip entry: %v", err)
	}
	if _, err := w.Write([]byte("{\"id\":1,\"total\":10}\n{\"id\":2,\"total\":20}\n")); err != nil {
		t.Fatalf("Failed to write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip fixture: %v", err)
	}
	return path
}

// CreateFileFixture writes data to dir/name and returns the path
func CreateFileFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return path
}
