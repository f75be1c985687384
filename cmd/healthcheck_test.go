package cmd

import (
	"bytes"
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/datachat/internal"
	"github.com/iksnae/datachat/testutil"
)

func TestHealthcheckCommand(t *testing.T) {
	tests := []struct {
		name    string
		fail    int
		want    []string
		wantErr bool
	}{
		{
			name: "all good",
			want: []string{"Configuration loaded", "Service reachable, 2 dataset(s)", "Transcript archive readable", "Visualization directory writable", "Health check passed!"},
		},
		{
			name:    "service down",
			fail:    http.StatusInternalServerError,
			want:    []string{"Service unreachable", "Health check failed"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupCommandEnv(t)
			api := testutil.NewFakeAPI(t, "alpha", "beta")
			if tt.fail != 0 {
				api.FailWith(tt.fail)
			}

			out, err := executeCommand(t, "healthcheck", "--api-url", api.URL(), "--history-db", filepath.Join(dir, "h.db"))
			if (err != nil) != tt.wantErr {
				t.Fatalf("healthcheck error = %v, wantErr %v", err, tt.wantErr)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestHealthcheckCommandExists(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "healthcheck" {
			found = true
			break
		}
	}

	if !found {
		t.Error("healthcheck command not found in root command")
	}
}

func TestRunHealthChecks_Order(t *testing.T) {
	dir := setupCommandEnv(t)
	api := testutil.NewFakeAPI(t)
	cfg := internal.DefaultConfig()
	cfg.APIBaseURL = api.URL()
	cfg.HistoryPath = filepath.Join(dir, "h.db")
	cfg.VisualizationDir = filepath.Join(dir, "viz")

	results := runHealthChecks(context.Background(), cfg)
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	names := []string{"Analysis service", "Transcript archive", "Visualization directory"}
	for i, name := range names {
		if results[i].Name != name {
			t.Errorf("results[%d].Name = %q, want %q", i, results[i].Name, name)
		}
	}
	if results[0].Status != checkWarn {
		t.Errorf("empty service should warn, got %v", results[0].Status)
	}

	var buf bytes.Buffer
	if failed := printHealthResults(&buf, results, true); failed != 0 {
		t.Errorf("failed = %d, want 0", failed)
	}
}
