package cmd

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/iksnae/datachat/internal"
	"github.com/iksnae/datachat/testutil"
)

func TestDatasetsCommand(t *testing.T) {
	tests := []struct {
		name     string
		datasets []string
		fail     int
		want     []string
		wantErr  bool
	}{
		{
			name:     "service order",
			datasets: []string{"alpha", "beta"},
			want:     []string{"Found 2 dataset(s)", "alpha", "beta"},
		},
		{
			name: "no datasets",
			want: []string{"No datasets found", "datachat upload"},
		},
		{
			name:    "service failure",
			fail:    http.StatusServiceUnavailable,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupCommandEnv(t)
			api := testutil.NewFakeAPI(t, tt.datasets...)
			if tt.fail != 0 {
				api.FailWith(tt.fail)
			}

			out, err := executeCommand(t, "datasets", "--api-url", api.URL())
			if (err != nil) != tt.wantErr {
				t.Fatalf("datasets error = %v, wantErr %v", err, tt.wantErr)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			if len(tt.datasets) == 2 && strings.Index(out, "alpha") > strings.Index(out, "beta") {
				t.Error("datasets should be listed in service order")
			}
		})
	}
}

func TestDisplayDatasets_MarksActive(t *testing.T) {
	var buf bytes.Buffer
	displayDatasets(&buf, []internal.Dataset{internal.NewDataset("gamma"), internal.NewDataset("alpha")}, "gamma")
	if !strings.Contains(buf.String(), "gamma (active)") {
		t.Errorf("active dataset not marked:\n%s", buf.String())
	}
}
