package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/iksnae/datachat/internal"
	"github.com/iksnae/datachat/testutil"
)

func TestUploadCommand(t *testing.T) {
	dir := setupCommandEnv(t)
	api := testutil.NewFakeAPI(t, "alpha")
	api.SetUploadID("gamma")

	zipPath := testutil.CreateZipFixture(t, dir, "gamma.zip")
	out, err := executeCommand(t, "upload", zipPath, "--api-url", api.URL())
	if err != nil {
		t.Fatalf("upload error = %v", err)
	}
	if strings.TrimSpace(out) != "gamma" {
		t.Errorf("output = %q, want dataset id", out)
	}
	if uploads := api.Uploads(); len(uploads) != 1 || uploads[0] != "gamma.zip" {
		t.Errorf("service received %v", uploads)
	}
	if len(api.UploadBody("gamma.zip")) == 0 {
		t.Error("service received an empty archive")
	}
}

func TestUploadCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    func(t *testing.T, dir string) string
		wantErr error
	}{
		{
			name: "not a zip",
			file: func(t *testing.T, dir string) string {
				return testutil.CreateFileFixture(t, dir, "data.csv", []byte("a,b\n"))
			},
			wantErr: internal.ErrInvalidUploadFormat,
		},
		{
			name: "missing file",
			file: func(t *testing.T, dir string) string {
				return dir + "/missing.zip"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupCommandEnv(t)
			api := testutil.NewFakeAPI(t)

			_, err := executeCommand(t, "upload", tt.file(t, dir), "--api-url", api.URL())
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if len(api.Uploads()) != 0 {
				t.Error("nothing should reach the service")
			}
		})
	}
}

func TestUploadCommand_RequiresPath(t *testing.T) {
	setupCommandEnv(t)
	if _, err := executeCommand(t, "upload"); err == nil {
		t.Error("upload without a path should fail")
	}
}
