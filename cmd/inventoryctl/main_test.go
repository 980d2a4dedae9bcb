package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestResourceArg(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "equipment", args: []string{"equipment"}},
		{name: "software", args: []string{"software"}},
		{name: "subscriptions", args: []string{"subscriptions"}},
		{name: "missing", args: nil, wantErr: "resource is required"},
		{name: "unknown", args: []string{"printers"}, wantErr: `unknown resource "printers"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := resourceArg(&cobra.Command{}, tt.args)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestResourceKeys(t *testing.T) {
	if got, want := resourceKeys(), "equipment, software, subscriptions"; got != want {
		t.Errorf("resourceKeys() = %q, want %q", got, want)
	}
}

// Argument validation runs before configuration is loaded, so these fail
// without any environment or database.
func TestArgumentErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "import unknown resource", args: []string{"import", "printers", "a.csv"}, wantErr: "unknown resource"},
		{name: "import not csv", args: []string{"import", "software", "a.xlsx"}, wantErr: "a.xlsx"},
		{name: "import missing file", args: []string{"import", "software"}, wantErr: "accepts 2 arg(s)"},
		{name: "preview non-equipment", args: []string{"import", "software", "a.csv", "--preview"}, wantErr: "only supported for equipment"},
		{name: "export unknown", args: []string{"export", "printers"}, wantErr: "unknown resource"},
		{name: "migrate extra arg", args: []string{"migrate", "now"}, wantErr: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCmd()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetErr(&out)
			root.SetArgs(tt.args)

			err := root.Execute()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestWriteExportFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("writes rows", func(t *testing.T) {
		path := filepath.Join(dir, "equipment.csv")
		n, err := writeExportFile(path, func(w io.Writer) (int, error) {
			_, err := io.WriteString(w, "Equipment ID\nPC-0001\n")
			return 1, err
		})
		if err != nil || n != 1 {
			t.Fatalf("writeExportFile = %d, %v", n, err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "Equipment ID\nPC-0001\n" {
			t.Errorf("file = %q", got)
		}
	})

	t.Run("write error wins", func(t *testing.T) {
		boom := errors.New("query failed")
		_, err := writeExportFile(filepath.Join(dir, "failed.csv"), func(io.Writer) (int, error) {
			return 0, boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want %v", err, boom)
		}
	})

	t.Run("close error reported", func(t *testing.T) {
		_, err := writeExportFile(filepath.Join(dir, "closed.csv"), func(w io.Writer) (int, error) {
			// Closing early makes the deferred close fail.
			return 0, w.(*os.File).Close()
		})
		if !errors.Is(err, os.ErrClosed) {
			t.Errorf("err = %v, want os.ErrClosed", err)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := writeExportFile(filepath.Join(dir, "nope", "x.csv"), func(io.Writer) (int, error) {
			t.Error("write called without a file")
			return 0, nil
		})
		if err == nil {
			t.Error("want create error")
		}
	})
}
