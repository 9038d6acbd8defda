package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeArchive(t *testing.T, dir string, manifest string) string {
	t.Helper()
	path := filepath.Join(dir, "export.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("export.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, manifest); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testChdir(t, dir)
	t.Setenv("ELNIMPORT_STORAGE_DRIVER", "memory")
	t.Setenv("ELNIMPORT_BLOB_DRIVER", "memory")
	t.Setenv("ELNIMPORT_IMPORT_STAGING_ROOT", filepath.Join(dir, "staging"))
	t.Setenv("ELNIMPORT_LOG_LEVEL", "error")
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunPrintsJSONReport(t *testing.T) {
	dir := isolate(t)
	archive := writeArchive(t, dir, `{"Collection":{"c1":{"label":"Project"}},"Sample":{"s1":{"name":"x"}},"CollectionsSample":{"j1":{"collection_id":"c1","sample_id":"s1"}}}`)
	out, _, err := execute(t, "run", "--archive", archive, "--actor", "42", "--format", "json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var report struct {
		Counts map[string]int `json:"counts"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report %q: %v", out, err)
	}
	if report.Counts["Collection"] != 1 || report.Counts["Sample"] != 1 {
		t.Fatalf("unexpected counts %v", report.Counts)
	}
	left, _ := os.ReadDir(filepath.Join(dir, "staging"))
	if len(left) != 0 {
		t.Fatalf("staging not cleaned: %d entries", len(left))
	}
}

func TestRunReportsMetricsAndFailures(t *testing.T) {
	dir := isolate(t)
	archive := writeArchive(t, dir, `{"Residue":{"r1":{"sample_id":"missing"}}}`)
	out, errOut, err := execute(t, "run", "--archive", archive, "--actor", "42", "--metrics")
	if err == nil || !strings.Contains(err.Error(), "stage residues") {
		t.Fatalf("expected residues failure, got %v", err)
	}
	if !strings.Contains(out, "attachments: 0") {
		t.Fatalf("text report missing: %q", out)
	}
	if !strings.Contains(errOut, `elnimport_operations_total{operation="stage.residues",status="error"} 1`) {
		t.Fatalf("metrics missing failed stage: %s", errOut)
	}
}

func TestRunRequiresFlags(t *testing.T) {
	isolate(t)
	if _, _, err := execute(t, "run", "--archive", "x.zip"); err == nil || !strings.Contains(err.Error(), "actor") {
		t.Fatalf("expected missing actor error, got %v", err)
	}
	if _, _, err := execute(t, "run", "--archive", "x.zip", "--actor", "1", "--format", "xml"); err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestRunRejectsUnknownStorageDriver(t *testing.T) {
	dir := isolate(t)
	t.Setenv("ELNIMPORT_STORAGE_DRIVER", "cassandra")
	archive := writeArchive(t, dir, `{}`)
	if _, _, err := execute(t, "run", "--archive", archive, "--actor", "1"); err == nil || !strings.Contains(err.Error(), "storage.driver") {
		t.Fatalf("expected config error, got %v", err)
	}
}

// testChdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent to testing.T.Chdir in Go 1.24+).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
