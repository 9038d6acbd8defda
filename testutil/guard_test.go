package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestInternalImportForbidden(t *testing.T) {
	cases := map[string]bool{
		"elnimport/internal/blob": true,
		"elnimport/pkg/domain":    false,
		"strings":                 false,
	}
	for in, want := range cases {
		if got := InternalImportForbidden(in); got != want {
			t.Fatalf("InternalImportForbidden(%q)=%v want %v", in, got, want)
		}
	}
}

func TestModuleImportsExcept(t *testing.T) {
	forbidden := ModuleImportsExcept("elnimport/pkg/domain")
	cases := map[string]bool{
		"elnimport/pkg/domain":      false,
		"elnimport/internal/config": true,
		"github.com/google/uuid":    false,
		"context":                   false,
	}
	for in, want := range cases {
		if got := forbidden(in); got != want {
			t.Fatalf("forbidden(%q)=%v want %v", in, got, want)
		}
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("a.go", "package x\n\nimport (\n\t\"fmt\"\n\t\"elnimport/internal/blob\"\n)\n\nvar _ = fmt.Sprint\n")
	write("a_test.go", "package x\n\nimport \"elnimport/internal/config\"\n")
	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || viols[0] != "elnimport/internal/blob (in a.go)" {
		t.Fatalf("unexpected violations %v", viols)
	}
}

type recorder struct{ msg string }

func (r *recorder) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func TestFailIfViolations(t *testing.T) {
	var r recorder
	failIfViolations(&r, "layering", nil)
	if r.msg != "" {
		t.Fatalf("unexpected failure %q", r.msg)
	}
	failIfViolations(&r, "layering", []string{"x (in a.go)"})
	if r.msg == "" {
		t.Fatal("expected failure")
	}
}
