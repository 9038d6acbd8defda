package blob

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// storageBoundaries lists infra packages together with the only module
// packages allowed to import them. Everything else goes through blob.Store
// or domain.PersistentStore.
var storageBoundaries = []struct {
	infra   string
	allowed []string
}{
	{infra: "elnimport/internal/infra/blob", allowed: []string{"elnimport/internal/blob"}},
	{infra: "elnimport/internal/infra/persistence/sqlite", allowed: []string{"elnimport/cmd/elnimport"}},
	{infra: "elnimport/internal/infra/persistence/postgres", allowed: []string{"elnimport/cmd/elnimport"}},
}

func TestStorageDriversStayBehindTheirFacades(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "elnimport/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	if len(pkgs) == 0 {
		t.Fatal("no packages loaded")
	}

	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		for _, b := range storageBoundaries {
			if within(pkg.PkgPath, b.infra) || withinAny(pkg.PkgPath, b.allowed) {
				continue
			}
			for importPath := range pkg.Imports {
				if within(importPath, b.infra) {
					seen[pkg.PkgPath+": "+importPath] = struct{}{}
				}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("storage driver imported past its facade: %s", v)
		}
		t.Fatalf("found %d forbidden storage driver imports", len(violations))
	}
}

// within reports whether path is prefix or one of its subpackages. Test
// variants such as "pkg [pkg.test]" and "pkg_test" count as pkg.
func within(path, prefix string) bool {
	path, _, _ = strings.Cut(path, " ")
	path = strings.TrimSuffix(path, "_test")
	path = strings.TrimSuffix(path, ".test")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func withinAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if within(path, p) {
			return true
		}
	}
	return false
}
