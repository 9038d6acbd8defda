package importer

import (
	"testing"

	"elnimport/testutil"
)

func TestImporterDoesNotDependOnBackends(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.ModuleImportsExcept(
		"elnimport/internal/archive",
		"elnimport/internal/chem",
		"elnimport/internal/diagnostics",
		"elnimport/internal/logging",
		"elnimport/internal/manifest",
		"elnimport/internal/observability",
		"elnimport/pkg/domain",
	), "stores and blob backends are injected")
}
