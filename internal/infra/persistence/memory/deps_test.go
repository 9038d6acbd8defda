package memory

import (
	"testing"

	"elnimport/testutil"
)

func TestImportsAreDomainOrStdlib(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.ModuleImportsExcept("elnimport/pkg/domain"), "memory store depends on the domain only")
}
