package permissions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterModulePreventsDuplicates(t *testing.T) {
	code := "TEST_UNIQUE_MODULE"
	require.NoError(t, RegisterModule(ModuleDef{Code: code, Name: "Test"}))
	t.Cleanup(func() {
		removeModule(code)
	})

	err := RegisterModule(ModuleDef{Code: code, Name: "Test again"})
	require.Error(t, err)
}

func TestRegisterModuleNormalisesCode(t *testing.T) {
	require.NoError(t, RegisterModule(ModuleDef{Code: "  lowercase_module  ", Name: "Lower"}))
	t.Cleanup(func() {
		removeModule("LOWERCASE_MODULE")
	})

	def, ok := GetModule("lowercase_module")
	require.True(t, ok)
	require.Equal(t, "LOWERCASE_MODULE", def.Code)
}

func TestRegisterTypeRejectsMultiLetterCodes(t *testing.T) {
	err := RegisterType(TypeDef{Code: "XY", Name: "Invalid"})
	require.Error(t, err)
}

func TestPermissionName(t *testing.T) {
	require.Equal(t, "EMPLOYEES_R", PermissionName("employees", "r"))
}

func TestBuildCatalogCrossProduct(t *testing.T) {
	catalog := BuildCatalog()

	require.NotEmpty(t, catalog.Modules)
	require.Len(t, catalog.Types, 6)
	require.Len(t, catalog.Permissions, len(catalog.Modules)*len(catalog.Types))
	require.Contains(t, catalog.Permissions, "EMPLOYEES_R")
	require.Contains(t, catalog.Permissions, "DEVELOPMENT_PLANS_A")
}
