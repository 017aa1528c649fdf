package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexi/pkg/models"
)

func TestAllTemplates(t *testing.T) {
	all := All()
	require.Len(t, all, 11)

	seen := map[string]bool{}
	for _, tmpl := range all {
		assert.False(t, seen[tmpl.ID], "duplicate id %s", tmpl.ID)
		seen[tmpl.ID] = true
		assert.NotEmpty(t, tmpl.RequiredFields, tmpl.Name)
	}
}

func TestCatalogIsReadOnly(t *testing.T) {
	nda, ok := Lookup("5")
	require.True(t, ok)
	nda.RequiredFields[0] = "tampered"

	again, _ := Lookup("5")
	assert.Equal(t, []string{"Disclosing Party", "Receiving Party"}, again.RequiredFields)
}

func TestResolve(t *testing.T) {
	byID, ok := Resolve("5")
	require.True(t, ok)
	assert.Equal(t, models.CategoryNDA, byID.Name)

	byName, ok := Resolve("non-disclosure agreement (nda)")
	require.True(t, ok)
	assert.Equal(t, "5", byName.ID)

	_, ok = Resolve("Prenup")
	assert.False(t, ok)
}

func TestSearch(t *testing.T) {
	leases := Search("LEASE")
	var names []models.DocumentCategory
	for _, tmpl := range leases {
		names = append(names, tmpl.Name)
	}
	assert.Equal(t, []models.DocumentCategory{
		models.CategoryResidentialLease,
		models.CategoryCommercialLease,
		models.CategorySublease,
	}, names)

	// description match
	byDescription := Search("bylaws")
	require.Len(t, byDescription, 1)
	assert.Equal(t, models.CategoryCorporate, byDescription[0].Name)

	assert.Len(t, Search(""), 11)
	assert.Empty(t, Search("zzz"))
}
