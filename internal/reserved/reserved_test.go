package reserved

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckNameRejectsBrand(t *testing.T) {
	for _, name := range []string{
		"samla",
		"SAMLA",
		"  samla  ",
		"Sámla",
		"S.A.M.L.A",
		"My Samla Clinic",
		"samlaapp",
	} {
		assert.NotEmpty(t, CheckName(name), "expected %q to be rejected", name)
	}
}

func TestCheckNameAllowsRegularNames(t *testing.T) {
	for _, name := range []string{
		"Acme Dental",
		"Clinica San Martín",
		"dental-admin", // "admin" is reserved only as an exact normalized match
		"Sam's Laundry",
	} {
		assert.Empty(t, CheckName(name), "expected %q to be allowed", name)
	}
}

func TestCheckNameRejectsReservedWords(t *testing.T) {
	assert.NotEmpty(t, CheckName("Admin"))
	assert.NotEmpty(t, CheckName("support"))
	assert.NotEmpty(t, CheckName("  Billing "))
}

func TestCheckNameEmptyInput(t *testing.T) {
	assert.Empty(t, CheckName(""))
	assert.Empty(t, CheckName("!!!"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "samla", Normalize("  SáMLA!  "))
	assert.Equal(t, "acmedental", Normalize("Acme Dental"))
	assert.Equal(t, "", Normalize("¡¿!?"))
}

func TestIsReservedSlug(t *testing.T) {
	cases := map[string]bool{
		"admin":        true,
		"admin-panel":  true,
		"samla":        true,
		"samla-demo":   true,
		"webhooks":     true,
		"dental-admin": false,
		"acme-dental":  false,
		"":             false,
	}
	for slug, want := range cases {
		assert.Equal(t, want, IsReservedSlug(slug), "slug %q", slug)
	}
}
