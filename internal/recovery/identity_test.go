package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SC5KSystems/Auto-Form-Recovery/api/schemas"
)

func TestResolveKeyDeterminism(t *testing.T) {
	t.Parallel()

	// The same form with an id resolves identically on every call,
	// independent of the other forms present.
	page := mustPage(t, `
		<form></form>
		<form id="contact"><input name="msg"></form>
		<form name="other"></form>`, "https://example.com/page")

	form := page.Forms()[1]
	first := ResolveKey(page, form)
	assert.Equal(t, schemas.FormKey("https://example.com/page::contact"), first)
	assert.Equal(t, first, ResolveKey(page, form))
}

func TestResolveKeyFallbackOrdering(t *testing.T) {
	t.Parallel()

	page := mustPage(t, `
		<form id="withid" name="alsonamed"></form>
		<form name="namedonly"></form>
		<form></form>`, "https://example.com/app")

	forms := page.Forms()
	assert.Equal(t, schemas.FormKey("https://example.com/app::withid"), ResolveKey(page, forms[0]), "id wins over name")
	assert.Equal(t, schemas.FormKey("https://example.com/app::namedonly"), ResolveKey(page, forms[1]))
	assert.Equal(t, schemas.FormKey("https://example.com/app::2"), ResolveKey(page, forms[2]), "anonymous form uses its zero-based index")
}

func TestResolveKeyExcludesQueryAndFragment(t *testing.T) {
	t.Parallel()

	withQuery := mustPage(t, `<form id="f"></form>`, "https://example.com/page?step=2#section")
	plain := mustPage(t, `<form id="f"></form>`, "https://example.com/page")

	assert.Equal(t,
		ResolveKey(plain, onlyForm(t, plain)),
		ResolveKey(withQuery, onlyForm(t, withQuery)),
		"forms on the same path with different query strings collide intentionally")
}

func TestResolveKeyUnknownLocation(t *testing.T) {
	t.Parallel()

	page := mustPage(t, `<form id="f"></form>`, "not a url")
	assert.Equal(t, schemas.FormKey("unknown::f"), ResolveKey(page, onlyForm(t, page)))
}

func TestResolveKeyDuplicateIDsCollide(t *testing.T) {
	t.Parallel()

	// Duplicate explicit ids are indistinguishable by design; the last
	// write wins downstream.
	page := mustPage(t, `<form id="dup"></form><form id="dup"></form>`, "https://example.com/")
	forms := page.Forms()
	require.Len(t, forms, 2)
	assert.Equal(t, ResolveKey(page, forms[0]), ResolveKey(page, forms[1]))
}
