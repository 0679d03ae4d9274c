package recovery

import (
	"strconv"

	"github.com/SC5KSystems/Auto-Form-Recovery/api/schemas"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/dom"
)

// ResolveKey derives the deterministic storage key for a form: the page
// base (origin + path, query string and fragment excluded) joined with the
// form's id, else its name, else its zero-based position among the page's
// forms. Two forms sharing an explicit id or name on one page resolve to
// the same key and the last write wins; that collision is a documented
// limitation, not corrected here.
func ResolveKey(page *dom.Page, form *dom.Form) schemas.FormKey {
	identifier := form.Attr("id")
	if identifier == "" {
		identifier = form.Attr("name")
	}
	if identifier == "" {
		identifier = strconv.Itoa(form.Index())
	}
	return schemas.ComposeFormKey(PageBase(page), identifier)
}

// PageBase returns the origin+path half of every key on the page, or the
// "unknown" sentinel when the page location could not be parsed.
func PageBase(page *dom.Page) string {
	loc := page.Location()
	if loc == nil {
		return schemas.UnknownPage
	}
	return loc.Scheme + "://" + loc.Host + loc.Path
}
