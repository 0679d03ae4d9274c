// Package recovery implements the form-identity and classification engine:
// deriving stable storage keys for forms, deciding which forms are login
// forms (and must never be persisted), deciding which fields are eligible,
// and snapshotting/restoring eligible field values against the shared
// key-value store.
package recovery

import (
	"fmt"
	"strings"

	"github.com/SC5KSystems/Auto-Form-Recovery/api/schemas"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/dom"
)

// Eligible reports whether a form control may be saved and restored. Pure
// predicate, no side effects. Controls outside the input/textarea/select
// tag set are never eligible; within it, sensitive input types and explicit
// opt-outs are excluded.
func Eligible(c *dom.Control) bool {
	switch c.Tag() {
	case "input", "textarea", "select":
	default:
		return false
	}
	if c.Tag() == "input" {
		switch c.Type() {
		case "password", "hidden", "file":
			return false
		}
	}
	if strings.EqualFold(strings.TrimSpace(c.Attr("autocomplete")), "off") {
		return false
	}
	if c.Attr("data-autorecovery") == "false" {
		return false
	}
	return true
}

// FieldKey derives the per-field storage key: the control's name, else its
// id, else a synthesized "{tag}_{index}" fallback. Named checkbox/radio
// controls additionally incorporate their candidate value so same-named
// mutually-exclusive controls do not collide. Save and restore must use
// this identical derivation or matching silently fails.
func FieldKey(c *dom.Control) string {
	name := c.Attr("name")
	if c.IsCheckable() && name != "" {
		return name + schemas.KeySeparator + c.Attr("value")
	}
	if name != "" {
		return name
	}
	if id := c.Attr("id"); id != "" {
		return id
	}
	return fmt.Sprintf("%s_%d", c.Tag(), c.Index())
}
