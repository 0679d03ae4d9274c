package dom

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Control is one form control (input, textarea, or select) and its
// zero-based position within its form's control list.
type Control struct {
	node  *html.Node
	index int
}

// Node exposes the underlying element node.
func (c *Control) Node() *html.Node { return c.node }

// Index is the control's position within the form's control list, used by
// the synthesized "{tag}_{index}" field-key fallback.
func (c *Control) Index() int { return c.index }

// Tag returns the lowercased element name.
func (c *Control) Tag() string { return strings.ToLower(c.node.Data) }

// Attr returns the value of the named attribute, or "" if absent.
func (c *Control) Attr(name string) string {
	return htmlquery.SelectAttr(c.node, name)
}

// HasAttr reports whether the named attribute is present at all, which is
// distinct from it being present but empty.
func (c *Control) HasAttr(name string) bool {
	for _, a := range c.node.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

// Type returns the lowercased type attribute. Empty for non-inputs or
// inputs without an explicit type.
func (c *Control) Type() string {
	return strings.ToLower(c.Attr("type"))
}

// IsCheckable reports whether the control records a checked-state rather
// than a string value.
func (c *Control) IsCheckable() bool {
	if c.Tag() != "input" {
		return false
	}
	t := c.Type()
	return t == "checkbox" || t == "radio"
}

// IsTextEntry reports whether an input counts as text-like for the login
// classifier's structural rule: type in {text, email, tel, number} or no
// type attribute at all.
func (c *Control) IsTextEntry() bool {
	if c.Tag() != "input" {
		return false
	}
	if !c.HasAttr("type") {
		return true
	}
	switch c.Type() {
	case "text", "email", "tel", "number":
		return true
	}
	return false
}

// Checked reports the presence of the checked attribute.
func (c *Control) Checked() bool { return c.HasAttr("checked") }

// SetChecked adds or removes the checked attribute.
func (c *Control) SetChecked(checked bool) {
	if checked {
		setAttr(c.node, "checked", "checked")
	} else {
		removeAttr(c.node, "checked")
	}
}

// Value returns the control's current value: the value attribute for
// inputs, the text content for textareas, and the selected option's value
// for selects ("" when nothing is selected).
func (c *Control) Value() string {
	switch c.Tag() {
	case "input":
		return c.Attr("value")
	case "textarea":
		return htmlquery.InnerText(c.node)
	case "select":
		for _, opt := range c.options() {
			if hasAttr(opt, "selected") {
				return optionValue(opt)
			}
		}
		return ""
	}
	return ""
}

// SetValue assigns the control's value. For selects the option whose value
// matches becomes the selected one; an unmatched value is a no-op, since
// restoration never creates options that the live form lacks.
func (c *Control) SetValue(v string) {
	switch c.Tag() {
	case "input":
		setAttr(c.node, "value", v)
	case "textarea":
		for child := c.node.FirstChild; child != nil; {
			next := child.NextSibling
			c.node.RemoveChild(child)
			child = next
		}
		c.node.AppendChild(&html.Node{Type: html.TextNode, Data: v})
	case "select":
		matched := false
		for _, opt := range c.options() {
			if optionValue(opt) == v {
				matched = true
				break
			}
		}
		if !matched {
			return
		}
		for _, opt := range c.options() {
			if optionValue(opt) == v {
				setAttr(opt, "selected", "selected")
			} else {
				removeAttr(opt, "selected")
			}
		}
	}
}

func (c *Control) options() []*html.Node {
	return htmlquery.Find(c.node, ".//option")
}

// optionValue mirrors browser behavior: the value attribute, falling back
// to the option's text content.
func optionValue(opt *html.Node) string {
	if v := htmlquery.SelectAttr(opt, "value"); v != "" {
		return v
	}
	return strings.TrimSpace(htmlquery.InnerText(opt))
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}
