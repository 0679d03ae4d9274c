// Package dom models the parts of an HTML document the recovery core cares
// about: the ordered list of forms on a page and the controls inside each
// form. It wraps golang.org/x/net/html nodes so the identity resolver,
// classifier, and persistence engine operate on explicit values instead of
// ambient browser globals.
package dom

import (
	"io"
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Page is a parsed document plus the location it was loaded from.
type Page struct {
	root  *html.Node
	url   *url.URL
	forms []*Form
}

// Parse builds a Page from an HTML stream. A pageURL that fails to parse or
// has no host is tolerated: the page simply has no usable location and key
// derivation falls back to its sentinel.
func Parse(r io.Reader, pageURL string) (*Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	p := &Page{root: root}
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		p.url = u
	}
	return p, nil
}

// FromNode wraps an already parsed document. Used by tests and by callers
// that parse HTML themselves.
func FromNode(root *html.Node, loc *url.URL) *Page {
	p := &Page{root: root}
	if loc != nil && loc.Host != "" {
		p.url = loc
	}
	return p
}

// Root exposes the underlying document node.
func (p *Page) Root() *html.Node { return p.root }

// Location returns the parsed page URL, or nil when it was absent or
// unparseable.
func (p *Page) Location() *url.URL { return p.url }

// Hostname returns the page host, or "" when the location is unknown.
func (p *Page) Hostname() string {
	if p.url == nil {
		return ""
	}
	return p.url.Hostname()
}

// Forms returns every form on the page in document order. The slice is
// computed once per Page; the zero-based index within it is the positional
// identifier used when a form has neither id nor name.
func (p *Page) Forms() []*Form {
	if p.forms != nil {
		return p.forms
	}
	nodes := htmlquery.Find(p.root, "//form")
	forms := make([]*Form, 0, len(nodes))
	for i, n := range nodes {
		forms = append(forms, &Form{node: n, index: i})
	}
	p.forms = forms
	return forms
}

// Form is one <form> element and its position among the page's forms.
type Form struct {
	node     *html.Node
	index    int
	controls []*Control
}

// Node exposes the underlying element node.
func (f *Form) Node() *html.Node { return f.node }

// Index is the zero-based position among same-page forms at parse time.
func (f *Form) Index() int { return f.index }

// Attr returns the value of the named attribute, or "" if absent.
func (f *Form) Attr(name string) string {
	return htmlquery.SelectAttr(f.node, name)
}

// Controls returns the form's input, textarea, and select descendants in
// DOM order. Anything outside that tag set is never considered.
func (f *Form) Controls() []*Control {
	if f.controls != nil {
		return f.controls
	}
	nodes := htmlquery.Find(f.node, ".//input | .//textarea | .//select")
	controls := make([]*Control, 0, len(nodes))
	for i, n := range nodes {
		controls = append(controls, &Control{node: n, index: i})
	}
	f.controls = controls
	return controls
}

// Inputs returns only the <input> descendants, used by the classifier's
// structural counting.
func (f *Form) Inputs() []*Control {
	var inputs []*Control
	for _, c := range f.Controls() {
		if c.Tag() == "input" {
			inputs = append(inputs, c)
		}
	}
	return inputs
}

// HasPasswordInput reports whether any descendant input has type=password.
func (f *Form) HasPasswordInput() bool {
	for _, c := range f.Controls() {
		if c.Tag() == "input" && c.Type() == "password" {
			return true
		}
	}
	return false
}

// HasTextarea reports whether the form contains a textarea descendant.
func (f *Form) HasTextarea() bool {
	for _, c := range f.Controls() {
		if c.Tag() == "textarea" {
			return true
		}
	}
	return false
}

// InnerText returns the trimmed text content of the form, mostly useful in
// debug logging.
func (f *Form) InnerText() string {
	return strings.TrimSpace(htmlquery.InnerText(f.node))
}
