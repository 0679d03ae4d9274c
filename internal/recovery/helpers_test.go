package recovery

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SC5KSystems/Auto-Form-Recovery/api/schemas"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/dom"
)

func mustPage(t *testing.T, htmlSrc, pageURL string) *dom.Page {
	t.Helper()
	page, err := dom.Parse(strings.NewReader(htmlSrc), pageURL)
	require.NoError(t, err)
	return page
}

func onlyForm(t *testing.T, page *dom.Page) *dom.Form {
	t.Helper()
	forms := page.Forms()
	require.Len(t, forms, 1)
	return forms[0]
}

// countingNotifier records every notice for assertions.
type countingNotifier struct {
	mu      sync.Mutex
	notices []schemas.FormKey
}

func (n *countingNotifier) Restored(key schemas.FormKey, fields int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, key)
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}
