// internal/browser/watcher.go
package browser

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/SC5KSystems/Auto-Form-Recovery/api/schemas"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/dom"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/recovery"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fieldKeyJS mirrors the eligibility filter and field-key derivation in
// the page. It must stay in lockstep with recovery.Eligible and
// recovery.FieldKey or live state and stored snapshots drift apart.
const fieldKeyJS = `
function __afrFieldKey(el, ci) {
	const tag = el.tagName.toLowerCase();
	if (tag !== 'input' && tag !== 'textarea' && tag !== 'select') return null;
	const type = (el.getAttribute('type') || '').toLowerCase();
	if (tag === 'input' && (type === 'password' || type === 'hidden' || type === 'file')) return null;
	if (((el.getAttribute('autocomplete') || '').trim().toLowerCase()) === 'off') return null;
	if (el.getAttribute('data-autorecovery') === 'false') return null;
	const name = el.getAttribute('name') || '';
	const checkable = tag === 'input' && (type === 'checkbox' || type === 'radio');
	let key;
	if (checkable && name) {
		key = name + '::' + (el.getAttribute('value') || '');
	} else if (name) {
		key = name;
	} else if (el.getAttribute('id')) {
		key = el.getAttribute('id');
	} else {
		key = tag + '_' + ci;
	}
	return {key: key, checkable: checkable};
}`

// collectFormStateJS reads the live value/checked properties of every
// eligible control. Serialized HTML only carries content attributes, and
// typing mutates the IDL properties without touching those, so live state
// has to come out of the page itself.
const collectFormStateJS = fieldKeyJS + `
(() => {
	const out = [];
	Array.from(document.forms).forEach((form, fi) => {
		const ident = form.getAttribute('id') || form.getAttribute('name') || String(fi);
		const fields = {};
		Array.from(form.querySelectorAll('input, textarea, select')).forEach((el, ci) => {
			const fk = __afrFieldKey(el, ci);
			if (!fk) return;
			fields[fk.key] = fk.checkable ? el.checked : el.value;
		});
		out.push({ident: ident, fields: fields});
	});
	return out;
})()`

// applyFieldsJS writes restored values into the matching form's live
// controls. Arguments: form identifier, field record.
const applyFieldsJS = fieldKeyJS + `
((ident, fields) => {
	const forms = Array.from(document.forms);
	const fi = forms.findIndex((form, i) =>
		(form.getAttribute('id') || form.getAttribute('name') || String(i)) === ident);
	if (fi < 0) return 0;
	let applied = 0;
	Array.from(forms[fi].querySelectorAll('input, textarea, select')).forEach((el, ci) => {
		const fk = __afrFieldKey(el, ci);
		if (!fk || !(fk.key in fields)) return;
		const v = fields[fk.key];
		if (fk.checkable) {
			el.checked = v === true;
		} else {
			el.value = String(v);
		}
		applied++;
	});
	return applied;
})(%s, %s)`

// formState is the per-form live state collected from the page.
type formState struct {
	Ident  string                 `json:"ident"`
	Fields map[string]interface{} `json:"fields"`
}

// PageWatcher drives a live Chrome tab through chromedp and adapts it to
// the monitor's event model. The browser exposes no push channel for DOM
// changes over this API surface, so the watcher polls: a change in the
// page's form structure becomes a mutation event, a change in a form's
// live field state becomes an edit event for that form's key.
type PageWatcher struct {
	targetURL    string
	pollInterval time.Duration
	log          *zap.Logger

	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	mu     sync.Mutex
	base   string
	html   string
	states []formState
	// suppress marks keys whose next field-state change came from Apply
	// rather than the user; it is consumed without an edit event.
	suppress  map[schemas.FormKey]bool
	structSig uint64
	fieldSigs map[schemas.FormKey]uint64

	mutations chan struct{}
	edits     chan schemas.FormKey
}

// NewPageWatcher launches a browser tab, navigates it to targetURL and
// waits for the document to become ready. Close must be called to shut
// the tab down.
func NewPageWatcher(ctx context.Context, targetURL string, pollInterval time.Duration, headless bool, logger *zap.Logger) (*PageWatcher, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	w := &PageWatcher{
		targetURL:    targetURL,
		pollInterval: pollInterval,
		log:          logger.Named("page_watcher"),
		allocCancel:  allocCancel,
		tabCtx:       tabCtx,
		tabCancel:    tabCancel,
		suppress:     make(map[schemas.FormKey]bool),
		fieldSigs:    make(map[schemas.FormKey]uint64),
		mutations:    make(chan struct{}, 8),
		edits:        make(chan schemas.FormKey, 64),
	}

	var html string
	var states []formState
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Evaluate(collectFormStateJS, &states),
	)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to open %q: %w", targetURL, err)
	}

	w.html = html
	w.states = states
	if page, perr := dom.Parse(strings.NewReader(html), targetURL); perr == nil {
		w.base = recovery.PageBase(page)
		w.structSig = structureSignature(page)
	}
	w.fieldSigs = stateSignatures(w.base, states)

	w.log.Info("Watching page", zap.String("url", targetURL))
	return w, nil
}

// Page parses the most recently captured document and overlays the live
// field state onto it, so snapshots taken from it carry what the user
// actually typed.
func (w *PageWatcher) Page() (*dom.Page, error) {
	w.mu.Lock()
	html := w.html
	states := w.states
	w.mu.Unlock()

	page, err := dom.Parse(strings.NewReader(html), w.targetURL)
	if err != nil {
		return nil, err
	}
	overlayState(page, states)
	return page, nil
}

// Apply pushes restored field values into the live tab and arms the edit
// suppression for that key, so the restore itself does not echo back as a
// user edit on the next poll.
func (w *PageWatcher) Apply(key schemas.FormKey, fields schemas.FieldRecord) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode fields for %q: %w", key, err)
	}
	ident := strings.TrimPrefix(key.String(), key.Base()+schemas.KeySeparator)
	expr := fmt.Sprintf(applyFieldsJS, strconv.Quote(ident), payload)

	w.mu.Lock()
	w.suppress[key] = true
	w.mu.Unlock()

	var applied int
	if err := chromedp.Run(w.tabCtx, chromedp.Evaluate(expr, &applied)); err != nil {
		w.mu.Lock()
		delete(w.suppress, key)
		w.mu.Unlock()
		return fmt.Errorf("failed to apply restored fields for %q: %w", key, err)
	}
	w.log.Debug("Applied restored fields",
		zap.String("form_key", key.String()), zap.Int("applied", applied))
	return nil
}

// Mutations signals form-structure changes in the live page.
func (w *PageWatcher) Mutations() <-chan struct{} { return w.mutations }

// Edits delivers per-form field-value changes.
func (w *PageWatcher) Edits() <-chan schemas.FormKey { return w.edits }

// Run polls the tab until ctx is cancelled or the tab dies, translating
// document diffs into mutation and edit events. It closes both event
// channels on exit.
func (w *PageWatcher) Run(ctx context.Context) error {
	defer close(w.mutations)
	defer close(w.edits)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.tabCtx.Done():
			return nil
		case <-ticker.C:
			if err := w.poll(ctx); err != nil {
				if ctx.Err() != nil || w.tabCtx.Err() != nil {
					return nil
				}
				return fmt.Errorf("failed to poll %q: %w", w.targetURL, err)
			}
		}
	}
}

// Close tears down the tab and its allocator.
func (w *PageWatcher) Close() {
	w.tabCancel()
	w.allocCancel()
}

func (w *PageWatcher) poll(ctx context.Context) error {
	var html string
	var states []formState
	err := chromedp.Run(w.tabCtx,
		chromedp.Evaluate(collectFormStateJS, &states),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return err
	}

	page, err := dom.Parse(strings.NewReader(html), w.targetURL)
	if err != nil {
		return err
	}
	structSig := structureSignature(page)

	w.mu.Lock()
	w.html = html
	w.states = states
	fieldSigs := stateSignatures(w.base, states)

	structChanged := structSig != w.structSig
	w.structSig = structSig

	var edited []schemas.FormKey
	for key, sig := range fieldSigs {
		prev, known := w.fieldSigs[key]
		if !known || prev == sig {
			continue
		}
		if w.suppress[key] {
			// The change is our own restore write-back, not the user.
			delete(w.suppress, key)
			continue
		}
		edited = append(edited, key)
	}
	w.fieldSigs = fieldSigs
	w.mu.Unlock()

	if structChanged {
		select {
		case w.mutations <- struct{}{}:
		case <-ctx.Done():
			return nil
		}
	}
	for _, key := range edited {
		select {
		case w.edits <- key:
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

// structureSignature fingerprints the page's form inventory: the set of
// form keys and each form's control keys, but no values. Typing never
// changes it; inserting or removing forms or controls does.
func structureSignature(page *dom.Page) uint64 {
	h := fnv.New64a()
	for _, form := range page.Forms() {
		fmt.Fprintf(h, "%s\x00", recovery.ResolveKey(page, form))
		for _, c := range form.Controls() {
			fmt.Fprintf(h, "%s\x01", recovery.FieldKey(c))
		}
	}
	return h.Sum64()
}

// stateSignatures hashes each form's live eligible field values.
func stateSignatures(base string, states []formState) map[schemas.FormKey]uint64 {
	sigs := make(map[schemas.FormKey]uint64, len(states))
	for _, st := range states {
		names := make([]string, 0, len(st.Fields))
		for name := range st.Fields {
			names = append(names, name)
		}
		sort.Strings(names)

		h := fnv.New64a()
		for _, name := range names {
			fmt.Fprintf(h, "%s=%v\x00", name, st.Fields[name])
		}
		sigs[schemas.ComposeFormKey(base, st.Ident)] = h.Sum64()
	}
	return sigs
}

// overlayState writes live field values into a freshly parsed tree.
// Serialized HTML reflects content attributes only; the properties typing
// mutates live in the collected state.
func overlayState(page *dom.Page, states []formState) {
	byIdent := make(map[string]map[string]interface{}, len(states))
	for _, st := range states {
		byIdent[st.Ident] = st.Fields
	}

	for _, form := range page.Forms() {
		ident := form.Attr("id")
		if ident == "" {
			ident = form.Attr("name")
		}
		if ident == "" {
			ident = strconv.Itoa(form.Index())
		}
		fields := byIdent[ident]
		if fields == nil {
			continue
		}
		for _, c := range form.Controls() {
			if !recovery.Eligible(c) {
				continue
			}
			v, ok := fields[recovery.FieldKey(c)]
			if !ok {
				continue
			}
			if c.IsCheckable() {
				if checked, isBool := v.(bool); isBool {
					c.SetChecked(checked)
				}
				continue
			}
			if text, isString := v.(string); isString {
				c.SetValue(text)
			}
		}
	}
}
