package recovery

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SC5KSystems/Auto-Form-Recovery/api/schemas"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/dom"
)

// Source abstracts the live page the monitor watches. Mutations is a lazy,
// unbounded stream of subtree-changed events: each one obliges the monitor
// to re-scan the current page for forms it has not attached to yet. Edits
// delivers input/change events attributed to a form key. Both channels
// close when the page goes away.
type Source interface {
	// Page returns the current document.
	Page() (*dom.Page, error)
	// Apply writes restored field values into the live page. Page returns
	// a detached parse, so restores must be pushed back explicitly to
	// become visible to the user.
	Apply(key schemas.FormKey, fields schemas.FieldRecord) error
	// Mutations signals that the page subtree changed.
	Mutations() <-chan struct{}
	// Edits delivers edit events for individual forms.
	Edits() <-chan schemas.FormKey
}

// Monitor runs the classify → restore → monitor sequence over every form
// the page ever shows, saving edits through the engine under a trailing
// debounce. Attachment is idempotent: a form key already being monitored is
// never attached twice.
type Monitor struct {
	source     Source
	engine     *Engine
	classifier *Classifier
	settings   schemas.Settings
	window     time.Duration
	log        *zap.Logger

	mu       sync.Mutex
	attached map[schemas.FormKey]*debouncer
	runCtx   context.Context
}

// NewMonitor wires a monitor to a page source. The settings value is fixed
// for the monitor's lifetime; a settings change takes effect on the next
// page load.
func NewMonitor(source Source, engine *Engine, classifier *Classifier, settings schemas.Settings, window time.Duration, logger *zap.Logger) *Monitor {
	return &Monitor{
		source:     source,
		engine:     engine,
		classifier: classifier,
		settings:   settings.Normalize(),
		window:     window,
		log:        logger.Named("monitor"),
		attached:   make(map[schemas.FormKey]*debouncer),
	}
}

// Run performs the initial scan and then reacts to mutation and edit
// events until ctx is cancelled or the source closes. The suppression
// checks (extension disabled, hostname ignored) happen once here, not per
// event. Run is single-use.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.settings.Enabled {
		m.log.Info("Autosave disabled, not monitoring")
		return nil
	}

	page, err := m.source.Page()
	if err != nil {
		return err
	}
	if host := page.Hostname(); host != "" && m.settings.DomainIgnored(host) {
		m.log.Info("Hostname is in the ignored-domain set, not monitoring", zap.String("host", host))
		return nil
	}

	m.mu.Lock()
	m.runCtx = ctx
	m.mu.Unlock()
	defer m.detachAll()

	m.scan(ctx, page)

	mutations := m.source.Mutations()
	edits := m.source.Edits()
	for mutations != nil || edits != nil {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-mutations:
			if !ok {
				mutations = nil
				continue
			}
			if page, err := m.source.Page(); err == nil {
				m.scan(ctx, page)
			}
		case key, ok := <-edits:
			if !ok {
				edits = nil
				continue
			}
			m.noteEdit(key)
		}
	}
	return nil
}

// Attached reports whether the form key is currently being monitored.
func (m *Monitor) Attached(key schemas.FormKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.attached[key]
	return ok
}

// scan applies classify → restore → attach to every form on the page that
// is not already monitored.
func (m *Monitor) scan(ctx context.Context, page *dom.Page) {
	for _, form := range page.Forms() {
		key := ResolveKey(page, form)
		if m.Attached(key) {
			continue
		}
		if m.classifier.IsLoginForm(form) {
			m.log.Debug("Skipping login form", zap.String("form_key", key.String()))
			continue
		}

		restored, err := m.engine.Restore(ctx, key, form)
		if err != nil {
			// Best-effort: a failed restore never blocks monitoring.
			m.log.Debug("Restore failed", zap.String("form_key", key.String()), zap.Error(err))
		}
		if len(restored) > 0 {
			if err := m.source.Apply(key, restored); err != nil {
				m.log.Debug("Failed to apply restored fields",
					zap.String("form_key", key.String()), zap.Error(err))
			}
		}
		m.attach(key)
	}
}

func (m *Monitor) attach(key schemas.FormKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attached[key]; ok {
		return
	}
	m.attached[key] = newDebouncer(m.window, func() { m.saveNow(key) })
	m.log.Debug("Monitoring form", zap.String("form_key", key.String()))
}

func (m *Monitor) noteEdit(key schemas.FormKey) {
	m.mu.Lock()
	d := m.attached[key]
	m.mu.Unlock()
	if d == nil {
		// Edits in unmonitored forms (login forms included) are dropped.
		return
	}
	d.Trigger()
}

// saveNow runs when a debounce window elapses: snapshot the form's current
// state and replace the stored record. A save failure silently loses that
// edit's snapshot; the live DOM remains the ground truth.
func (m *Monitor) saveNow(key schemas.FormKey) {
	m.mu.Lock()
	ctx := m.runCtx
	m.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	page, err := m.source.Page()
	if err != nil {
		m.log.Debug("Page unavailable at save time", zap.String("form_key", key.String()), zap.Error(err))
		return
	}
	for _, form := range page.Forms() {
		if ResolveKey(page, form) != key {
			continue
		}
		if err := m.engine.Save(ctx, key, form); err != nil {
			m.log.Debug("Save failed", zap.String("form_key", key.String()), zap.Error(err))
		}
		return
	}
	// The form left the DOM before the window elapsed. Nothing to save.
}

func (m *Monitor) detachAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.attached {
		d.Stop()
	}
}
