package recovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SC5KSystems/Auto-Form-Recovery/api/schemas"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/dom"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/kvstore"
)

// Notifier receives the transient user notice after a successful restore.
// It fires exactly once per restore that assigned at least one field and
// never for zero-field restores.
type Notifier interface {
	Restored(key schemas.FormKey, fields int)
}

// NopNotifier discards notices.
type NopNotifier struct{}

func (NopNotifier) Restored(schemas.FormKey, int) {}

// LogNotifier surfaces restore notices through the logger, tagging each
// with a unique notice id.
type LogNotifier struct {
	Log *zap.Logger
}

func (n *LogNotifier) Restored(key schemas.FormKey, fields int) {
	n.Log.Info("Restored saved form input",
		zap.String("notice_id", uuid.NewString()),
		zap.String("form_key", key.String()),
		zap.Int("fields", fields))
}

// SnapshotFields extracts the eligible controls of a form into a field
// record, in DOM order. Checkbox/radio controls contribute their boolean
// checked-state; everything else contributes its string value.
func SnapshotFields(form *dom.Form) schemas.FieldRecord {
	record := make(schemas.FieldRecord)
	for _, c := range form.Controls() {
		if !Eligible(c) {
			continue
		}
		if c.IsCheckable() {
			record[FieldKey(c)] = c.Checked()
		} else {
			record[FieldKey(c)] = c.Value()
		}
	}
	return record
}

// Engine persists form snapshots into the key-value store and rehydrates
// them back into live forms, evicting expired entries lazily on read.
type Engine struct {
	store    kvstore.Store
	settings schemas.Settings
	notifier Notifier
	log      *zap.Logger
	// now is swappable in tests.
	now func() time.Time
}

// NewEngine builds an engine bound to an immutable settings value. A nil
// notifier disables notices.
func NewEngine(store kvstore.Store, settings schemas.Settings, notifier Notifier, logger *zap.Logger) *Engine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Engine{
		store:    store,
		settings: settings.Normalize(),
		notifier: notifier,
		log:      logger.Named("engine"),
		now:      time.Now,
	}
}

// Save snapshots the form and writes it under key, replacing any prior
// snapshot in full. The timestamp is the write time.
func (e *Engine) Save(ctx context.Context, key schemas.FormKey, form *dom.Form) error {
	snap := schemas.NewSnapshot(SnapshotFields(form), e.now())
	data, err := schemas.MarshalSnapshot(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for %q: %w", key, err)
	}
	if err := e.store.Set(ctx, key.String(), data); err != nil {
		return fmt.Errorf("failed to store snapshot for %q: %w", key, err)
	}
	e.log.Debug("Saved form snapshot", zap.String("form_key", key.String()), zap.Int("fields", len(snap.Data)))
	return nil
}

// Restore looks up the snapshot for key and assigns its values back into
// the form's eligible controls, returning the fields actually assigned so
// the caller can propagate them to the live page. An expired snapshot is
// deleted and restores nothing. Field keys absent from the live form are
// skipped silently: schema drift between save time and restore time
// degrades to a partial restore, never an error.
func (e *Engine) Restore(ctx context.Context, key schemas.FormKey, form *dom.Form) (schemas.FieldRecord, error) {
	raw, err := e.store.Get(ctx, key.String())
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot for %q: %w", key, err)
	}

	snap, err := schemas.UnmarshalSnapshot(raw)
	if err != nil {
		e.log.Debug("Stored snapshot is undecodable, skipping restore",
			zap.String("form_key", key.String()), zap.Error(err))
		return nil, nil
	}

	if snap.Expired(e.now(), e.settings.RetentionDays) {
		// Lazy eviction on read, in addition to the periodic sweep.
		if err := e.store.Remove(ctx, key.String()); err != nil {
			e.log.Debug("Failed to evict expired snapshot", zap.String("form_key", key.String()), zap.Error(err))
		}
		return nil, nil
	}

	restored := make(schemas.FieldRecord)
	for _, c := range form.Controls() {
		if !Eligible(c) {
			continue
		}
		fieldKey := FieldKey(c)
		if c.IsCheckable() {
			if checked, ok := snap.Data.Checked(fieldKey); ok {
				c.SetChecked(checked)
				restored[fieldKey] = checked
			}
			continue
		}
		if value, ok := snap.Data.Text(fieldKey); ok {
			c.SetValue(value)
			restored[fieldKey] = value
		}
	}

	if len(restored) > 0 {
		e.notifier.Restored(key, len(restored))
	}
	return restored, nil
}
