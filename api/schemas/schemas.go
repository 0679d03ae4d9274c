package schemas

import (
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SettingsKey is the single reserved key in the store namespace. Every other
// key is a FormKey mapping to a Snapshot.
const SettingsKey = "settings"

// KeySeparator joins the page base (origin + path) with the form identifier.
const KeySeparator = "::"

// UnknownPage is the sentinel base used when the page URL cannot be parsed.
const UnknownPage = "unknown"

// FormKey uniquely identifies one form on one page within the store
// namespace. See ComposeFormKey for the derivation rules.
type FormKey string

// ComposeFormKey builds a FormKey from a page base (origin + path, no query
// string or fragment) and a form identifier (id, name, or positional index).
func ComposeFormKey(base, identifier string) FormKey {
	return FormKey(base + KeySeparator + identifier)
}

// String implements fmt.Stringer.
func (k FormKey) String() string { return string(k) }

// Base returns the origin+path half of the key, or the whole key if the
// separator is missing.
func (k FormKey) Base() string {
	if i := strings.Index(string(k), KeySeparator); i >= 0 {
		return string(k)[:i]
	}
	return string(k)
}

// FieldRecord maps a per-field key to its captured value: a string for text
// controls, a bool checked-state for checkbox/radio controls. The same key
// derivation must be used on save and restore or matching silently fails.
type FieldRecord map[string]interface{}

// Text returns the string value stored under key, if any.
func (r FieldRecord) Text(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// Checked returns the boolean checked-state stored under key, if any.
func (r FieldRecord) Checked(key string) (bool, bool) {
	b, ok := r[key].(bool)
	return b, ok
}

// Snapshot is the persisted record for one form: the captured field values
// and the epoch-millisecond save time used for retention decisions.
type Snapshot struct {
	Data      FieldRecord `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// NewSnapshot creates a snapshot of data stamped at now.
func NewSnapshot(data FieldRecord, now time.Time) *Snapshot {
	return &Snapshot{Data: data, Timestamp: now.UnixMilli()}
}

// SavedAt returns the snapshot timestamp as a time.Time.
func (s *Snapshot) SavedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Expired reports whether the snapshot is older than the retention window.
func (s *Snapshot) Expired(now time.Time, retentionDays int) bool {
	retention := time.Duration(retentionDays) * 24 * time.Hour
	return now.Sub(s.SavedAt()) > retention
}

// MarshalSnapshot encodes a snapshot for storage.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSnapshot decodes a stored snapshot.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
