package schemas

import "strings"

// Settings is the user-facing configuration record persisted under
// SettingsKey. It is loaded once per page lifetime and treated as immutable
// by the core; only the external settings UI writes it.
type Settings struct {
	// Enabled is the global on/off switch.
	Enabled bool `json:"enabled"`
	// RetentionDays is the age in days after which a snapshot is evicted.
	RetentionDays int `json:"retentionDays"`
	// IgnoreDomains lists hostnames on which no monitoring happens.
	IgnoreDomains []string `json:"ignoreDomains"`
	// IgnoreLoginForms enables the login-form heuristic. When false the
	// classifier never reports a login form and everything autosaves.
	IgnoreLoginForms bool `json:"ignoreLoginForms"`
}

// DefaultSettings returns the hardcoded defaults used when the settings
// record is absent or malformed.
func DefaultSettings() Settings {
	return Settings{
		Enabled:          true,
		RetentionDays:    7,
		IgnoreDomains:    nil,
		IgnoreLoginForms: true,
	}
}

// Normalize clamps invalid values back to defaults. RetentionDays must stay
// a positive integer.
func (s Settings) Normalize() Settings {
	if s.RetentionDays <= 0 {
		s.RetentionDays = DefaultSettings().RetentionDays
	}
	return s
}

// DomainIgnored reports whether host is in the ignored-domain set. Matching
// is case-insensitive on the exact hostname.
func (s Settings) DomainIgnored(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	for _, d := range s.IgnoreDomains {
		if strings.ToLower(strings.TrimSpace(d)) == host {
			return true
		}
	}
	return false
}

// MarshalSettings encodes a settings record for storage.
func MarshalSettings(s Settings) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSettings decodes a stored settings record.
func UnmarshalSettings(data []byte) (Settings, error) {
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
