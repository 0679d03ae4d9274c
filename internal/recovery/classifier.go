package recovery

import (
	"strings"

	"go.uber.org/zap"

	"github.com/SC5KSystems/Auto-Form-Recovery/api/schemas"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/dom"
)

// loginKeywords are matched as substrings against the lowercased
// concatenation of a form's id, name, class, and action attributes.
var loginKeywords = []string{
	"login", "log-in", "sign-in", "signin", "sign_in",
	"auth", "authenticate", "authentication", "account", "passwd",
}

// ClassifierThresholds are the tuning constants of the structural login
// heuristic. They are deliberately permissive: skipping autosave on a
// legitimate form costs far less than persisting a credential-adjacent
// value.
type ClassifierThresholds struct {
	// MaxInputs is the largest total input count a form may have and
	// still match the structural rule.
	MaxInputs int
	// MaxTextInputs is the largest text-like input count allowed by the
	// email-entry branch of the structural rule.
	MaxTextInputs int
}

// DefaultThresholds returns the stock tuning constants.
func DefaultThresholds() ClassifierThresholds {
	return ClassifierThresholds{MaxInputs: 3, MaxTextInputs: 1}
}

// Classifier decides heuristically whether a form is an authentication
// form. It always returns a definite boolean; there is no "unsure" state.
type Classifier struct {
	settings   schemas.Settings
	thresholds ClassifierThresholds
	log        *zap.Logger
}

// NewClassifier builds a classifier bound to an immutable settings value.
// Non-positive thresholds fall back to the defaults.
func NewClassifier(settings schemas.Settings, thresholds ClassifierThresholds, logger *zap.Logger) *Classifier {
	defaults := DefaultThresholds()
	if thresholds.MaxInputs <= 0 {
		thresholds.MaxInputs = defaults.MaxInputs
	}
	if thresholds.MaxTextInputs <= 0 {
		thresholds.MaxTextInputs = defaults.MaxTextInputs
	}
	return &Classifier{
		settings:   settings,
		thresholds: thresholds,
		log:        logger.Named("classifier"),
	}
}

// IsLoginForm evaluates the heuristics in precedence order, stopping at the
// first match. When the user has opted out (IgnoreLoginForms false) every
// form is treated as safe to persist, password fields included; the
// eligibility filter still keeps password values themselves out of
// snapshots.
func (c *Classifier) IsLoginForm(form *dom.Form) bool {
	if !c.settings.IgnoreLoginForms {
		return false
	}

	if form.HasPasswordInput() {
		c.log.Debug("Form has a password input", zap.Int("form_index", form.Index()))
		return true
	}

	if kw := c.matchKeyword(form); kw != "" {
		c.log.Debug("Form attributes match a login keyword",
			zap.Int("form_index", form.Index()),
			zap.String("keyword", kw))
		return true
	}

	// The structural rule targets the first step of multi-step login flows
	// (email-then-password), which present no password field. Forms with a
	// textarea are message forms, never login steps.
	if form.HasTextarea() {
		return false
	}
	return c.matchesStructure(form)
}

func (c *Classifier) matchKeyword(form *dom.Form) string {
	haystack := strings.ToLower(
		form.Attr("id") + form.Attr("name") + form.Attr("class") + form.Attr("action"))
	for _, kw := range loginKeywords {
		if strings.Contains(haystack, kw) {
			return kw
		}
	}
	return ""
}

func (c *Classifier) matchesStructure(form *dom.Form) bool {
	inputs := form.Inputs()
	total := len(inputs)
	if total == 0 || total > c.thresholds.MaxInputs {
		return false
	}

	textLike, emailLike, userLike := 0, 0, 0
	for _, in := range inputs {
		if in.IsTextEntry() {
			textLike++
		}
		ident := strings.ToLower(in.Attr("name") + " " + in.Attr("id"))
		if in.Type() == "email" || strings.Contains(ident, "email") {
			emailLike++
		}
		if strings.Contains(ident, "user") || strings.Contains(ident, "login") {
			userLike++
		}
	}

	// Single email-entry step of a multi-step login.
	if emailLike >= 1 && textLike <= c.thresholds.MaxTextInputs {
		return true
	}
	// Username-only step.
	return userLike >= 1
}
