package recovery

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/SC5KSystems/Auto-Form-Recovery/api/schemas"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/kvstore"
)

// LoadSettings reads the settings record from the store once, at page
// startup. A missing record is expected on first run and a malformed one is
// never surfaced to the user; both fall back to the hardcoded defaults. The
// returned value is treated as immutable for the page lifetime.
func LoadSettings(ctx context.Context, store kvstore.Store, logger *zap.Logger) schemas.Settings {
	raw, err := store.Get(ctx, schemas.SettingsKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			logger.Debug("Settings read failed, using defaults", zap.Error(err))
		}
		return schemas.DefaultSettings()
	}

	settings, err := schemas.UnmarshalSettings(raw)
	if err != nil {
		logger.Warn("Stored settings are malformed, using defaults", zap.Error(err))
		return schemas.DefaultSettings()
	}
	return settings.Normalize()
}
