package monitor

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/t77yq/floorwatch/internal/model"
)

// SettingsController holds the notification settings. Every mutation is a
// partial merge over the current value.
type SettingsController struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	current model.Settings
}

// NewSettingsController creates a controller starting from initial
func NewSettingsController(initial model.Settings, logger *zap.Logger) *SettingsController {
	return &SettingsController{
		logger:  logger.Named("settings"),
		current: initial,
	}
}

// Get returns a copy of the current settings
func (c *SettingsController) Get() model.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Update merges patch into the current settings and returns the result
func (c *SettingsController) Update(patch model.SettingsPatch) model.Settings {
	c.mu.Lock()
	c.current = patch.Apply(c.current)
	s := c.current
	c.mu.Unlock()

	c.logger.Debug("Settings updated",
		zap.Bool("enabled", s.Enabled),
		zap.Bool("sound_enabled", s.SoundEnabled),
		zap.Bool("show_badge", s.ShowBadge),
		zap.Duration("auto_hide", s.AutoHide),
		zap.Bool("mesa", s.Categories.Mesa),
		zap.Bool("tiempo", s.Categories.Tiempo),
		zap.Bool("balance", s.Categories.Balance))
	return s
}

func (c *SettingsController) SetEnabled(v bool) model.Settings {
	return c.Update(model.SettingsPatch{Enabled: &v})
}

func (c *SettingsController) SetSoundEnabled(v bool) model.Settings {
	return c.Update(model.SettingsPatch{SoundEnabled: &v})
}

func (c *SettingsController) SetShowBadge(v bool) model.Settings {
	return c.Update(model.SettingsPatch{ShowBadge: &v})
}

// SetAutoHide sets the auto-hide delay; zero disables auto-hide
func (c *SettingsController) SetAutoHide(d time.Duration) model.Settings {
	return c.Update(model.SettingsPatch{AutoHide: &d})
}

// SetCategoryEnabled toggles one rule family
func (c *SettingsController) SetCategoryEnabled(cat model.AlertCategory, v bool) (model.Settings, error) {
	var patch model.SettingsPatch
	switch cat {
	case model.CategoryMesa:
		patch.Mesa = &v
	case model.CategoryTiempo:
		patch.Tiempo = &v
	case model.CategoryBalance:
		patch.Balance = &v
	default:
		return c.Get(), fmt.Errorf("%w: %s", ErrUnknownCategory, cat)
	}
	return c.Update(patch), nil
}
