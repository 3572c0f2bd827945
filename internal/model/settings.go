package model

import "time"

// CategoryToggles enables or disables each rule family
type CategoryToggles struct {
	Mesa    bool `json:"mesa"`
	Tiempo  bool `json:"tiempo"`
	Balance bool `json:"balance"`
}

// Enabled reports whether the given category is switched on. Categories
// outside the three families are always enabled.
func (c CategoryToggles) Enabled(cat AlertCategory) bool {
	switch cat {
	case CategoryMesa:
		return c.Mesa
	case CategoryTiempo:
		return c.Tiempo
	case CategoryBalance:
		return c.Balance
	}
	return true
}

// Settings holds the session-only notification preferences
type Settings struct {
	Enabled      bool            `json:"enabled"`
	SoundEnabled bool            `json:"sound_enabled"`
	ShowBadge    bool            `json:"show_badge"`
	AutoHide     time.Duration   `json:"auto_hide"`
	Categories   CategoryToggles `json:"categories"`
}

// DefaultSettings returns the settings an engine starts with
func DefaultSettings() Settings {
	return Settings{
		Enabled:      true,
		SoundEnabled: true,
		ShowBadge:    true,
		AutoHide:     5 * time.Second,
		Categories: CategoryToggles{
			Mesa:    true,
			Tiempo:  true,
			Balance: true,
		},
	}
}

// SettingsPatch is a partial update; nil fields are left untouched
type SettingsPatch struct {
	Enabled      *bool
	SoundEnabled *bool
	ShowBadge    *bool
	AutoHide     *time.Duration
	Mesa         *bool
	Tiempo       *bool
	Balance      *bool
}

// Apply merges the non-nil fields of p into s
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.SoundEnabled != nil {
		s.SoundEnabled = *p.SoundEnabled
	}
	if p.ShowBadge != nil {
		s.ShowBadge = *p.ShowBadge
	}
	if p.AutoHide != nil {
		d := *p.AutoHide
		if d < 0 {
			d = 0
		}
		s.AutoHide = d
	}
	if p.Mesa != nil {
		s.Categories.Mesa = *p.Mesa
	}
	if p.Tiempo != nil {
		s.Categories.Tiempo = *p.Tiempo
	}
	if p.Balance != nil {
		s.Categories.Balance = *p.Balance
	}
	return s
}
