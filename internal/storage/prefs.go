package storage

import (
	"errors"
	"log/slog"
)

// ThemeKey holds the theme preference string.
const ThemeKey = "mindflow_theme"

// Theme values.
const (
	ThemeMocha = "mocha"
	ThemeLatte = "latte"
)

// ValidTheme reports whether v is a known theme.
func ValidTheme(v string) bool {
	return v == ThemeMocha || v == ThemeLatte
}

// Preferences stores user preferences next to the note collection.
type Preferences struct {
	kv     KV
	logger *slog.Logger
}

// NewPreferences creates a preference store on top of kv.
func NewPreferences(kv KV, logger *slog.Logger) *Preferences {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preferences{kv: kv, logger: logger}
}

// Theme returns the stored theme, or ThemeMocha when none is stored or the
// stored value is unknown.
func (p *Preferences) Theme() string {
	data, err := p.kv.Get(ThemeKey)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			p.logger.Warn("failed to load theme", slog.String("error", err.Error()))
		}
		return ThemeMocha
	}
	if v := string(data); ValidTheme(v) {
		return v
	}
	return ThemeMocha
}

// SetTheme persists theme. Unknown values are ignored and reported as false.
func (p *Preferences) SetTheme(theme string) bool {
	if !ValidTheme(theme) {
		return false
	}
	if err := p.kv.Set(ThemeKey, []byte(theme)); err != nil {
		p.logger.Error("failed to save theme", slog.String("error", err.Error()))
	}
	return true
}
