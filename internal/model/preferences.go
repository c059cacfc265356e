package model

// Theme is the UI colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Preferences holds per-owner UI settings. It is always replaced as a whole.
type Preferences struct {
	OwnerID  string `json:"-"`
	Theme    Theme  `json:"theme"`
	Language string `json:"language"`
}

// PreferencesRequest is the body of POST /api/preferences.
type PreferencesRequest struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
}
