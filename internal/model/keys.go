package model

// ThemeDark is the only stored value of the theme preference. Absence means light.
const ThemeDark = "dark"

// Document keys in local storage.
const (
	KeyAppData   = "app_data"
	KeyAppConfig = "app_config"
	KeyTheme     = "theme"
)
