package model

// Member is one person on the household roster.
type Member struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	BirthDate       string `json:"birthDate,omitempty"`
	Subtitle        string `json:"subtitle,omitempty"`
	Visible         bool   `json:"visible"`
	ThemeColor      string `json:"themeColor,omitempty"`
	BackgroundImage string `json:"backgroundImage,omitempty"`
	SortOrder       int    `json:"sortOrder"`
}
