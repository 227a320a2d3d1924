package model

// SummaryInput is everything the summary generator needs for one day. Day
// holds only structured task logs.
type SummaryInput struct {
	Date    string                      `json:"date"`
	Day     DayRecord                   `json:"day"`
	Tasks   map[string][]TaskDefinition `json:"tasks"`
	Members map[string]Member           `json:"members"`
}
