package models

// Slot is a bookable time option offered in the slot menu.
type Slot struct {
	ID    string `mapstructure:"id" json:"id"`       // token after the "slot_" prefix
	Title string `mapstructure:"title" json:"title"` // label stored on the booking
}

// Shortcut maps a bare numeric reply (e.g. "3") to a time-of-day slot label.
type Shortcut struct {
	Key   string `mapstructure:"key" json:"key"`
	Title string `mapstructure:"title" json:"title"`
}

// Service is an entry of the clinic's service catalog.
type Service struct {
	ID      string   `mapstructure:"id" json:"id"`           // token after the "service_" prefix
	Title   string   `mapstructure:"title" json:"title"`     // canonical name stored on the booking
	Aliases []string `mapstructure:"aliases" json:"aliases"` // other spellings accepted, e.g. English name
}
