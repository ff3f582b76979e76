package models

// MenuOption is a single row of a selection menu.
type MenuOption struct {
	ID          string `json:"id"`    // selection id echoed back by the channel, e.g. "slot_sat_4pm"
	Title       string `json:"title"` // text on the row
	Description string `json:"description,omitempty"`
}

// Menu is an interactive list sent to the user.
type Menu struct {
	Header  string       `json:"header,omitempty"`
	Body    string       `json:"body"`
	Button  string       `json:"button"` // label of the button that opens the list
	Options []MenuOption `json:"options"`
}
