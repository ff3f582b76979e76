package models

// Language is the reply language picked for a user.
type Language string

const (
	LanguageArabic  Language = "AR"
	LanguageEnglish Language = "EN"
)

// InboundKind identifies the modality of an inbound chat event.
type InboundKind string

const (
	InboundText        InboundKind = "text"
	InboundVoice       InboundKind = "voice"
	InboundSelection   InboundKind = "selection"
	InboundUnsupported InboundKind = "unsupported"
)

// Inbound is one raw event received from the messaging channel.
type Inbound struct {
	MessageID   string      `json:"messageId"`
	UserID      string      `json:"userId"`                // channel address of the sender (wa_id)
	Kind        InboundKind `json:"kind"`                  // text, voice, selection
	Text        string      `json:"text,omitempty"`        // free text body
	MediaRef    string      `json:"mediaRef,omitempty"`    // media id of a voice note
	SelectionID string      `json:"selectionId,omitempty"` // e.g. "slot_sat_4pm", "service_checkup"
}

// Turn is the canonical representation of one inbound message, whatever its modality.
type Turn struct {
	Text        string   `json:"text"`
	SelectionID string   `json:"selectionId,omitempty"`
	Language    Language `json:"language"`
}

// IsSelection reports whether the turn came from a structured button/list tap.
func (t Turn) IsSelection() bool {
	return t.SelectionID != ""
}
