package models

// WebhookPayload is the body Meta posts to the WhatsApp webhook.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Metadata         WebhookMetadata  `json:"metadata"`
	Contacts         []WebhookContact `json:"contacts,omitempty"`
	Messages         []WebhookMessage `json:"messages,omitempty"`
}

type WebhookMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type WebhookContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// WebhookMessage is a single inbound user message.
type WebhookMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"` // "text", "audio", "interactive", "button", ...
	Text        *WebhookText        `json:"text,omitempty"`
	Audio       *WebhookMedia       `json:"audio,omitempty"`
	Interactive *WebhookInteractive `json:"interactive,omitempty"`
	Button      *WebhookButton      `json:"button,omitempty"`
}

type WebhookText struct {
	Body string `json:"body"`
}

type WebhookMedia struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Voice    bool   `json:"voice,omitempty"`
}

type WebhookInteractive struct {
	Type        string        `json:"type"` // "list_reply" or "button_reply"
	ListReply   *WebhookReply `json:"list_reply,omitempty"`
	ButtonReply *WebhookReply `json:"button_reply,omitempty"`
}

type WebhookReply struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type WebhookButton struct {
	Payload string `json:"payload"`
	Text    string `json:"text"`
}

// ToInbound maps a webhook message onto the channel-neutral inbound event.
func (m WebhookMessage) ToInbound() Inbound {
	in := Inbound{MessageID: m.ID, UserID: m.From, Kind: InboundUnsupported}
	switch m.Type {
	case "text":
		if m.Text != nil {
			in.Kind = InboundText
			in.Text = m.Text.Body
		}
	case "audio":
		if m.Audio != nil {
			in.Kind = InboundVoice
			in.MediaRef = m.Audio.ID
		}
	case "interactive":
		if m.Interactive == nil {
			break
		}
		reply := m.Interactive.ListReply
		if reply == nil {
			reply = m.Interactive.ButtonReply
		}
		if reply != nil {
			in.Kind = InboundSelection
			in.SelectionID = reply.ID
			in.Text = reply.Title
		}
	case "button":
		if m.Button != nil {
			in.Kind = InboundSelection
			in.SelectionID = m.Button.Payload
			in.Text = m.Button.Text
		}
	}
	return in
}
