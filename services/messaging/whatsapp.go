package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"clinicbot/models"
)

const (
	DefaultGraphURL = "https://graph.facebook.com"

	maxListRows        = 10
	maxRowTitle        = 24
	maxRowDescription  = 72
	maxListButton      = 20
	maxHeaderText      = 60
	maxMediaDownload   = 16 * 1024 * 1024
	defaultHTTPTimeout = 15 * time.Second
)

// WhatsAppConfig holds the Cloud API credentials.
type WhatsAppConfig struct {
	BaseURL       string
	APIVersion    string
	PhoneNumberID string
	Token         string
}

// WhatsAppClient sends messages and downloads media through the WhatsApp Cloud API.
type WhatsAppClient struct {
	cfg        WhatsAppConfig
	httpClient *http.Client
}

func NewWhatsAppClient(cfg WhatsAppConfig) *WhatsAppClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGraphURL
	}
	return &WhatsAppClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// GraphError is the error body returned by the Graph API.
type GraphError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("whatsapp: graph api status %d: %s (code %d)", e.Status, e.Message, e.Code)
}

type outboundMessage struct {
	MessagingProduct string               `json:"messaging_product"`
	RecipientType    string               `json:"recipient_type"`
	To               string               `json:"to"`
	Type             string               `json:"type"`
	Text             *outboundText        `json:"text,omitempty"`
	Image            *outboundImage       `json:"image,omitempty"`
	Interactive      *outboundInteractive `json:"interactive,omitempty"`
}

type outboundText struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type outboundImage struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

type outboundInteractive struct {
	Type   string      `json:"type"`
	Header *listHeader `json:"header,omitempty"`
	Body   listBody    `json:"body"`
	Action listAction  `json:"action"`
}

type listHeader struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type listBody struct {
	Text string `json:"text"`
}

type listAction struct {
	Button   string        `json:"button"`
	Sections []listSection `json:"sections"`
}

type listSection struct {
	Title string    `json:"title,omitempty"`
	Rows  []listRow `json:"rows"`
}

type listRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (c *WhatsAppClient) SendText(ctx context.Context, to, text string) error {
	return c.send(ctx, outboundMessage{
		Type: "text",
		To:   to,
		Text: &outboundText{PreviewURL: strings.Contains(text, "http"), Body: text},
	})
}

// SendMenu sends an interactive list. The Cloud API allows at most ten rows,
// so extra options are dropped.
func (c *WhatsAppClient) SendMenu(ctx context.Context, to string, menu models.Menu) error {
	rows := make([]listRow, 0, len(menu.Options))
	for i, opt := range menu.Options {
		if i == maxListRows {
			break
		}
		rows = append(rows, listRow{
			ID:          opt.ID,
			Title:       truncate(opt.Title, maxRowTitle),
			Description: truncate(opt.Description, maxRowDescription),
		})
	}

	interactive := &outboundInteractive{
		Type: "list",
		Body: listBody{Text: menu.Body},
		Action: listAction{
			Button:   truncate(menu.Button, maxListButton),
			Sections: []listSection{{Rows: rows}},
		},
	}
	if menu.Header != "" {
		interactive.Header = &listHeader{Type: "text", Text: truncate(menu.Header, maxHeaderText)}
	}
	return c.send(ctx, outboundMessage{Type: "interactive", To: to, Interactive: interactive})
}

func (c *WhatsAppClient) SendImage(ctx context.Context, to, url, caption string) error {
	return c.send(ctx, outboundMessage{
		Type:  "image",
		To:    to,
		Image: &outboundImage{Link: url, Caption: caption},
	})
}

// DownloadMedia resolves a media id to its temporary URL and downloads it.
func (c *WhatsAppClient) DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error) {
	var meta struct {
		URL      string `json:"url"`
		MimeType string `json:"mime_type"`
	}
	if err := c.do(ctx, http.MethodGet, c.graphURL(mediaID), nil, &meta); err != nil {
		return nil, "", fmt.Errorf("whatsapp: resolve media %s: %w", mediaID, err)
	}
	if meta.URL == "" {
		return nil, "", fmt.Errorf("whatsapp: media %s has no download url", mediaID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: build media request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: download media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("whatsapp: download media: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaDownload))
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: read media: %w", err)
	}
	mimeType := meta.MimeType
	if mimeType == "" {
		mimeType = resp.Header.Get("Content-Type")
	}
	return data, mimeType, nil
}

// MarkRead marks an inbound message as read so the sender sees blue ticks.
func (c *WhatsAppClient) MarkRead(ctx context.Context, messageID string) error {
	body := map[string]string{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	}
	return c.do(ctx, http.MethodPost, c.graphURL(c.cfg.PhoneNumberID, "messages"), body, nil)
}

func (c *WhatsAppClient) send(ctx context.Context, msg outboundMessage) error {
	msg.MessagingProduct = "whatsapp"
	msg.RecipientType = "individual"
	if err := c.do(ctx, http.MethodPost, c.graphURL(c.cfg.PhoneNumberID, "messages"), msg, nil); err != nil {
		return fmt.Errorf("whatsapp: send %s: %w", msg.Type, err)
	}
	return nil
}

func (c *WhatsAppClient) graphURL(parts ...string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + c.cfg.APIVersion + "/" + strings.Join(parts, "/")
}

func (c *WhatsAppClient) do(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp struct {
			Error GraphError `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			errResp.Error.Message = http.StatusText(resp.StatusCode)
		}
		errResp.Error.Status = resp.StatusCode
		return &errResp.Error
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response failed: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}
