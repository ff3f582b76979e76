package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"clinicbot/models"
	"clinicbot/services/messaging"
	"clinicbot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MessageDispatcher handles one inbound message end to end.
type MessageDispatcher interface {
	Dispatch(ctx context.Context, in models.Inbound) error
}

// ReadMarker acknowledges an inbound message to the sender.
type ReadMarker interface {
	MarkRead(ctx context.Context, messageID string) error
}

// WebhookHandler serves the WhatsApp Cloud API webhook. Messages are
// acknowledged immediately and processed in the background.
type WebhookHandler struct {
	verifyToken string
	dispatcher  MessageDispatcher
	deduper     messaging.Deduper
	reads       ReadMarker
	timeout     time.Duration
	logger      *zap.Logger
	wg          sync.WaitGroup
}

// NewWebhookHandler wires the webhook. reads may be nil.
func NewWebhookHandler(verifyToken string, dispatcher MessageDispatcher, deduper messaging.Deduper, reads ReadMarker, timeout time.Duration, logger *zap.Logger) *WebhookHandler {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &WebhookHandler{
		verifyToken: verifyToken,
		dispatcher:  dispatcher,
		deduper:     deduper,
		reads:       reads,
		timeout:     timeout,
		logger:      logger,
	}
}

// VerifyWebhook answers Meta's subscription handshake.
func (h *WebhookHandler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || h.verifyToken == "" || token != h.verifyToken {
		utils.JSONError(c, http.StatusForbidden, "Webhook verification failed", "mode or verify token mismatch")
		return
	}
	c.String(http.StatusOK, challenge)
}

// ReceiveWebhook accepts a notification batch. Anything parseable gets a 200
// so Meta does not redeliver; duplicates are dropped by message id.
func (h *WebhookHandler) ReceiveWebhook(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid webhook payload", err.Error())
		return
	}

	// Messages of one sender run in arrival order on a single goroutine;
	// different senders run in parallel.
	var senders []string
	bySender := make(map[string][]models.Inbound)
	accepted := 0
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				in := msg.ToInbound()
				if in.MessageID == "" || in.UserID == "" {
					continue
				}
				if !h.firstSeen(c.Request.Context(), in.MessageID) {
					h.logger.Debug("duplicate webhook message dropped", zap.String("message_id", in.MessageID))
					continue
				}
				if _, ok := bySender[in.UserID]; !ok {
					senders = append(senders, in.UserID)
				}
				bySender[in.UserID] = append(bySender[in.UserID], in)
				accepted++
			}
		}
	}
	for _, user := range senders {
		h.process(bySender[user])
	}

	c.JSON(http.StatusOK, gin.H{"status": "received", "accepted": accepted})
}

// Wait blocks until in-flight messages finish or ctx is done.
func (h *WebhookHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *WebhookHandler) firstSeen(ctx context.Context, messageID string) bool {
	if h.deduper == nil {
		return true
	}
	first, err := h.deduper.FirstSeen(ctx, messageID)
	if err != nil {
		// Prefer a possible duplicate reply over a lost message.
		h.logger.Warn("dedupe check failed", zap.String("message_id", messageID), zap.Error(err))
		return true
	}
	return first
}

func (h *WebhookHandler) process(batch []models.Inbound) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for _, in := range batch {
			h.handle(in)
		}
	}()
}

func (h *WebhookHandler) handle(in models.Inbound) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if h.reads != nil {
		if err := h.reads.MarkRead(ctx, in.MessageID); err != nil {
			h.logger.Debug("failed to mark message read", zap.String("message_id", in.MessageID), zap.Error(err))
		}
	}
	if err := h.dispatcher.Dispatch(ctx, in); err != nil {
		h.logger.Error("failed to handle message",
			zap.String("user", in.UserID),
			zap.String("message_id", in.MessageID),
			zap.Error(err))
	}
}
