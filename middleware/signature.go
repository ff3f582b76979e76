package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"clinicbot/utils"

	"github.com/gin-gonic/gin"
)

const (
	signatureHeader = "X-Hub-Signature-256"
	signaturePrefix = "sha256="
	maxWebhookBody  = 1 << 20
)

// WebhookSignatureMiddleware rejects webhook posts whose X-Hub-Signature-256
// does not match the HMAC-SHA256 of the body under appSecret. An empty secret
// disables the check. The body is restored for the next handler.
func WebhookSignatureMiddleware(appSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if appSecret == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Unreadable body", err.Error())
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if !validSignature(appSecret, body, c.GetHeader(signatureHeader)) {
			utils.JSONError(c, http.StatusUnauthorized, "Invalid signature", "X-Hub-Signature-256 mismatch")
			return
		}
		c.Next()
	}
}

func validSignature(secret string, body []byte, header string) bool {
	if !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Sign returns the X-Hub-Signature-256 value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
