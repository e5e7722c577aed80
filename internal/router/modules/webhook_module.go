package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/sharecycle/accounts/internal/interface/http"
)

// WebhookModule registers the mail-provider callback. No rate limit:
// the signature check gates it and Mailgun retries on errors.
type WebhookModule struct {
	Handler *handlers.WebhookHandler
}

func NewWebhookModule(h *handlers.WebhookHandler) *WebhookModule {
	return &WebhookModule{Handler: h}
}

func (m *WebhookModule) Register(rg *gin.RouterGroup) {
	rg.POST("/webhooks/mailgun/events", m.Handler.MailgunEvents)
}
