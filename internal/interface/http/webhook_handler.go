package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	mg "github.com/mailgun/mailgun-go/v4"
	"github.com/sirupsen/logrus"

	"github.com/sharecycle/accounts/internal/domain/entity"
	"github.com/sharecycle/accounts/internal/domain/repository"
	"github.com/sharecycle/accounts/internal/infrastructure/cache"
	"github.com/sharecycle/accounts/pkg/mailer"
	"github.com/sharecycle/accounts/pkg/response"
)

// WebhookHandler ingests Mailgun delivery events. Bounce-class events
// put the recipient address on the ignore list, which feeds the
// unverified-or-ignored account listing.
type WebhookHandler struct {
	Events repository.EmailEventRepository
	Cache  *cache.IgnoreList
	MG     *mailer.Mailgun
	Logger *logrus.Logger
}

func NewWebhookHandler(events repository.EmailEventRepository, ignoreCache *cache.IgnoreList, mgc *mailer.Mailgun, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{Events: events, Cache: ignoreCache, MG: mgc, Logger: logger}
}

type mailgunWebhookPayload struct {
	Signature mg.Signature `json:"signature"`
	EventData struct {
		Event     string `json:"event"`
		Recipient string `json:"recipient"`
	} `json:"event-data"`
}

func ignoredEvent(event string) bool {
	for _, e := range entity.IgnoreEvents {
		if e == event {
			return true
		}
	}
	return false
}

// MailgunEvents handles POSTed event webhooks. Mailgun retries non-2xx
// responses, so transient storage errors return 500 on purpose.
func (h *WebhookHandler) MailgunEvents(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "unreadable body", nil)
		return
	}

	var payload mailgunWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", nil)
		return
	}

	ok, err := h.MG.VerifyWebhook(payload.Signature)
	if err != nil || !ok {
		h.Logger.WithError(err).Warn("mailgun webhook signature rejected")
		response.Error(c, http.StatusUnauthorized, "invalid signature", nil)
		return
	}

	ev := payload.EventData.Event
	if !ignoredEvent(ev) {
		// delivery/open/click noise, acknowledged but not stored
		response.Success(c, http.StatusOK, map[string]any{"recorded": false}, "event ignored", nil)
		return
	}

	record := &entity.EmailEvent{
		Address: payload.EventData.Recipient,
		Event:   ev,
		Payload: body,
	}
	if err := h.Events.Record(c.Request.Context(), record); err != nil {
		h.Logger.WithError(err).Error("email event store failed")
		response.Error(c, http.StatusInternalServerError, "event store failed", nil)
		return
	}
	if h.Cache != nil {
		h.Cache.Invalidate(c.Request.Context())
	}

	h.Logger.WithFields(logrus.Fields{"event": ev, "recipient": payload.EventData.Recipient}).Info("email event recorded")
	response.Success(c, http.StatusOK, map[string]any{"recorded": true}, "event recorded", nil)
}
