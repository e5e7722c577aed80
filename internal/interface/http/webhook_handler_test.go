package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharecycle/accounts/internal/domain/entity"
	"github.com/sharecycle/accounts/pkg/mailer"
)

const testSigningKey = "whsec-test"

type memEventRepo struct {
	events []*entity.EmailEvent
}

func (r *memEventRepo) Record(ctx context.Context, ev *entity.EmailEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *memEventRepo) IgnoredAddresses(ctx context.Context) ([]string, error) {
	var out []string
	for _, ev := range r.events {
		out = append(out, ev.Address)
	}
	return out, nil
}

func signedPayload(t *testing.T, event, recipient string) []byte {
	t.Helper()
	ts, token := "1700000000", "a1b2c3d4e5"
	mac := hmac.New(sha256.New, []byte(testSigningKey))
	mac.Write([]byte(ts + token))

	body, err := json.Marshal(map[string]any{
		"signature": map[string]string{
			"timestamp": ts,
			"token":     token,
			"signature": hex.EncodeToString(mac.Sum(nil)),
		},
		"event-data": map[string]string{
			"event":     event,
			"recipient": recipient,
		},
	})
	require.NoError(t, err)
	return body
}

func postEvents(h *WebhookHandler, body []byte) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/webhooks/mailgun/events", h.MailgunEvents)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mailgun/events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func newWebhookHandler(repo *memEventRepo) *WebhookHandler {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	mgc := mailer.NewMailgun("mg.example.org", "key", "noreply@example.org", testSigningKey)
	return NewWebhookHandler(repo, nil, mgc, logger)
}

func TestMailgunEvents_RecordsBounce(t *testing.T) {
	repo := &memEventRepo{}
	h := newWebhookHandler(repo)

	w := postEvents(h, signedPayload(t, "bounced", "gone@example.org"))

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.events, 1)
	assert.Equal(t, "gone@example.org", repo.events[0].Address)
	assert.Equal(t, "bounced", repo.events[0].Event)
	assert.NotEmpty(t, repo.events[0].Payload)
}

func TestMailgunEvents_SkipsDeliveryNoise(t *testing.T) {
	repo := &memEventRepo{}
	h := newWebhookHandler(repo)

	w := postEvents(h, signedPayload(t, "delivered", "fine@example.org"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, repo.events)
}

func TestMailgunEvents_RejectsBadSignature(t *testing.T) {
	repo := &memEventRepo{}
	h := newWebhookHandler(repo)

	body, err := json.Marshal(map[string]any{
		"signature": map[string]string{
			"timestamp": "1700000000",
			"token":     "a1b2c3d4e5",
			"signature": "deadbeef",
		},
		"event-data": map[string]string{"event": "bounced", "recipient": "gone@example.org"},
	})
	require.NoError(t, err)

	w := postEvents(h, body)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, repo.events)
}
