package helpers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharecycle/accounts/pkg/mailer"
)

func TestPublishJSONNotConnected(t *testing.T) {
	var p *RabbitPublisher

	err := p.PublishJSON(context.Background(), map[string]string{"to": "fox@example.org"})
	require.Error(t, err)
}

func TestOutboxWithDisconnectedPublisher(t *testing.T) {
	// A typed-nil *RabbitPublisher stored in the Publisher interface is
	// not a nil interface, so the outbox's own nil check cannot catch
	// it. Enqueue must come back with an error, not a panic.
	var p *RabbitPublisher
	out := mailer.NewQueueOutbox(p, true, nil)

	err := out.Enqueue(context.Background(), mailer.EmailJob{
		To:       "fox@example.org",
		Template: "mailverification",
	})
	assert.Error(t, err)
}
