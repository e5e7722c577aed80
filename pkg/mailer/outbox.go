package mailer

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Outbox enqueues email jobs for asynchronous delivery. Delivery is
// fire-and-forget from the caller's point of view: a failed enqueue
// never rolls back the data mutation that triggered the email.
type Outbox interface {
	Enqueue(ctx context.Context, job EmailJob) error
}

// Publisher is the subset of the AMQP publisher the queue outbox needs.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueOutbox publishes jobs to RabbitMQ for the email worker.
type QueueOutbox struct {
	Pub     Publisher
	Enabled bool
	Logger  *logrus.Logger
}

func NewQueueOutbox(pub Publisher, enabled bool, logger *logrus.Logger) *QueueOutbox {
	return &QueueOutbox{Pub: pub, Enabled: enabled, Logger: logger}
}

func (o *QueueOutbox) Enqueue(ctx context.Context, job EmailJob) error {
	if !o.Enabled || o.Pub == nil {
		if o.Logger != nil {
			o.Logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Debug("email sending disabled; dropping job")
		}
		return nil
	}
	return o.Pub.PublishJSON(ctx, job)
}

// NopOutbox drops every job. Used by one-shot tools like the seeder
// where no broker is available.
type NopOutbox struct{}

func (NopOutbox) Enqueue(context.Context, EmailJob) error { return nil }
