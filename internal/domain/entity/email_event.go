package entity

import "time"

// EmailEvent is a delivery event reported by the mail provider webhook.
// Addresses with a bounce-class event are treated as unverified until a
// new verification succeeds.
type EmailEvent struct {
	ID        string
	Address   string
	Event     string // bounced, dropped, complained
	Payload   []byte // raw provider payload, kept for debugging
	CreatedAt time.Time
}

// IgnoreEvents are the event kinds that put an address on the ignore
// list.
var IgnoreEvents = []string{"bounced", "dropped", "complained"}
