package entity

import "time"

// Group is the minimal slice of the group domain this service needs:
// membership lookup and removal during the account deletion cascade.
// The group domain proper lives in its own service.
type Group struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// GroupMembership links an account to a group.
type GroupMembership struct {
	GroupID   string
	AccountID string
	CreatedAt time.Time
}
