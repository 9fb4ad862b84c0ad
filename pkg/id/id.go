// Package id generates the identifiers attached to requests and audit events.
package id

import (
	"github.com/google/uuid"
	"github.com/rs/xid"
)

// NewRequestID returns a 20 character, URL-safe, time-sortable ID.
func NewRequestID() string {
	return xid.New().String()
}

// NewEventID returns a time-ordered UUIDv7, or a random UUIDv4 when the
// clock source fails.
func NewEventID() string {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return v.String()
}
