package credentials

import (
	"strings"
	"time"
)

// TemporaryCredential is a short-lived session credential scoped to one namespace.
type TemporaryCredential struct {
	Expiration      time.Time `json:"expiration"`
	AccessKeyID     string    `json:"access_key_id"`
	SecretAccessKey string    `json:"secret_access_key"`
	SessionToken    string    `json:"session_token"`
}

// KeyStatus is the state of a durable access key.
type KeyStatus string

const (
	StatusActive   KeyStatus = "Active"
	StatusInactive KeyStatus = "Inactive"
)

// ParseKeyStatus accepts "Active" or "Inactive" in any letter case.
func ParseKeyStatus(s string) (KeyStatus, error) {
	switch {
	case strings.EqualFold(s, string(StatusActive)):
		return StatusActive, nil
	case strings.EqualFold(s, string(StatusInactive)):
		return StatusInactive, nil
	default:
		return "", ErrInvalidStatus
	}
}

// AccessKey is a durable key owned by a tenant's principal.
// SecretAccessKey is only set in the response that created the key.
type AccessKey struct {
	CreateDate      time.Time `json:"create_date"`
	AccessKeyID     string    `json:"access_key_id"`
	SecretAccessKey string    `json:"secret_access_key,omitempty"`
	Status          KeyStatus `json:"status"`
}
