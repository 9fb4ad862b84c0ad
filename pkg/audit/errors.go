package audit

import "errors"

var (
	ErrMissingEventID = errors.New("audit: event id is required")
	ErrInvalidDetails = errors.New("audit: event details are not serializable")
	ErrStoreFailed    = errors.New("audit: store operation failed")
)
