package policy

import "errors"

var (
	ErrEmptyBucket       = errors.New("policy: bucket is required")
	ErrInvalidBucket     = errors.New("policy: bucket name must not contain '/' or wildcards")
	ErrEmptyNamespace    = errors.New("policy: namespace is required")
	ErrUnscopedNamespace = errors.New("policy: namespace must end with '/' and contain no wildcards")
	ErrEncode            = errors.New("policy: failed to encode document")
)
