package policy

import (
	"encoding/json"
	"errors"
	"strings"
)

// Version is the IAM policy language version.
const Version = "2012-10-17"

// Actions granted on objects inside the namespace.
var ObjectActions = []string{
	"s3:GetObject",
	"s3:PutObject",
	"s3:DeleteObject",
	"s3:GetObjectVersion",
}

// Actions granted on the bucket, restricted by the s3:prefix condition.
var ListActions = []string{
	"s3:ListBucket",
	"s3:ListBucketVersions",
}

// Variant tells where a document is applied.
type Variant int

const (
	// Session documents are passed at token mint time and never persisted.
	Session Variant = iota
	// Principal documents are attached once to the durable per-tenant principal.
	Principal
)

func (v Variant) String() string {
	switch v {
	case Session:
		return "session"
	case Principal:
		return "principal"
	default:
		return "unknown"
	}
}

// Document is an IAM-style authorization document.
type Document struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
	variant   Variant
}

// Statement is a single allow/deny rule.
type Statement struct {
	Condition Condition `json:"Condition,omitempty"`
	Sid       string    `json:"Sid,omitempty"`
	Effect    string    `json:"Effect"`
	Action    []string  `json:"Action"`
	Resource  []string  `json:"Resource"`
}

// Condition maps an operator (e.g. StringLike) to key/values.
// encoding/json sorts map keys, so encoding is deterministic.
type Condition map[string]map[string][]string

// Build returns the least-privilege document for a namespace in bucket.
// Resource patterns are derived only from bucket and namespace; both must be
// non-empty and the namespace must end with "/" so the wildcard cannot cross
// into a sibling namespace.
func Build(variant Variant, bucket, namespace string) (*Document, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, ErrEmptyBucket
	}
	if namespace == "" {
		return nil, ErrEmptyNamespace
	}
	if !strings.HasSuffix(namespace, "/") || strings.ContainsAny(namespace, "*?") {
		return nil, ErrUnscopedNamespace
	}
	if strings.ContainsAny(bucket, "/*?") {
		return nil, ErrInvalidBucket
	}

	pattern := namespace + "*"
	return &Document{
		Version: Version,
		variant: variant,
		Statement: []Statement{
			{
				Sid:      "ObjectAccess",
				Effect:   "Allow",
				Action:   append([]string(nil), ObjectActions...),
				Resource: []string{BucketARN(bucket) + "/" + pattern},
			},
			{
				Sid:      "ListNamespace",
				Effect:   "Allow",
				Action:   append([]string(nil), ListActions...),
				Resource: []string{BucketARN(bucket)},
				Condition: Condition{
					"StringLike": {"s3:prefix": []string{pattern}},
				},
			},
		},
	}, nil
}

// Variant reports where the document is meant to be applied.
func (d *Document) Variant() Variant {
	return d.variant
}

// JSON encodes the document. Equal inputs to Build always encode to identical bytes.
func (d *Document) JSON() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", errors.Join(ErrEncode, err)
	}
	return string(b), nil
}

// BucketARN returns the ARN of an S3 bucket.
func BucketARN(bucket string) string {
	return "arn:aws:s3:::" + bucket
}

// Name returns the inline policy name attached to a tenant's durable principal.
func Name(tenantID string) string {
	return "S3Access-" + tenantID
}
