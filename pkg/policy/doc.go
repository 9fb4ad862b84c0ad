// Package policy synthesizes least-privilege IAM documents scoped to a
// single tenant namespace.
//
// Every document has two statements: object read/write/delete/version access
// on "arn:aws:s3:::{bucket}/{namespace}*", and bucket listing conditioned on
// s3:prefix matching "{namespace}*". The same document is used for session
// tokens (Session variant) and for the durable principal's inline policy
// (Principal variant).
//
//	doc, err := policy.Build(policy.Session, "shared-bucket", "users/u-1/")
//	raw, err := doc.JSON()
package policy
