package audit

import (
	"time"

	"github.com/dmitrymomot/bucketgate/pkg/id"
)

// Outcome classifies the result of an audited action.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeFailure Outcome = "failure"
	OutcomeWarning Outcome = "warning"
)

// Actions emitted by the gateway core.
const (
	ActionAccessDenied = "access.denied"

	ActionObjectList          = "object.list"
	ActionObjectSearch        = "object.search"
	ActionObjectHead          = "object.head"
	ActionObjectVersions      = "object.versions"
	ActionObjectUpload        = "object.upload"
	ActionObjectDelete        = "object.delete"
	ActionObjectDeleteBatch   = "object.delete_batch"
	ActionObjectDownloadURL   = "object.download_url"
	ActionFolderCreate        = "folder.create"
	ActionMultipartInitiate   = "multipart.initiate"
	ActionMultipartPartURL    = "multipart.part_url"
	ActionMultipartList       = "multipart.list"
	ActionMultipartComplete   = "multipart.complete"
	ActionMultipartAbort      = "multipart.abort"
	ActionMultipartSweep      = "multipart.sweep"
	ActionCredentialsIssue    = "credentials.issue_temporary"
	ActionPrincipalCreate     = "principal.create"
	ActionAccessKeyCreate     = "access_key.create"
	ActionAccessKeyDelete     = "access_key.delete"
	ActionAccessKeyStatus     = "access_key.set_status"
	ActionAccessKeyRotate     = "access_key.rotate"
	ActionAccessKeyRotateWarn = "access_key.rotate_cleanup"
)

// Event is a single audit record.
// Details must be JSON-serializable; it is persisted and shipped through the job queue.
type Event struct {
	Time     time.Time      `json:"time"`
	Details  map[string]any `json:"details,omitempty"`
	ID       string         `json:"id"`
	TenantID string         `json:"tenant_id"`
	Action   string         `json:"action"`
	Resource string         `json:"resource"`
	Outcome  Outcome        `json:"outcome"`
}

// New builds an event stamped with a fresh ID and the current time.
func New(tenantID, action, resource string, outcome Outcome, details map[string]any) Event {
	return Event{
		ID:       id.NewEventID(),
		Time:     time.Now().UTC(),
		TenantID: tenantID,
		Action:   action,
		Resource: resource,
		Outcome:  outcome,
		Details:  details,
	}
}

// Success is shorthand for New with OutcomeSuccess.
func Success(tenantID, action, resource string, details map[string]any) Event {
	return New(tenantID, action, resource, OutcomeSuccess, details)
}

// Denied is shorthand for New with OutcomeDenied.
func Denied(tenantID, action, resource string, details map[string]any) Event {
	return New(tenantID, action, resource, OutcomeDenied, details)
}

// Failure is shorthand for New with OutcomeFailure.
func Failure(tenantID, action, resource string, details map[string]any) Event {
	return New(tenantID, action, resource, OutcomeFailure, details)
}

// Warning is shorthand for New with OutcomeWarning.
func Warning(tenantID, action, resource string, details map[string]any) Event {
	return New(tenantID, action, resource, OutcomeWarning, details)
}
