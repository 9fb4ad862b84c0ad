package gateway

import (
	"io"
	"time"
)

// Object is a listing entry. Folders are synthetic entries for common
// prefixes: size 0, no etag, IsFolder set.
type Object struct {
	LastModified time.Time `json:"last_modified,omitzero"`
	Key          string    `json:"key"`
	ETag         string    `json:"etag"`
	StorageClass string    `json:"storage_class"`
	Size         int64     `json:"size"`
	IsFolder     bool      `json:"is_folder"`
}

// ListingPage is one page of a namespace listing.
// ContinuationToken is opaque and must be passed back unmodified.
type ListingPage struct {
	Prefix            string   `json:"prefix"`
	ContinuationToken string   `json:"continuation_token,omitempty"`
	Objects           []Object `json:"objects"`
	HasMore           bool     `json:"has_more"`
}

// ListInput selects a listing page.
type ListInput struct {
	Prefix            string
	ContinuationToken string
	MaxKeys           int32
}

// UploadInput describes an object to store.
// Size may be -1 when unknown; it is then only bounded by the store.
type UploadInput struct {
	Body        io.Reader
	Key         string
	ContentType string
	Size        int64
}

// UploadResult identifies a stored object.
type UploadResult struct {
	Key  string `json:"key"`
	ETag string `json:"etag"`
}

// DeleteError reports a key the store refused to delete in a batch.
type DeleteError struct {
	Key     string `json:"key"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DeleteResult is the outcome of a batch delete. Partial failure is not an error.
type DeleteResult struct {
	Deleted []string      `json:"deleted"`
	Errors  []DeleteError `json:"errors"`
}

// DownloadURL is a time-limited, capability-bearing GET URL.
type DownloadURL struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
}

// ObjectMetadata is the result of a HEAD request.
type ObjectMetadata struct {
	LastModified  time.Time         `json:"last_modified"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Key           string            `json:"key"`
	ContentType   string            `json:"content_type"`
	ETag          string            `json:"etag"`
	VersionID     string            `json:"version_id,omitempty"`
	StorageClass  string            `json:"storage_class,omitempty"`
	ContentLength int64             `json:"content_length"`
}

// ObjectVersion is one entry of an object's version history.
type ObjectVersion struct {
	LastModified   time.Time `json:"last_modified"`
	Key            string    `json:"key"`
	VersionID      string    `json:"version_id"`
	ETag           string    `json:"etag"`
	Size           int64     `json:"size"`
	IsLatest       bool      `json:"is_latest"`
	IsDeleteMarker bool      `json:"is_delete_marker,omitempty"`
}

// CompletedPart echoes a part the client uploaded directly to the store.
type CompletedPart struct {
	ETag       string `json:"etag"`
	PartNumber int32  `json:"part_number"`
}

// MultipartUpload is an in-flight multipart upload.
type MultipartUpload struct {
	Initiated time.Time `json:"initiated"`
	Key       string    `json:"key"`
	UploadID  string    `json:"upload_id"`
}

// PartURL is a presigned URL for uploading a single part.
type PartURL struct {
	URL        string `json:"url"`
	PartNumber int32  `json:"part_number"`
	ExpiresIn  int64  `json:"expires_in"`
}
