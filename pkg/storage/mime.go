package storage

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
)

// MIME type constants.
const (
	MIMEOctetStream    = "application/octet-stream"
	mimeDetectionBytes = 512 // http.DetectContentType requires up to 512 bytes
)

// DetectContentType returns the content type for an upload and a reader that
// still yields the whole body.
//
// A declared type other than application/octet-stream wins. Otherwise the key's
// extension is tried, then the first 512 bytes of the body.
func DetectContentType(declared, key string, r io.Reader) (string, io.Reader) {
	if ct := normalizeMIME(declared); ct != "" && ct != MIMEOctetStream {
		return declared, r
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct, r
	}

	buf := make([]byte, mimeDetectionBytes)
	n, err := io.ReadFull(r, buf)
	head := buf[:n]
	body := io.MultiReader(bytes.NewReader(head), r)
	if n == 0 && err != nil {
		return MIMEOctetStream, body
	}
	return http.DetectContentType(head), body
}

// normalizeMIME extracts the base MIME type, removing parameters like charset.
// Returns the lowercase MIME type.
func normalizeMIME(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.TrimSpace(strings.ToLower(mimeType))
}
