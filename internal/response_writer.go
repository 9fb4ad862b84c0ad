package internal

import "net/http"

// ResponseWriter records the status and body size of a response. It is
// owned by a single request goroutine.
type ResponseWriter struct {
	http.ResponseWriter
	status  int
	size    int64
	written bool
}

func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader keeps the first status; later calls are dropped.
func (w *ResponseWriter) WriteHeader(code int) {
	if w.written {
		return
	}
	w.written = true
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(w.status)
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

func (w *ResponseWriter) Status() int   { return w.status }
func (w *ResponseWriter) Size() int64   { return w.size }
func (w *ResponseWriter) Written() bool { return w.written }

// Unwrap lets http.ResponseController reach Flush and deadlines on the
// original writer.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
