// Package nocache disables client and proxy caching of every response.
package nocache

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
)

// Header is a single cache-busting header.
type Header struct {
	Key   string
	Value string
}

// headers are set on every response, in this order, right before
// the status line is written.
var headers = [...]Header{
	{Key: "Cache-Control", Value: "no-cache, no-store, must-revalidate"},
	{Key: "Pragma", Value: "no-cache"},
	{Key: "Expires", Value: "0"},
}

// Headers returns a copy of the cache-busting headers.
func Headers() []Header {
	h := headers
	return h[:]
}

// Handler wraps next so that Headers are present on all of its responses,
// error responses and redirects included. The headers are written when next
// finalizes its header map, so anything next did to Cache-Control before
// that is overridden.
func Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		w := &responseWriter{ResponseWriter: rw}
		next.ServeHTTP(w, req)
		// nothing written at all still yields an implicit 200
		w.finalize()
	})
}

// Apply sets Headers on h.
func Apply(h http.Header) {
	for _, header := range headers {
		h.Set(header.Key, header.Value)
	}
}

type responseWriter struct {
	http.ResponseWriter
	finalized bool
}

func (w *responseWriter) finalize() {
	if w.finalized {
		return
	}
	w.finalized = true
	Apply(w.ResponseWriter.Header())
}

func (w *responseWriter) WriteHeader(statusCode int) {
	// 1xx responses are informational, the final header block comes later
	if statusCode >= 100 && statusCode < 200 {
		w.ResponseWriter.WriteHeader(statusCode)
		return
	}
	w.finalize()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.finalize()
	return w.ResponseWriter.Write(b)
}

// ReadFrom keeps the sendfile path of the underlying writer available.
func (w *responseWriter) ReadFrom(r io.Reader) (int64, error) {
	w.finalize()
	if rf, ok := w.ResponseWriter.(io.ReaderFrom); ok {
		return rf.ReadFrom(r)
	}
	return io.Copy(struct{ io.Writer }{w.ResponseWriter}, r)
}

func (w *responseWriter) Flush() {
	w.finalize()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("nocache: underlying ResponseWriter does not support hijacking")
}

// Unwrap is used by http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
