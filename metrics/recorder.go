package metrics

import (
	"io"
	"net/http"
)

// Recorder remembers the status code and body size of a response.
type Recorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func NewRecorder(rw http.ResponseWriter) *Recorder {
	return &Recorder{ResponseWriter: rw}
}

// Status returns the status sent, 200 if the handler never called WriteHeader.
func (r *Recorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Written returns the number of body bytes sent.
func (r *Recorder) Written() int64 {
	return r.written
}

func (r *Recorder) WriteHeader(statusCode int) {
	if r.status == 0 && statusCode >= 200 {
		r.status = statusCode
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *Recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.written += int64(n)
	return n, err
}

func (r *Recorder) ReadFrom(src io.Reader) (int64, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	var n int64
	var err error
	if rf, ok := r.ResponseWriter.(io.ReaderFrom); ok {
		n, err = rf.ReadFrom(src)
	} else {
		n, err = io.Copy(struct{ io.Writer }{r.ResponseWriter}, src)
	}
	r.written += n
	return n, err
}

func (r *Recorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *Recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
