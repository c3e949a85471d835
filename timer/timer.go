package timer

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pelageech/gameserv/metrics"
)

// MakeRequestTimeTracker wraps handler so that saver receives the time
// spent in it.
func MakeRequestTimeTracker(
	handler http.Handler,
	saver func(rw *metrics.Recorder, req *http.Request, t time.Duration),
) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		start := time.Now()
		w := metrics.NewRecorder(rw)
		handler.ServeHTTP(w, req)
		saver(w, req, time.Since(start))
	})
}

// Track logs every request served by next.
func Track(logger *log.Logger, next http.Handler) http.Handler {
	return MakeRequestTimeTracker(next, func(rw *metrics.Recorder, req *http.Request, t time.Duration) {
		logger.Info("Served",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rw.Status(),
			"bytes", rw.Written(),
			"time", t,
			"remote", req.RemoteAddr,
		)
	})
}
