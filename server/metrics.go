package server

import (
	"net"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/pelageech/gameserv/metrics"
)

const metricsPath = "/metrics"

// NewMetricsServer returns a server exposing m on its own port, apart from
// the document root.
func NewMetricsServer(port int, m *metrics.Metrics, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(metricsPath, m.Handler())
	return &http.Server{
		Addr:              net.JoinHostPort(Host, strconv.Itoa(port)),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          logger.StandardLog(log.StandardLogOptions{ForceLevel: log.WarnLevel}),
	}
}
