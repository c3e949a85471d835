package metrics

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/cpu"
)

const timeObserve = 1 * time.Second

type Metrics struct {
	registry *prometheus.Registry

	CPU              prometheus.Gauge
	AllocatedMemory  prometheus.Gauge
	RequestsNow      prometheus.Gauge
	Requests         *prometheus.CounterVec
	ResponseBodySize prometheus.Histogram
}

// New creates the server metrics and registers them in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gameserver_cpu_usage",
			Help: "CPU usage",
		}),
		AllocatedMemory: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gameserver_allocated_memory",
		}),
		RequestsNow: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gameserver_requests_are_being_processed",
			Help: "How many requests are being processed",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gameserver_requests_were_processed",
			Help: "How many requests were processed, by status code",
		}, []string{"code"}),
		ResponseBodySize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gameserver_response_body_size",
			Help:    "Bytes written per response body",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		}),
	}
	m.registry.MustRegister(
		m.CPU,
		m.AllocatedMemory,
		m.RequestsNow,
		m.Requests,
		m.ResponseBodySize,
	)
	return m
}

func (m *Metrics) UpdateCPU() {
	p, err := cpu.Percent(0, false)
	if err == nil && len(p) > 0 {
		m.CPU.Set(p[0])
	}
}

func (m *Metrics) UpdateMemory() {
	s := runtime.MemStats{}
	runtime.ReadMemStats(&s)
	m.AllocatedMemory.Set(float64(s.Alloc))
}

// Observe samples CPU and memory until ctx is done.
func (m *Metrics) Observe(ctx context.Context) {
	t := time.NewTicker(timeObserve)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.UpdateCPU()
			m.UpdateMemory()
		}
	}
}

// Middleware counts requests passing through to next.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		m.RequestsNow.Inc()
		defer m.RequestsNow.Dec()

		w := NewRecorder(rw)
		next.ServeHTTP(w, req)

		m.Requests.WithLabelValues(strconv.Itoa(w.Status())).Inc()
		m.ResponseBodySize.Observe(float64(w.Written()))
	})
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
