// Package metrics exposes Prometheus collectors for the selection flow and a small HTTP
// server for /metrics and /health.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch results.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultEmpty = "empty"
)

// Metrics groups the bot's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	fetches        *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	renders        *prometheus.CounterVec
	sessions       prometheus.Gauge
	expiredChoices prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oddsbot",
			Name:      "odds_fetches_total",
			Help:      "Odds feed fetches by sport key and result.",
		}, []string{"sport_key", "result"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "oddsbot",
			Name:      "odds_fetch_duration_seconds",
			Help:      "Odds feed fetch latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 12},
		}, []string{"sport_key"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oddsbot",
			Name:      "renders_total",
			Help:      "Rendered markets by market key and whether any odds were found.",
		}, []string{"market", "result"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "oddsbot",
			Name:      "active_sessions",
			Help:      "Selection sessions currently alive.",
		}),
		expiredChoices: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oddsbot",
			Name:      "expired_choices_total",
			Help:      "Choices made on a session that no longer exists.",
		}),
	}

	reg.MustRegister(m.fetches, m.fetchDuration, m.renders, m.sessions, m.expiredChoices)
	return m
}

// ObserveFetch records one odds feed fetch.
func (m *Metrics) ObserveFetch(sportKey, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(sportKey, result).Inc()
	m.fetchDuration.WithLabelValues(sportKey).Observe(elapsed.Seconds())
}

// ObserveRender records one rendered market.
func (m *Metrics) ObserveRender(market string, found bool) {
	if m == nil {
		return
	}
	result := ResultOK
	if !found {
		result = ResultEmpty
	}
	m.renders.WithLabelValues(market, result).Inc()
}

// SetSessions reports the number of live sessions.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// ExpiredChoice counts a choice on a dead session.
func (m *Metrics) ExpiredChoice() {
	if m == nil {
		return
	}
	m.expiredChoices.Inc()
}

// Server serves /metrics and /health.
type Server struct {
	srv *http.Server
}

// NewServer builds a metrics server for gatherer on addr.
func NewServer(addr string, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the server's routes.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
