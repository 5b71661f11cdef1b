package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var processStartedAt = time.Now().UTC()

// authMetrics implements handlers.AuthMetrics over prometheus counters.
type authMetrics struct {
	loginSuccess prometheus.Counter
	loginFailure prometheus.Counter
	lockouts     prometheus.Counter
	rateLimited  prometheus.Counter
}

func newAuthMetrics() *authMetrics {
	return &authMetrics{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_login_success_total",
			Help: "Successful logins.",
		}),
		loginFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_login_failure_total",
			Help: "Rejected login attempts.",
		}),
		lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_login_lockouts_total",
			Help: "Login attempts rejected because the account is locked.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_login_rate_limited_total",
			Help: "Login attempts rejected by the rate limiter.",
		}),
	}
}

func (m *authMetrics) LoginSuccess() { m.loginSuccess.Inc() }
func (m *authMetrics) LoginFailure() { m.loginFailure.Inc() }
func (m *authMetrics) Lockout()      { m.lockouts.Inc() }
func (m *authMetrics) RateLimited()  { m.rateLimited.Inc() }

func (m *authMetrics) register(reg *prometheus.Registry) {
	reg.MustRegister(m.loginSuccess, m.loginFailure, m.lockouts, m.rateLimited)
}

func (s *Server) registerObservabilityRoutes() {
	s.router.MethodFunc("GET", "/healthz", s.healthz)
	s.router.MethodFunc("GET", "/readyz", s.readyz)

	if s.cfg != nil && s.cfg.Observability.MetricsEnabled {
		reg := prometheus.NewRegistry()
		_ = reg.Register(collectors.NewGoCollector())
		_ = reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "portfolio_uptime_seconds",
			Help: "Process uptime in seconds.",
		}, func() float64 {
			return time.Since(processStartedAt).Seconds()
		}))
		s.authMetrics.register(reg)

		handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		s.router.Method("GET", "/metrics", s.requireMetricsAuth(handler))
	}
}

func (s *Server) requireMetricsAuth(next http.Handler) http.Handler {
	token := strings.TrimSpace(s.cfg.Observability.MetricsToken)
	if token == "" {
		if !s.cfg.IsProduction() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
	expected := "Bearer " + token
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != expected {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"now":        time.Now().UTC().Format(time.RFC3339Nano),
		"uptime_sec": int64(time.Since(processStartedAt).Seconds()),
		"app_env":    s.cfg.AppEnv,
	})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()
	if s.db == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
		return
	}
	if err := s.db.PingContext(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
