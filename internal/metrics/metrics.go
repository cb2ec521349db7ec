package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xtding233/idle-gacha/internal/gacha"
)

const namespace = "idle_gacha"

// Recorder owns a registry with the pull and HTTP collectors. It implements
// gacha.Observer, so one Recorder can be shared by every banner engine.
type Recorder struct {
	Registry *prometheus.Registry

	pulls     *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	exhausted *prometheus.CounterVec
	pity      *prometheus.GaugeVec
	reloads   *prometheus.CounterVec

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var _ gacha.Observer = (*Recorder)(nil)

func New() *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),
		pulls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gacha",
				Name:      "pulls_total",
				Help:      "Items granted, by banner, rarity and what drove the roll.",
			},
			[]string{"banner", "rarity", "trigger"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gacha",
				Name:      "fallbacks_total",
				Help:      "Pulls served from another rarity's pool because the rolled pool was empty.",
			},
			[]string{"banner", "requested", "substituted"},
		),
		exhausted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gacha",
				Name:      "exhausted_total",
				Help:      "Pulls aborted because every item pool was empty.",
			},
			[]string{"banner"},
		),
		pity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "gacha",
				Name:      "pity_count",
				Help:      "Current pity counter per banner.",
			},
			[]string{"banner"},
		),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "banner",
				Name:      "reloads_total",
				Help:      "Banner hot reloads, by outcome.",
			},
			[]string{"banner", "success"},
		),
		httpInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "inflight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"method", "route"},
		),
	}
	r.Registry.MustRegister(
		r.pulls,
		r.fallbacks,
		r.exhausted,
		r.pity,
		r.reloads,
		r.httpInFlight,
		r.httpRequests,
		r.httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return r
}

func (r *Recorder) ObservePull(banner, rarity string, trigger gacha.Trigger) {
	r.pulls.WithLabelValues(banner, rarity, trigger.String()).Inc()
}

func (r *Recorder) ObserveFallback(banner, requested, substituted string) {
	r.fallbacks.WithLabelValues(banner, requested, substituted).Inc()
}

func (r *Recorder) ObserveExhausted(banner string) {
	r.exhausted.WithLabelValues(banner).Inc()
}

// SetPity publishes a banner's pity counter after a pull or reset.
func (r *Recorder) SetPity(banner string, count int) {
	r.pity.WithLabelValues(banner).Set(float64(count))
}

func (r *Recorder) RecordReload(banner string, success bool) {
	if banner == "" {
		banner = "all"
	}
	r.reloads.WithLabelValues(banner, strconv.FormatBool(success)).Inc()
}

// Handler exposes the registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}

// Instrument is chi middleware recording HTTP metrics by route pattern.
func (r *Recorder) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/metrics" {
			next.ServeHTTP(w, req)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		r.httpInFlight.Inc()
		defer r.httpInFlight.Dec()

		next.ServeHTTP(rec, req)

		route := routePattern(req)
		method := strings.ToUpper(req.Method)
		r.httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		r.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// routePattern keeps label cardinality bounded: banner names stay in the
// pattern, not the label.
func routePattern(req *http.Request) string {
	if rctx := chi.RouteContext(req.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
