package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/dispatch"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/i18n"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
)

var (
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "freight_guard", Name: "dispatch_total", Help: "Dispatch decisions by action and outcome"},
		[]string{"action", "outcome"},
	)
	SafeModeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "freight_guard", Name: "safe_mode_total", Help: "Dispatches refused because the action table and guards disagreed",
	})
	LabelFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "freight_guard", Name: "label_fallback_total", Help: "Codes rendered through the humanized fallback"},
		[]string{"kind"},
	)
	ExpiredRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "freight_guard", Name: "expired_service_requests_total", Help: "Service requests cancelled by the expiry sweep",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "freight_guard", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "freight_guard",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// DispatchObserver counts every decision and logs refusals at debug and
// safe-mode entries at warn.
func DispatchObserver(log zerolog.Logger) dispatch.Observer {
	return func(req dispatch.Request, res dispatch.Result) {
		outcome := "permitted"
		switch {
		case res.SafeMode:
			outcome = "safe_mode"
			SafeModeTotal.Inc()
			log.Warn().
				Str("freight_id", req.FreightID.String()).
				Str("action", string(req.Action)).
				Str("status", string(req.CurrentStatus)).
				Str("role", string(req.Role)).
				Msg("dispatch entered safe mode")
		case !res.Permitted:
			outcome = "rejected"
			log.Debug().
				Str("freight_id", req.FreightID.String()).
				Str("action", string(req.Action)).
				Str("code", string(res.Code)).
				Msg("dispatch rejected")
		}
		DispatchTotal.WithLabelValues(actionLabel(req.Action), outcome).Inc()
	}
}

// actionLabel keeps the action label to the known vocabulary; the raw value
// comes from the request path.
func actionLabel(action model.Action) string {
	if known, ok := model.ParseFreightAction(string(action)); ok {
		return string(known)
	}
	return "unknown"
}

// LabelFallbackHook counts humanized lookups and, when verbose, logs them.
func LabelFallbackHook(log zerolog.Logger, verbose bool) i18n.FallbackHook {
	return func(kind i18n.FallbackKind, code string) {
		LabelFallbackTotal.WithLabelValues(string(kind)).Inc()
		if verbose {
			log.Warn().Str("kind", string(kind)).Str("code", code).Msg("no translation, humanized fallback used")
		}
	}
}
