package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Engine-side Prometheus collectors. HTTP-side collectors live in the
// handler package.
var (
	recomputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rabbithole_recompute_duration_seconds",
		Help:    "Duration of full per-target recompute pipelines.",
		Buckets: prometheus.DefBuckets,
	})

	promotionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rabbithole_promotions_total",
		Help: "Total promotion events, by kind.",
	}, []string{"kind"})

	reputationEpochDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rabbithole_reputation_epoch_duration_seconds",
		Help:    "Duration of full reputation recompute epochs.",
		Buckets: prometheus.DefBuckets,
	})
)

// RegisterMetrics registers the engine collectors. Call once at startup.
func RegisterMetrics() {
	prometheus.MustRegister(recomputeDuration, promotionsTotal, reputationEpochDuration)
}

func observeRecomputeDuration(d time.Duration) {
	recomputeDuration.Observe(d.Seconds())
}

func countPromotion(kind string) {
	promotionsTotal.WithLabelValues(kind).Inc()
}

func observeEpochDuration(d time.Duration) {
	reputationEpochDuration.Observe(d.Seconds())
}
