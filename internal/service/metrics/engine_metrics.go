package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EngineLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "noteflow",
			Subsystem: "engine",
			Name:      "latency_seconds",
			Help:      "Latency of engine endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EngineErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "noteflow",
			Subsystem: "engine",
			Name:      "errors_total",
			Help:      "Errors by engine endpoint",
		},
		[]string{"endpoint"},
	)

	ProductState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "noteflow",
			Subsystem: "engine",
			Name:      "product_state",
			Help:      "Current lifecycle state per product (one-hot by state label)",
		},
		[]string{"product", "state"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EngineLatency, EngineErrors, ProductState)
	})
}
