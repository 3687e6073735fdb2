package sampler

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"www.velocidex.com/golang/semwatch/semaphores"
	"www.velocidex.com/golang/semwatch/utils"
)

type Metrics struct {
	Registry *prometheus.Registry

	Samples    prometheus.Counter
	Failures   *prometheus.CounterVec
	Semaphores *prometheus.GaugeVec
	Ceiling    prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		Registry: registry,
		Samples: factory.NewCounter(prometheus.CounterOpts{
			Name: "semwatch_samples_total",
			Help: "Number of samples appended to the sample log.",
		}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "semwatch_sample_failures_total",
			Help: "Number of sampling passes that failed, by error kind.",
		}, []string{"kind"}),
		Semaphores: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "semwatch_semaphores",
			Help: "Semaphores attributed to each bucket in the last sample.",
		}, []string{"bucket", "user"}),
		Ceiling: factory.NewGauge(prometheus.GaugeOpts{
			Name: "semwatch_max_semaphores",
			Help: "System wide semaphore limit in the last sample.",
		}),
	}
}

func (self *Metrics) observe(sample *semaphores.Sample) {
	self.Samples.Inc()
	self.Ceiling.Set(float64(sample.Ceiling))
	for _, b := range sample.Tally.Tracked {
		self.Semaphores.WithLabelValues(string(b.Role), b.User).Set(float64(b.Count))
	}
	self.Semaphores.WithLabelValues("system", "").Set(float64(sample.Tally.System))
}

func (self *Metrics) fail(err error) {
	self.Failures.WithLabelValues(errorKind(err)).Inc()
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, utils.NotFoundError):
		return "not_found"
	case errors.Is(err, utils.ExternalToolError):
		return "external_tool"
	case errors.Is(err, utils.ParseError):
		return "parse"
	case errors.Is(err, utils.InvalidArgumentError):
		return "invalid_argument"
	default:
		return "io"
	}
}
