package coverage

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	coveragePasses        *prometheus.CounterVec
	coverageSectionErrors *prometheus.CounterVec
)

func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec) {
	passes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zone_coverage_passes_total",
			Help: "Number of coverage aggregation passes by source",
		},
		[]string{"source"},
	)
	sections := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zone_coverage_section_errors_total",
			Help: "Number of fallback coverage sections degraded to empty",
		},
		[]string{"section"},
	)
	return passes, sections
}

func init() {
	coveragePasses, coverageSectionErrors = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers coverage metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(coveragePasses, coverageSectionErrors)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	coveragePasses, coverageSectionErrors = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
