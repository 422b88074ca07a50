package dns

import (
	"github.com/prometheus/client_golang/prometheus"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
)

var reconcileTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dns_record_reconcile_total",
		Help: "Record set replace requests by record type and outcome.",
	},
	[]string{"type", "outcome"},
)

func init() {
	ctrlmetrics.Registry.MustRegister(reconcileTotal)
}

func observeOutcome(recordType string, o Outcome) {
	reconcileTotal.WithLabelValues(recordType, o.String()).Inc()
}
