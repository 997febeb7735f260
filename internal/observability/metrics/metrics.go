package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "vendor_inquiry"

// Form submission outcomes.
const (
	OutcomeValidation  = "validation"
	OutcomeTransport   = "transport"
	OutcomeApplication = "application"
	OutcomeSuccess     = "success"
)

// InquiryMetrics exposes counters/histograms for the intake endpoint.
type InquiryMetrics struct {
	intakeTotal   *prometheus.CounterVec
	intakeLatency *prometheus.HistogramVec
	notifyTotal   *prometheus.CounterVec
}

func NewInquiryMetrics(reg prometheus.Registerer) *InquiryMetrics {
	m := &InquiryMetrics{
		intakeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "inquiries_total",
			Help:      "Inquiries received by the intake endpoint",
		}, []string{"category", "status"}),
		intakeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "latency_seconds",
			Help:      "Latency of inquiry intake requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		notifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "operator_notifications_total",
			Help:      "Operator notifications sent for new inquiries",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.intakeTotal, m.intakeLatency, m.notifyTotal)
	return m
}

// ObserveIntake records one intake request. Callers pass a known category or "other"
// so client input cannot grow label cardinality.
func (m *InquiryMetrics) ObserveIntake(category, status string, seconds float64) {
	if m == nil {
		return
	}
	m.intakeTotal.WithLabelValues(category, status).Inc()
	m.intakeLatency.WithLabelValues(status).Observe(seconds)
}

func (m *InquiryMetrics) ObserveNotification(status string) {
	if m == nil {
		return
	}
	m.notifyTotal.WithLabelValues(status).Inc()
}

// FormMetrics counts submission attempts made by the form controller.
type FormMetrics struct {
	submissions *prometheus.CounterVec
}

func NewFormMetrics(reg prometheus.Registerer) *FormMetrics {
	m := &FormMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "form",
			Name:      "submissions_total",
			Help:      "Inquiry form submission attempts by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissions)
	return m
}

func (m *FormMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}
