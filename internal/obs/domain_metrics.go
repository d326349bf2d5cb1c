package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// ProviderRequestsTotal counts calls to the payment provider by operation and outcome.
	ProviderRequestsTotal *prometheus.CounterVec
	// ProviderRequestLatency records payment provider call latency in milliseconds.
	ProviderRequestLatency *prometheus.HistogramVec
	// RedirectOutcomeTotal counts completed shopper redirects by mapped outcome.
	RedirectOutcomeTotal *prometheus.CounterVec
	// PaymentDataStoreTotal counts correlation store operations by result.
	PaymentDataStoreTotal *prometheus.CounterVec
	// WebhookNotificationsTotal counts inbound provider notifications by event code and result.
	WebhookNotificationsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_provider_requests_total",
			Help:      "Count of payment provider calls by operation and result.",
		}, []string{"operation", "result"})
		ProviderRequestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_provider_request_duration_ms",
			Help:      "Latency of payment provider calls in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"operation"})
		RedirectOutcomeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_redirect_outcome_total",
			Help:      "Count of shopper redirects by mapped result page.",
		}, []string{"outcome"})
		PaymentDataStoreTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_data_store_total",
			Help:      "Count of payment data correlation store operations.",
		}, []string{"op", "result"})
		WebhookNotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_notifications_total",
			Help:      "Count of received webhook notifications by event code and result.",
		}, []string{"event", "result"})

		ProviderRequestsTotal = register(reg, ProviderRequestsTotal)
		ProviderRequestLatency = register(reg, ProviderRequestLatency)
		RedirectOutcomeTotal = register(reg, RedirectOutcomeTotal)
		PaymentDataStoreTotal = register(reg, PaymentDataStoreTotal)
		WebhookNotificationsTotal = register(reg, WebhookNotificationsTotal)
	})
}

// IncProviderRequest records a provider call outcome when domain metrics are registered.
func IncProviderRequest(operation, result string) {
	if ProviderRequestsTotal != nil {
		ProviderRequestsTotal.WithLabelValues(operation, result).Inc()
	}
}

// IncRedirectOutcome records a redirect outcome when domain metrics are registered.
func IncRedirectOutcome(outcome string) {
	if RedirectOutcomeTotal != nil {
		RedirectOutcomeTotal.WithLabelValues(outcome).Inc()
	}
}

// IncPaymentDataStore records a correlation store operation when domain metrics are registered.
func IncPaymentDataStore(op, result string) {
	if PaymentDataStoreTotal != nil {
		PaymentDataStoreTotal.WithLabelValues(op, result).Inc()
	}
}

// IncWebhookNotification records a webhook outcome when domain metrics are registered.
func IncWebhookNotification(event, result string) {
	if WebhookNotificationsTotal != nil {
		WebhookNotificationsTotal.WithLabelValues(event, result).Inc()
	}
}
