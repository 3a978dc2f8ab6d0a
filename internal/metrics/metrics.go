package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingAdmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roommanager",
			Name:      "booking_admitted_total",
			Help:      "Count of bookings admitted, by operation.",
		},
		[]string{"operation"},
	)

	admissionRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roommanager",
			Name:      "booking_rejected_total",
			Help:      "Count of booking admissions rejected, by reason.",
		},
		[]string{"reason"},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "roommanager",
			Name:      "booking_cancelled_total",
			Help:      "Count of bookings soft-deleted.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roommanager",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests, by handler.",
		},
		[]string{"handler"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingAdmitted, admissionRejected, bookingCancelled, httpRequests)
	})
}

func IncBookingAdmitted(operation string) {
	bookingAdmitted.WithLabelValues(operation).Inc()
}

func IncAdmissionRejected(reason string) {
	admissionRejected.WithLabelValues(reason).Inc()
}

func IncBookingCancelled() {
	bookingCancelled.Inc()
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}
