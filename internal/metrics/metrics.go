package metrics

import (
	"sync"

	"infinityhotel/internal/events"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "infinity_hotel"

var (
	once sync.Once

	reservationEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_events_total",
			Help:      "Count of committed reservation lifecycle events by type.",
		},
		[]string{"event"},
	)

	reservationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_created_total",
			Help:      "Count of reservations created by origin.",
		},
		[]string{"origin"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of API requests by route and status class.",
		},
		[]string{"route", "code"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Count of public requests rejected by the rate limiter.",
		},
	)

	backups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Count of storage backups by result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationEvents, reservationsCreated, httpRequests, rateLimited, backups)
	})
}

// Subscribe counts every reservation event published on bus.
func Subscribe(bus *events.Bus) {
	bus.SubscribeAll(func(e events.Event) {
		reservationEvents.WithLabelValues(string(e.Type)).Inc()
		if e.Type == events.ReservationCreated {
			reservationsCreated.WithLabelValues(e.Origin).Inc()
		}
	})
}

func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

func IncRateLimited() {
	rateLimited.Inc()
}

func IncBackup(result string) {
	backups.WithLabelValues(result).Inc()
}
