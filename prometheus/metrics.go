package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter metrics
var (
	// Directory operations by name, e.g. "create_commerce", "search_visible"
	DirectoryOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_operations_total",
			Help: "Total number of directory operations",
		},
		[]string{"operation"},
	)

	DirectoryErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_errors_total",
			Help: "Total number of failed directory operations by error kind",
		},
		[]string{"operation", "kind"},
	)

	// Subscription outcomes: "created", "renewed", "renewal_rejected", "dismissed"
	SubscriptionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_events_total",
			Help: "Total number of subscription events",
		},
		[]string{"event"},
	)

	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "directory_owner_register_total",
			Help: "Total number of business owner registrations",
		},
	)

	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "directory_owner_login_total",
			Help: "Total number of business owner login attempts",
		},
	)

	ExpiredOwnersCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "directory_owners_expired_total",
			Help: "Total number of business owners whose fee flag was cleared by the expiry sweep",
		},
	)

	VilleCacheCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_ville_cache_total",
			Help: "Ville name cache lookups by result",
		},
		[]string{"result"}, // "hit" or "miss"
	)
)

// Histogram metrics
var (
	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "directory_store_operation_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(DirectoryOperationCounter)
	prometheus.MustRegister(DirectoryErrorCounter)
	prometheus.MustRegister(SubscriptionCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(ExpiredOwnersCounter)
	prometheus.MustRegister(VilleCacheCounter)
	prometheus.MustRegister(StoreOperationDuration)
}

// TrackStoreOperation returns a function to be deferred that observes the store operation duration
func TrackStoreOperation(operation string) func() {
	start := time.Now()
	return func() {
		StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
