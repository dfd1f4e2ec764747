package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LocksAcquired = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "collabspace", Name: "locks_acquired_total", Help: "Number of granted document locks by mode (fresh, refresh, steal, auto)."},
		[]string{"mode"},
	)
	LockConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "collabspace", Name: "lock_conflicts_total", Help: "Number of lock attempts rejected because another user holds the lock."},
	)
	EditConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "collabspace", Name: "edit_conflicts_total", Help: "Number of document edits rejected by the version check."},
	)
	LocksSwept = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "collabspace", Name: "locks_swept_total", Help: "Number of expired locks cleared by the background sweep."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "collabspace", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "collabspace", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(LocksAcquired)
	reg.MustRegister(LockConflicts)
	reg.MustRegister(EditConflicts)
	reg.MustRegister(LocksSwept)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
