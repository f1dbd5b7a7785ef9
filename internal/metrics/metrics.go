package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	DecisionAllowed = "allowed"
	DecisionDenied  = "denied"
)

var (
	domainMetricsOnce sync.Once

	friendshipTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friendship_transitions_total",
			Help: "Total number of friendship state transition attempts",
		},
		[]string{"action", "status"},
	)

	permissionDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permission_decisions_total",
			Help: "Total number of advisory permission decisions",
		},
		[]string{"check", "result"},
	)

	permissionCacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permission_user_cache_lookups_total",
			Help: "Permission resolver user cache lookups",
		},
		[]string{"result"},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notification create attempts",
		},
		[]string{"type", "status"},
	)

	membershipActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_actions_total",
			Help: "Total number of membership journey actions",
		},
		[]string{"action", "status"},
	)
)

func RegisterDomainMetrics() {
	domainMetricsOnce.Do(func() {
		prometheus.MustRegister(
			friendshipTransitionsTotal,
			permissionDecisionsTotal,
			permissionCacheLookupsTotal,
			notificationsTotal,
			membershipActionsTotal,
		)
	})
}

func IncFriendshipTransition(action, status string) {
	RegisterDomainMetrics()
	friendshipTransitionsTotal.WithLabelValues(action, status).Inc()
}

func IncPermissionDecision(check string, allowed bool) {
	RegisterDomainMetrics()
	result := DecisionDenied
	if allowed {
		result = DecisionAllowed
	}
	permissionDecisionsTotal.WithLabelValues(check, result).Inc()
}

func IncPermissionCache(hit bool) {
	RegisterDomainMetrics()
	result := "miss"
	if hit {
		result = "hit"
	}
	permissionCacheLookupsTotal.WithLabelValues(result).Inc()
}

func IncNotification(kind, status string) {
	RegisterDomainMetrics()
	notificationsTotal.WithLabelValues(kind, status).Inc()
}

func IncMembershipAction(action, status string) {
	RegisterDomainMetrics()
	membershipActionsTotal.WithLabelValues(action, status).Inc()
}
