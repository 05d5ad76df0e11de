package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	claimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "groupbuy_claims_total",
		Help: "Claim attempts by outcome.",
	}, []string{"outcome"})

	roundsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupbuy_rounds_completed_total",
		Help: "Rounds that reached full coverage.",
	})

	roundsReopenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupbuy_rounds_reopened_total",
		Help: "Completed rounds reopened by a retraction.",
	})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "groupbuy_notifications_total",
		Help: "Completion notices dispatched, by result.",
	}, []string{"result"})
)

const (
	outcomeCommitted = "committed"
	outcomeConflict  = "conflict"
	outcomeRejected  = "rejected"
)
