// Package metrics holds the engine's prometheus instruments, served on
// /metrics by the HTTP layer.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_messages_sent_total",
		Help: "Messages accepted by the state machine.",
	})

	BlockedSends = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_blocked_sends_total",
		Help: "Sends rejected by the block gate.",
	})

	StatusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chatsync_status_transitions_total",
		Help: "Message status transitions, by resulting status.",
	}, []string{"status"})

	EventsDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_events_delivered_total",
		Help: "Live events written to at least one connection.",
	})

	EventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_events_dropped_total",
		Help: "Live events dropped: queue overflow or no online target.",
	})

	OnlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chatsync_online_users",
		Help: "Users with at least one live connection.",
	})
)

func init() {
	prometheus.MustRegister(
		MessagesSent,
		BlockedSends,
		StatusTransitions,
		EventsDelivered,
		EventsDropped,
		OnlineUsers,
	)
}
