package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hubtc_chat_messages_sent_total",
		Help: "Total messages accepted by the send endpoint.",
	})
	MessagesEdited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hubtc_chat_messages_edited_total",
		Help: "Total successful message edits.",
	})
	MessagesDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hubtc_chat_messages_deleted_total",
		Help: "Total messages moved to the deleted state.",
	})

	ReactionsToggled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hubtc_chat_reactions_toggled_total",
		Help: "Reaction toggles by resulting action (added, removed).",
	}, []string{"action"})
	ReadReceipts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hubtc_chat_read_receipts_total",
		Help: "Total read receipts written for the first time.",
	})
	TypingSignals = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hubtc_chat_typing_signals_total",
		Help: "Typing signals by result (recorded, throttled).",
	}, []string{"result"})

	WSClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hubtc_chat_ws_clients",
		Help: "Current change-stream websocket clients on this instance.",
	})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hubtc_http_request_duration_seconds",
		Help:    "API request latency by method, route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			MessagesSent, MessagesEdited, MessagesDeleted,
			ReactionsToggled, ReadReceipts, TypingSignals,
			WSClients, HTTPRequestDuration,
		)
	})
}
