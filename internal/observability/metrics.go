package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebSocketConnectionsTotal is the gauge of open sockets by hub.
	WebSocketConnectionsTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "twitterclone_websocket_connections",
		Help: "Number of open WebSocket connections by hub",
	}, []string{"hub"})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twitterclone_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twitterclone_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// FeedSubscriptions is the number of live feed subscriptions by query kind.
	FeedSubscriptions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "twitterclone_feed_subscriptions",
		Help: "Number of live feed subscriptions",
	}, []string{"kind"})

	// FeedDeliveries counts full feed recomputations delivered to subscribers.
	FeedDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twitterclone_feed_deliveries_total",
		Help: "Total feed results delivered to subscribers",
	}, []string{"kind", "outcome"})

	// ChangesPublished counts published changes by kind and sink.
	ChangesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twitterclone_changes_published_total",
		Help: "Total changes published by kind and sink",
	}, []string{"kind", "sink"})

	// MediaUploads counts media uploads by preset and outcome.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twitterclone_media_uploads_total",
		Help: "Total media uploads by preset and outcome",
	}, []string{"preset", "outcome"})
)
