// Package observability provides metrics, tracing and WebSocket lifecycle logging.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger is used by components that log outside a request, such as hubs.
var Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetLogger replaces the logger used by WSLogger.
func SetLogger(l *slog.Logger) {
	if l != nil {
		Logger = l
	}
}

// WSLogger provides structured logging for WebSocket operations.
type WSLogger struct {
	hubName string
}

// NewWSLogger creates a new WSLogger for the given hub.
func NewWSLogger(hubName string) *WSLogger {
	return &WSLogger{hubName: hubName}
}

// LogConnect logs a WebSocket connection event.
func (l *WSLogger) LogConnect(ctx context.Context, userID, channel string) {
	WebSocketConnectionsTotal.WithLabelValues(l.hubName).Inc()
	Logger.InfoContext(ctx, "websocket connected",
		slog.String("hub", l.hubName),
		slog.String("user_id", userID),
		slog.String("channel", channel),
	)
}

// LogDisconnect logs a WebSocket disconnection event.
func (l *WSLogger) LogDisconnect(ctx context.Context, userID, channel, reason string) {
	WebSocketConnectionsTotal.WithLabelValues(l.hubName).Dec()
	Logger.InfoContext(ctx, "websocket disconnected",
		slog.String("hub", l.hubName),
		slog.String("user_id", userID),
		slog.String("channel", channel),
		slog.String("reason", reason),
	)
}

// LogError logs a WebSocket error event.
func (l *WSLogger) LogError(ctx context.Context, userID string, err error, eventType string) {
	WebSocketEventsTotal.WithLabelValues(eventType + "_error").Inc()
	Logger.ErrorContext(ctx, "websocket error",
		slog.String("hub", l.hubName),
		slog.String("user_id", userID),
		slog.String("event_type", eventType),
		slog.String("error", err.Error()),
	)
}

// LogMessage records an outbound or inbound message.
func (l *WSLogger) LogMessage(ctx context.Context, userID, messageType string) {
	WebSocketEventsTotal.WithLabelValues(messageType).Inc()
	Logger.DebugContext(ctx, "websocket message",
		slog.String("hub", l.hubName),
		slog.String("user_id", userID),
		slog.String("message_type", messageType),
	)
}
