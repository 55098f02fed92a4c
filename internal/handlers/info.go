package handlers

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/Nexlock/nexlock-module/internal/hal"
	"github.com/Nexlock/nexlock-module/internal/session"
)

// NewRegisteredHandler acknowledges the coordinator's registration reply.
func NewRegisteredHandler(display hal.Display, logger *zap.Logger) session.HandlerFunc {
	return func(payload json.RawMessage) error {
		logger.Info("module registered with coordinator")
		display.Show("Connected", "System Ready")
		return nil
	}
}

// NewInfoHandler logs an informational acknowledgment (connected, pong).
func NewInfoHandler(event string, logger *zap.Logger) session.HandlerFunc {
	return func(payload json.RawMessage) error {
		logger.Debug("coordinator acknowledgment", zap.String("event", event))
		return nil
	}
}
