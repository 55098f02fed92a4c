package handlers

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/Nexlock/nexlock-module/internal/protocol"
	"github.com/Nexlock/nexlock-module/internal/session"
)

// NewLockHandler processes the lock command. Failures (unknown locker,
// actuation timeout) are reported upstream by the controller and are not
// fatal to the loop.
func NewLockHandler(ctrl *Controller, logger *zap.Logger) session.HandlerFunc {
	return func(payload json.RawMessage) error {
		req, err := protocol.Decode[protocol.LockCommand](payload)
		if err != nil {
			return err
		}
		if err := ctrl.Lock(req.LockerID); err != nil {
			logger.Debug("lock command failed", zap.String("locker_id", req.LockerID), zap.Error(err))
		}
		return nil
	}
}

// NewUnlockHandler processes the unlock command.
func NewUnlockHandler(ctrl *Controller, logger *zap.Logger) session.HandlerFunc {
	return func(payload json.RawMessage) error {
		req, err := protocol.Decode[protocol.LockCommand](payload)
		if err != nil {
			return err
		}
		if err := ctrl.Unlock(req.LockerID); err != nil {
			logger.Debug("unlock command failed", zap.String("locker_id", req.LockerID), zap.Error(err))
		}
		return nil
	}
}
