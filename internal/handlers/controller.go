// Package handlers implements the inbound coordinator event handlers and
// the locker controller they drive.
package handlers

import (
	"time"

	"go.uber.org/zap"

	"github.com/Nexlock/nexlock-module/internal/actuator"
	"github.com/Nexlock/nexlock-module/internal/protocol"
	"github.com/Nexlock/nexlock-module/internal/registry"
)

// Sender emits outbound events; implemented by the network session.
type Sender interface {
	Send(event string, payload interface{}) error
}

// Controller executes lock and unlock operations end to end: resolve the
// locker, drive the actuator, mutate the registry only after a confirmed
// actuation, and report the result upstream. Failed actuations report an
// error status instead of silently dropping the command.
type Controller struct {
	moduleID string
	reg      *registry.Registry
	act      actuator.LockActuator
	sender   Sender
	logger   *zap.Logger
}

// NewController builds the locker controller.
func NewController(moduleID string, reg *registry.Registry, act actuator.LockActuator, sender Sender, logger *zap.Logger) *Controller {
	return &Controller{
		moduleID: moduleID,
		reg:      reg,
		act:      act,
		sender:   sender,
		logger:   logger,
	}
}

// Lock locks the locker with the given id.
func (c *Controller) Lock(lockerID string) error {
	return c.actuate(lockerID, registry.StateLocked)
}

// Unlock unlocks the locker with the given id.
func (c *Controller) Unlock(lockerID string) error {
	return c.actuate(lockerID, registry.StateUnlocked)
}

// Toggle flips the locker based on its current registry state.
func (c *Controller) Toggle(lockerID string) error {
	entry, err := c.reg.ByID(lockerID)
	if err != nil {
		return err
	}
	if entry.State == registry.StateLocked {
		return c.Unlock(lockerID)
	}
	return c.Lock(lockerID)
}

func (c *Controller) actuate(lockerID string, target registry.State) error {
	entry, err := c.reg.ByID(lockerID)
	if err != nil {
		c.logger.Warn("command for unknown locker", zap.String("locker_id", lockerID))
		c.reportError(lockerID)
		return err
	}

	if target == registry.StateLocked {
		err = c.act.Lock(entry.SlotIndex)
	} else {
		err = c.act.Unlock(entry.SlotIndex)
	}
	if err != nil {
		c.logger.Error("actuation failed",
			zap.String("locker_id", lockerID),
			zap.Int("slot", entry.SlotIndex),
			zap.Error(err))
		c.reportError(lockerID)
		return err
	}

	now := time.Now()
	if err := c.reg.SetState(lockerID, target, now); err != nil {
		return err
	}
	c.logger.Info("locker actuated",
		zap.String("locker_id", lockerID),
		zap.String("state", string(target)))
	c.report(lockerID, string(target), now)
	return nil
}

func (c *Controller) report(lockerID, status string, now time.Time) {
	_ = c.sender.Send(protocol.EventStatusUpdate, protocol.StatusUpdate{
		ModuleID:  c.moduleID,
		LockerID:  lockerID,
		Status:    status,
		Timestamp: now.UnixMilli(),
	})
}

func (c *Controller) reportError(lockerID string) {
	c.report(lockerID, protocol.StatusError, time.Now())
}
