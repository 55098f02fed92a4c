// Package actuator drives the lock hardware. Two variants exist: a direct
// servo path and a relayed path through a subordinate controller reached
// over a byte-oriented serial link.
package actuator

import (
	"fmt"

	"github.com/Nexlock/nexlock-module/internal/hal"
)

// LockActuator abstracts the actuation primitive. Implementations return an
// error when the actuation could not be confirmed; callers must not update
// locker state on error.
type LockActuator interface {
	Lock(slot int) error
	Unlock(slot int) error
}

// ServoActuator is the direct-actuation variant.
type ServoActuator struct {
	servo hal.ServoDriver
}

// NewServoActuator builds the direct variant on top of a servo driver.
func NewServoActuator(servo hal.ServoDriver) *ServoActuator {
	return &ServoActuator{servo: servo}
}

// Lock moves the slot's servo to the locked position.
func (a *ServoActuator) Lock(slot int) error {
	if err := a.servo.SetPosition(slot, hal.ServoLockedPosition); err != nil {
		return fmt.Errorf("actuator: lock slot %d: %w", slot, err)
	}
	return nil
}

// Unlock moves the slot's servo to the unlocked position.
func (a *ServoActuator) Unlock(slot int) error {
	if err := a.servo.SetPosition(slot, hal.ServoUnlockedPosition); err != nil {
		return fmt.Errorf("actuator: unlock slot %d: %w", slot, err)
	}
	return nil
}
