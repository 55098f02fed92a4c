// Package validator orchestrates the NFC scan-to-authorization round trip:
// scan, forward to the coordinator, await the decision, apply the outcome
// under a timeout.
package validator

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Nexlock/nexlock-module/internal/hal"
)

// ErrValidationPending is returned when a scan arrives while an earlier
// validation is still awaiting its decision.
var ErrValidationPending = errors.New("validator: validation already pending")

// ErrNotConfigured is returned when the module has no configuration yet.
var ErrNotConfigured = errors.New("validator: module not configured")

// Forwarder sends a scanned credential upstream for authorization.
type Forwarder interface {
	ForwardCredential(code string) error
}

// Toggler flips a locker between locked and unlocked.
type Toggler interface {
	Toggle(lockerID string) error
}

// pending is the single in-flight validation slot.
type pending struct {
	code        string
	submittedAt time.Time
}

// Validator is the credential state machine: idle, or awaiting exactly one
// remote decision. Driven entirely from the control loop.
type Validator struct {
	forwarder  Forwarder
	toggler    Toggler
	display    hal.Display
	logger     *zap.Logger
	timeout    time.Duration
	configured bool

	current *pending
}

// New builds a validator. A nil display degrades to no feedback.
func New(forwarder Forwarder, toggler Toggler, display hal.Display, timeout time.Duration, configured bool, logger *zap.Logger) *Validator {
	if display == nil {
		display = hal.NopDisplay{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Validator{
		forwarder:  forwarder,
		toggler:    toggler,
		display:    display,
		logger:     logger,
		timeout:    timeout,
		configured: configured,
	}
}

// Awaiting reports whether a decision is outstanding.
func (v *Validator) Awaiting() bool {
	return v.current != nil
}

// Submit accepts a scanned code, forwards it upstream, and opens the
// single pending slot. A second scan while one is outstanding is rejected.
func (v *Validator) Submit(code string, now time.Time) error {
	if !v.configured {
		return ErrNotConfigured
	}
	if v.current != nil {
		return ErrValidationPending
	}

	if err := v.forwarder.ForwardCredential(code); err != nil {
		return err
	}

	v.current = &pending{code: code, submittedAt: now}
	v.display.Show("Validating...", "Please wait")
	v.logger.Info("credential submitted for validation", zap.String("code", code))
	return nil
}

// CheckTimeout self-clears an overdue validation and reports the timeout
// outcome, which is distinct from a denial.
func (v *Validator) CheckTimeout(now time.Time) {
	if v.current == nil {
		return
	}
	if now.Sub(v.current.submittedAt) < v.timeout {
		return
	}

	v.logger.Warn("validation timed out", zap.String("code", v.current.code))
	v.current = nil
	v.display.Show("Timeout", "Try again")
}

// ApplyDecision processes the coordinator's answer. Decisions arriving
// while idle (including after the timeout already fired) are ignored.
func (v *Validator) ApplyDecision(valid bool, lockerID, message string) {
	if v.current == nil {
		v.logger.Debug("discarding validation result with no pending scan")
		return
	}
	v.current = nil

	if !valid {
		v.logger.Info("credential denied", zap.String("message", message))
		v.display.Show("Access denied", message)
		return
	}

	if err := v.toggler.Toggle(lockerID); err != nil {
		v.logger.Error("failed to toggle locker after valid credential",
			zap.String("locker_id", lockerID), zap.Error(err))
		v.display.Show("Locker error", lockerID)
		return
	}
	v.display.Show("Access granted", "Locker "+lockerID)
}
