package actuator

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Nexlock/nexlock-module/internal/registry"
	"github.com/Nexlock/nexlock-module/internal/serialport"
)

// ErrAckTimeout is returned when the subordinate controller does not
// acknowledge a command within the configured wait.
var ErrAckTimeout = errors.New("actuator: acknowledgment timeout")

// ErrUnexpectedResponse is returned when the controller replies with
// something other than the expected acknowledgment.
var ErrUnexpectedResponse = errors.New("actuator: unexpected controller response")

// LinkConfig tunes the subordinate-controller link.
type LinkConfig struct {
	// AckTimeout bounds the blocking wait for a command acknowledgment.
	AckTimeout time.Duration
	// OfflineAfter marks the link offline after this much inbound silence.
	OfflineAfter time.Duration
}

// Link drives lockers through the subordinate controller over a serial
// port. Commands block for at most AckTimeout; everything else is
// non-blocking polling from the control loop.
type Link struct {
	port   serialport.Porter
	reg    *registry.Registry
	logger *zap.Logger
	cfg    LinkConfig

	rxBuf     []byte
	lastFrame time.Time
	online    bool
}

// NewLink builds the link. The registry receives unsolicited status pushes.
func NewLink(port serialport.Porter, reg *registry.Registry, cfg LinkConfig, logger *zap.Logger) *Link {
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = time.Second
	}
	if cfg.OfflineAfter <= 0 {
		cfg.OfflineAfter = 10 * time.Second
	}
	return &Link{
		port:   port,
		reg:    reg,
		logger: logger,
		cfg:    cfg,
	}
}

// Lock locks the slot and waits for the controller's acknowledgment.
func (l *Link) Lock(slot int) error {
	return l.command(CmdLock, slot)
}

// Unlock unlocks the slot and waits for the controller's acknowledgment.
func (l *Link) Unlock(slot int) error {
	return l.command(CmdUnlock, slot)
}

func (l *Link) command(cmd byte, slot int) error {
	if err := l.sendCommand(cmd, slot); err != nil {
		return err
	}
	return l.awaitAck(RespAck, l.cfg.AckTimeout)
}

// sendCommand writes the 2-byte request and flushes it to the port.
func (l *Link) sendCommand(cmd byte, slot int) error {
	req, err := encodeRequest(cmd, slot)
	if err != nil {
		return err
	}
	if _, err := l.port.Write(req); err != nil {
		return fmt.Errorf("actuator: write command %q slot %d: %w", cmd, slot, err)
	}
	l.logger.Debug("command sent to controller",
		zap.String("command", string(cmd)),
		zap.Int("slot", slot))
	return nil
}

// awaitAck polls for a complete reply until timeout. The first complete
// frame decides the outcome: a matching response byte is success, anything
// else is failure. State pushes inside the frame are still applied so a
// concurrent status reply cannot be lost.
func (l *Link) awaitAck(expected byte, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		frame, ok := l.nextFrame()
		if !ok {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		l.noteFrame(time.Now())
		l.applyFrame(frame, time.Now())

		if frame.Response == expected {
			return nil
		}
		return fmt.Errorf("%w: got %q", ErrUnexpectedResponse, frame.Response)
	}

	return ErrAckTimeout
}

// Poll consumes unsolicited frames and refreshes the liveness flag. Called
// once per control-loop tick.
func (l *Link) Poll(now time.Time) {
	for {
		frame, ok := l.nextFrame()
		if !ok {
			break
		}
		l.noteFrame(now)
		l.applyFrame(frame, now)
	}

	if l.online && !l.lastFrame.IsZero() && now.Sub(l.lastFrame) > l.cfg.OfflineAfter {
		l.online = false
		l.logger.Warn("controller connection lost",
			zap.Duration("silence", now.Sub(l.lastFrame)))
	}
}

// nextFrame reads whatever bytes are pending and returns the next complete
// frame, if any. Partial frames stay buffered across calls.
func (l *Link) nextFrame() (Frame, bool) {
	chunk := make([]byte, 64)
	n, err := l.port.Read(chunk)
	if err != nil {
		l.logger.Debug("serial read failed", zap.Error(err))
	}
	if n > 0 {
		l.rxBuf = append(l.rxBuf, chunk[:n]...)
	}

	for len(l.rxBuf) >= frameSize {
		raw := l.rxBuf[:frameSize]
		l.rxBuf = l.rxBuf[frameSize:]

		frame, err := decodeFrame(raw)
		if err != nil {
			l.logger.Warn("dropping malformed controller frame", zap.Error(err))
			continue
		}
		return frame, true
	}

	return Frame{}, false
}

func (l *Link) noteFrame(now time.Time) {
	l.lastFrame = now
	if !l.online {
		l.online = true
		l.logger.Info("controller online")
	}
}

// applyFrame folds a controller reply into the registry. An error response
// is logged and leaves the locker's last-known state untouched.
func (l *Link) applyFrame(frame Frame, now time.Time) {
	switch frame.Response {
	case RespLocked:
		if err := l.reg.SetSlotState(frame.Slot, registry.StateLocked, now); err != nil {
			l.logger.Warn("status push for unknown slot", zap.Int("slot", frame.Slot))
		}
	case RespUnlocked:
		if err := l.reg.SetSlotState(frame.Slot, registry.StateUnlocked, now); err != nil {
			l.logger.Warn("status push for unknown slot", zap.Int("slot", frame.Slot))
		}
	case RespAck:
		// Acknowledgment only; state follows in a later status frame.
	case RespError:
		l.logger.Warn("controller reported error", zap.Int("slot", frame.Slot))
	default:
		l.logger.Warn("unrecognized controller response",
			zap.String("response", string(frame.Response)),
			zap.Int("slot", frame.Slot))
	}
}

// RequestStatus asks the controller to push status for every slot.
func (l *Link) RequestStatus() error {
	return l.sendCommand(CmdStatus, 0)
}

// SetOnline announces the module's own availability to the controller.
func (l *Link) SetOnline(online bool) error {
	cmd := CmdOffline
	if online {
		cmd = CmdOnline
	}
	return l.sendCommand(cmd, 0)
}

// Online reports whether the controller has been heard from recently.
func (l *Link) Online() bool {
	return l.online
}
