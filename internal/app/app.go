// Package app wires the module's dependency graph and runs the cooperative
// control loop.
package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Nexlock/nexlock-module/internal/actuator"
	"github.com/Nexlock/nexlock-module/internal/config"
	"github.com/Nexlock/nexlock-module/internal/handlers"
	"github.com/Nexlock/nexlock-module/internal/hal"
	"github.com/Nexlock/nexlock-module/internal/protocol"
	"github.com/Nexlock/nexlock-module/internal/registry"
	"github.com/Nexlock/nexlock-module/internal/serialport"
	"github.com/Nexlock/nexlock-module/internal/session"
	"github.com/Nexlock/nexlock-module/internal/validator"
)

// ErrRestartRequested signals an intentional restart: either a new
// configuration was accepted or a factory reset fired. The supervisor is
// expected to start the process again so the registry is rebuilt.
var ErrRestartRequested = errors.New("app: restart requested")

// tickInterval is the control-loop cadence.
const tickInterval = 25 * time.Millisecond

// Capabilities carries the hardware collaborators the core consumes.
// Missing capabilities degrade to no-op fallbacks.
type Capabilities struct {
	Display   hal.Display
	Scanner   hal.CredentialScanner
	Button    hal.ResetButton
	Occupancy hal.OccupancySensor
	Servo     hal.ServoDriver
	// Port overrides the serial port for the subordinate-controller
	// variant; when nil the configured path is opened.
	Port serialport.Porter
}

func (c *Capabilities) applyFallbacks() {
	if c.Display == nil {
		c.Display = hal.NopDisplay{}
	}
	if c.Scanner == nil {
		c.Scanner = hal.NopScanner{}
	}
	if c.Button == nil {
		c.Button = hal.NopButton{}
	}
}

// App ties the locker module together.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	caps   Capabilities

	store      hal.ConfigStore
	identity   string
	moduleID   string
	configured bool

	reg  *registry.Registry
	link *actuator.Link
	sess *session.Session
	val  *validator.Validator

	lastStatusReq  time.Time
	restartPending bool

	// reset button debounce
	buttonDown  bool
	buttonFired bool
	pressStart  time.Time
}

// New builds the application graph.
func New(cfg *config.Config, caps Capabilities, logger *zap.Logger) (*App, error) {
	caps.applyFallbacks()

	store, err := hal.NewFileStore(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	identity, err := ensureIdentity(store, cfg.Identity.MacAddress)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		caps:     caps,
		store:    store,
		identity: identity,
	}

	moduleID, lockerIDs, configured := handlers.LoadConfiguration(store)
	a.moduleID = moduleID
	a.configured = configured

	var act actuator.LockActuator
	if configured {
		reg, err := registry.New(lockerIDs)
		if err != nil {
			return nil, err
		}
		a.reg = reg

		act, err = a.buildActuator()
		if err != nil {
			return nil, err
		}
	}

	var statusFn session.StatusFunc
	if configured {
		statusFn = a.lockerStatuses
	}

	a.sess = session.New(session.Config{
		Endpoint:          cfg.Endpoint(),
		ModuleID:          moduleID,
		MacAddress:        identity,
		DeviceInfo:        config.DeviceName + " Module",
		Version:           config.FirmwareVersion,
		Capabilities:      registry.MaxLockers,
		Configured:        configured,
		PingInterval:      cfg.Timers.PingInterval,
		StatusInterval:    cfg.Timers.StatusInterval,
		AvailableInterval: cfg.Timers.AvailableInterval,
		ReconnectBackoff:  cfg.Timers.ReconnectBackoff,
	}, statusFn, logger)

	var ctrl *handlers.Controller
	if configured {
		ctrl = handlers.NewController(moduleID, a.reg, act, a.sess, logger)
	}
	a.val = validator.New(a.sess, ctrl, caps.Display, cfg.Timers.NFCTimeout, configured, logger)

	a.sess.Handle(protocol.EventModuleConfigured,
		handlers.NewConfigureHandler(store, identity, a.sess, caps.Display, a.requestRestart, logger))
	a.sess.Handle(protocol.EventRegistered, handlers.NewRegisteredHandler(caps.Display, logger))
	a.sess.Handle(protocol.EventConnected, handlers.NewInfoHandler(protocol.EventConnected, logger))
	a.sess.Handle(protocol.EventPong, handlers.NewInfoHandler(protocol.EventPong, logger))
	if configured {
		a.sess.Handle(protocol.EventLock, handlers.NewLockHandler(ctrl, logger))
		a.sess.Handle(protocol.EventUnlock, handlers.NewUnlockHandler(ctrl, logger))
		a.sess.Handle(protocol.EventNFCValidationResult, handlers.NewValidationResultHandler(a.val))
	}

	return a, nil
}

// buildActuator selects the hardware variant.
func (a *App) buildActuator() (actuator.LockActuator, error) {
	switch a.cfg.Hardware.Variant {
	case config.VariantServo:
		if a.caps.Servo == nil {
			return nil, errors.New("app: servo variant selected but no servo driver provided")
		}
		return actuator.NewServoActuator(a.caps.Servo), nil
	default:
		port := a.caps.Port
		if port == nil {
			opened, err := serialport.Open(a.cfg.Hardware.SerialPath, serialport.Options{
				BaudRate: a.cfg.Hardware.SerialBaud,
			})
			if err != nil {
				return nil, err
			}
			port = opened
		}
		a.link = actuator.NewLink(port, a.reg, actuator.LinkConfig{
			AckTimeout:   a.cfg.Timers.AckTimeout,
			OfflineAfter: a.cfg.Timers.LinkOfflineAfter,
		}, a.logger)
		return a.link, nil
	}
}

// lockerStatuses builds the periodic status broadcast, refreshing occupancy
// readings first on variants that have the sensor.
func (a *App) lockerStatuses(now time.Time) []protocol.StatusUpdate {
	if a.cfg.Hardware.OccupancySensor && a.caps.Occupancy != nil {
		for _, e := range a.reg.Snapshot() {
			occupied, err := a.caps.Occupancy.Read(e.SlotIndex)
			if err != nil {
				a.logger.Debug("occupancy read failed", zap.Int("slot", e.SlotIndex), zap.Error(err))
				continue
			}
			_ = a.reg.SetOccupied(e.SlotIndex, occupied, now)
		}
	}

	entries := a.reg.Snapshot()
	updates := make([]protocol.StatusUpdate, 0, len(entries))
	for _, e := range entries {
		updates = append(updates, protocol.StatusUpdate{
			ModuleID:  a.moduleID,
			LockerID:  e.ID,
			Status:    string(e.State),
			Occupied:  e.Occupied,
			Timestamp: now.UnixMilli(),
		})
	}
	return updates
}

func (a *App) requestRestart() {
	a.restartPending = true
}

// Run drives the control loop until the context is cancelled or a restart
// is requested.
func (a *App) Run(ctx context.Context) error {
	if a.configured {
		a.logger.Info("module starting",
			zap.String("module_id", a.moduleID),
			zap.String("mac", a.identity),
			zap.Int("lockers", a.reg.Len()))
	} else {
		a.logger.Info("module unconfigured, broadcasting availability",
			zap.String("mac", a.identity))
		a.caps.Display.Show("Connecting...", "Awaiting config")
	}

	if a.link != nil {
		if err := a.link.SetOnline(true); err != nil {
			a.logger.Warn("failed to announce online status", zap.Error(err))
		}
		defer func() { _ = a.link.SetOnline(false) }()
	}
	defer a.sess.Close()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			a.tick(now)
			if a.restartPending {
				a.logger.Info("restarting to apply new state")
				return ErrRestartRequested
			}
		}
	}
}

// tick runs one control-loop iteration: session (inbound dispatch,
// reconnect, timers), actuator link poll, reset button, credential scanner.
func (a *App) tick(now time.Time) {
	a.sess.Tick(now)

	if a.link != nil {
		a.link.Poll(now)
		if now.Sub(a.lastStatusReq) >= a.cfg.Timers.StatusInterval {
			a.lastStatusReq = now
			if err := a.link.RequestStatus(); err != nil {
				a.logger.Debug("status request failed", zap.Error(err))
			}
		}
	}

	a.checkResetButton(now)
	a.pollScanner(now)
	a.val.CheckTimeout(now)
}

// checkResetButton fires the factory reset after an uninterrupted hold,
// exactly once per hold.
func (a *App) checkResetButton(now time.Time) {
	if !a.caps.Button.Pressed() {
		a.buttonDown = false
		a.buttonFired = false
		return
	}

	if !a.buttonDown {
		a.buttonDown = true
		a.pressStart = now
		return
	}
	if a.buttonFired || now.Sub(a.pressStart) < a.cfg.Timers.ButtonHold {
		return
	}

	a.buttonFired = true
	a.factoryReset()
}

func (a *App) factoryReset() {
	a.logger.Warn("factory reset triggered")
	a.caps.Display.Show("Factory reset", "Restarting...")
	if err := a.store.Clear(); err != nil {
		a.logger.Error("failed to wipe configuration", zap.Error(err))
		return
	}
	a.restartPending = true
}

// pollScanner routes a successful credential read into the validator.
func (a *App) pollScanner(now time.Time) {
	code, ok := a.caps.Scanner.TryRead()
	if !ok {
		return
	}
	if err := a.val.Submit(code, now); err != nil {
		a.logger.Debug("scan rejected", zap.String("code", code), zap.Error(err))
	}
}
