// Package session maintains the single logical connection to the remote
// coordinator: connection lifecycle, registration, keepalive, reconnect
// backoff, inbound dispatch, and outbound framing.
//
// All session state is owned by the control-loop goroutine. The dial and
// read goroutines never touch it; they deliver results over channels that
// Tick drains.
package session

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Nexlock/nexlock-module/internal/protocol"
)

// State is the session's connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnectedUnregistered
	StateConnectedRegistered
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnectedUnregistered:
		return "connected-unregistered"
	case StateConnectedRegistered:
		return "connected-registered"
	default:
		return "unknown"
	}
}

// ErrNotConnected is returned by Send while the transport is down.
var ErrNotConnected = errors.New("session: not connected")

// Config tunes the session.
type Config struct {
	Endpoint     string // ws://host:port/ws
	ModuleID     string
	MacAddress   string
	DeviceInfo   string
	Version      string
	Capabilities int
	Configured   bool

	PingInterval      time.Duration
	StatusInterval    time.Duration
	AvailableInterval time.Duration
	ReconnectBackoff  time.Duration
	WriteTimeout      time.Duration
	HandshakeTimeout  time.Duration
}

func (c *Config) applyDefaults() {
	if c.PingInterval <= 0 {
		c.PingInterval = 60 * time.Second
	}
	if c.StatusInterval <= 0 {
		c.StatusInterval = 2 * time.Second
	}
	if c.AvailableInterval <= 0 {
		c.AvailableInterval = 15 * time.Second
	}
	if c.ReconnectBackoff <= 0 {
		c.ReconnectBackoff = 5 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 4 * time.Second
	}
}

// StatusFunc supplies the per-locker status updates for the periodic
// broadcast while registered.
type StatusFunc func(now time.Time) []protocol.StatusUpdate

type dialResult struct {
	conn *websocket.Conn
	err  error
}

// Session is the upstream coordinator session.
type Session struct {
	cfg      Config
	logger   *zap.Logger
	router   *Router
	statusFn StatusFunc

	dialer *websocket.Dialer
	conn   *websocket.Conn
	state  State

	inbound     chan *protocol.Message
	disconnects chan struct{}
	dials       chan dialResult

	lastDial      time.Time
	lastPing      time.Time
	lastStatus    time.Time
	lastAvailable time.Time
}

// New builds a session. Handlers are attached through Handle before the
// first Tick.
func New(cfg Config, statusFn StatusFunc, logger *zap.Logger) *Session {
	cfg.applyDefaults()
	return &Session{
		cfg:      cfg,
		logger:   logger,
		router:   NewRouter(logger),
		statusFn: statusFn,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		state:       StateDisconnected,
		inbound:     make(chan *protocol.Message, 32),
		disconnects: make(chan struct{}, 1),
		dials:       make(chan dialResult, 1),
	}
}

// Handle registers an inbound event handler.
func (s *Session) Handle(event string, handler HandlerFunc) {
	s.router.Register(event, handler)
}

// State returns the current session state.
func (s *Session) State() State {
	return s.state
}

// Tick advances the session once per control-loop iteration. Inbound
// dispatch runs before any timer-driven send, so a reply to an inbound
// command is never delayed behind a scheduled keepalive.
func (s *Session) Tick(now time.Time) {
	s.drainEvents(now)
	s.maybeReconnect(now)
	s.serviceTimers(now)
}

// drainEvents processes every pending transport event: dial results,
// inbound messages, and disconnects.
func (s *Session) drainEvents(now time.Time) {
	for {
		select {
		case res := <-s.dials:
			s.onDialResult(res, now)
		case msg := <-s.inbound:
			s.router.Dispatch(msg.Event, msg.Payload)
		case <-s.disconnects:
			s.onDisconnect()
		default:
			return
		}
	}
}

// maybeReconnect starts a dial attempt while disconnected, spaced at least
// one backoff interval apart so a refusing coordinator cannot starve the
// rest of the loop.
func (s *Session) maybeReconnect(now time.Time) {
	if s.state != StateDisconnected {
		return
	}
	if !s.lastDial.IsZero() && now.Sub(s.lastDial) < s.cfg.ReconnectBackoff {
		return
	}

	s.lastDial = now
	s.state = StateConnecting
	s.logger.Info("connecting to coordinator", zap.String("endpoint", s.cfg.Endpoint))

	go func() {
		conn, _, err := s.dialer.Dial(s.cfg.Endpoint, nil)
		s.dials <- dialResult{conn: conn, err: err}
	}()
}

func (s *Session) onDialResult(res dialResult, now time.Time) {
	if res.err != nil {
		s.state = StateDisconnected
		s.logger.Warn("connection attempt failed", zap.Error(res.err))
		return
	}

	s.conn = res.conn
	s.state = StateConnectedUnregistered
	s.logger.Info("connected to coordinator")

	go s.readPump(res.conn)

	if s.cfg.Configured {
		if err := s.Send(protocol.EventRegister, protocol.Register{ModuleID: s.cfg.ModuleID}); err != nil {
			return
		}
		s.state = StateConnectedRegistered
		s.lastPing = now
		s.lastStatus = now
	} else {
		_ = s.Send(protocol.EventModuleAvailable, s.availablePayload())
		s.lastAvailable = now
	}
}

func (s *Session) onDisconnect() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	if s.state != StateDisconnected {
		s.logger.Warn("disconnected from coordinator")
	}
	s.state = StateDisconnected
}

// readPump runs per connection, parsing frames into the inbound channel.
// Malformed frames are logged and dropped.
func (s *Session) readPump(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case s.disconnects <- struct{}{}:
			default:
			}
			return
		}

		msg, err := protocol.ParseFrame(data)
		if err != nil {
			s.logger.Warn("dropping malformed frame", zap.Error(err))
			continue
		}
		s.inbound <- msg
	}
}

// serviceTimers emits the periodic sends owed at this tick.
func (s *Session) serviceTimers(now time.Time) {
	switch s.state {
	case StateConnectedRegistered:
		if now.Sub(s.lastPing) >= s.cfg.PingInterval {
			s.lastPing = now
			_ = s.Send(protocol.EventPing, protocol.Ping{ModuleID: s.cfg.ModuleID})
		}
		if s.statusFn != nil && now.Sub(s.lastStatus) >= s.cfg.StatusInterval {
			s.lastStatus = now
			for _, update := range s.statusFn(now) {
				_ = s.Send(protocol.EventStatusUpdate, update)
			}
		}
	case StateConnectedUnregistered:
		if !s.cfg.Configured && now.Sub(s.lastAvailable) >= s.cfg.AvailableInterval {
			s.lastAvailable = now
			_ = s.Send(protocol.EventModuleAvailable, s.availablePayload())
		}
	}
}

func (s *Session) availablePayload() protocol.ModuleAvailable {
	return protocol.ModuleAvailable{
		MacAddress:   s.cfg.MacAddress,
		DeviceInfo:   s.cfg.DeviceInfo,
		Version:      s.cfg.Version,
		Capabilities: s.cfg.Capabilities,
	}
}

// Send frames and writes one outbound event. A write failure tears the
// connection down; the next Tick schedules the reconnect.
func (s *Session) Send(event string, payload interface{}) error {
	if s.conn == nil {
		s.logger.Debug("dropping outbound event, not connected", zap.String("event", event))
		return ErrNotConnected
	}

	frame, err := protocol.BuildFrame(event, payload)
	if err != nil {
		s.logger.Error("failed to encode outbound event", zap.String("event", event), zap.Error(err))
		return err
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		s.logger.Warn("write failed, closing connection", zap.String("event", event), zap.Error(err))
		s.onDisconnect()
		return err
	}
	return nil
}

// ForwardCredential emits a validate-nfc round trip for the validator.
func (s *Session) ForwardCredential(code string) error {
	return s.Send(protocol.EventValidateNFC, protocol.ValidateNFC{
		ModuleID: s.cfg.ModuleID,
		NFCCode:  code,
	})
}

// Close tears down the transport; used on shutdown.
func (s *Session) Close() {
	s.onDisconnect()
}
