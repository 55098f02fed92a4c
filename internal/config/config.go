package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "github.com/Nexlock/nexlock-module/libs/config"
)

// Firmware identity constants.
const (
	DeviceName      = "NexLock"
	FirmwareVersion = "1.2.0"
)

// Hardware variants.
const (
	VariantSerial = "serial" // subordinate controller over a serial link
	VariantServo  = "servo"  // directly attached servos
)

// ServerConfig locates the coordinator.
type ServerConfig struct {
	Host string `yaml:"host" env:"NEXLOCK_SERVER_HOST"`
	Port int    `yaml:"port" env:"NEXLOCK_SERVER_PORT"`
}

// IdentityConfig overrides the hardware identity token. Left empty, the
// module generates one on first boot and persists it.
type IdentityConfig struct {
	MacAddress string `yaml:"macAddress" env:"NEXLOCK_MAC_ADDRESS"`
}

// HardwareConfig selects the actuation variant and its parameters.
type HardwareConfig struct {
	Variant         string `yaml:"variant" env:"NEXLOCK_HW_VARIANT"`
	SerialPath      string `yaml:"serialPath" env:"NEXLOCK_SERIAL_PATH"`
	SerialBaud      int    `yaml:"serialBaud" env:"NEXLOCK_SERIAL_BAUD"`
	OccupancySensor bool   `yaml:"occupancySensor" env:"NEXLOCK_OCCUPANCY_SENSOR"`
}

// StoreConfig locates the persisted key-value store.
type StoreConfig struct {
	Path string `yaml:"path" env:"NEXLOCK_STORE_PATH"`
}

// TimerConfig carries every interval of the control loop. Defaults mirror
// the firmware constants of the original hardware.
type TimerConfig struct {
	PingInterval      time.Duration `yaml:"pingInterval" env:"NEXLOCK_PING_INTERVAL"`
	StatusInterval    time.Duration `yaml:"statusInterval" env:"NEXLOCK_STATUS_INTERVAL"`
	AvailableInterval time.Duration `yaml:"availableInterval" env:"NEXLOCK_AVAILABLE_INTERVAL"`
	ReconnectBackoff  time.Duration `yaml:"reconnectBackoff" env:"NEXLOCK_RECONNECT_BACKOFF"`
	NFCTimeout        time.Duration `yaml:"nfcTimeout" env:"NEXLOCK_NFC_TIMEOUT"`
	AckTimeout        time.Duration `yaml:"ackTimeout" env:"NEXLOCK_ACK_TIMEOUT"`
	ButtonHold        time.Duration `yaml:"buttonHold" env:"NEXLOCK_BUTTON_HOLD"`
	LinkOfflineAfter  time.Duration `yaml:"linkOfflineAfter" env:"NEXLOCK_LINK_OFFLINE_AFTER"`
}

// Config defines the module configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Identity IdentityConfig `yaml:"identity"`
	Hardware HardwareConfig `yaml:"hardware"`
	Store    StoreConfig    `yaml:"store"`
	Timers   TimerConfig    `yaml:"timers"`
}

// Load uses the shared config loader and validates required fields.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: 3000,
		},
		Hardware: HardwareConfig{
			Variant:    VariantSerial,
			SerialPath: "/dev/ttyS2",
			SerialBaud: 115200,
		},
		Store: StoreConfig{
			Path: "nexlock.yaml",
		},
		Timers: TimerConfig{
			PingInterval:      60 * time.Second,
			StatusInterval:    2 * time.Second,
			AvailableInterval: 15 * time.Second,
			ReconnectBackoff:  5 * time.Second,
			NFCTimeout:        5 * time.Second,
			AckTimeout:        time.Second,
			ButtonHold:        5 * time.Second,
			LinkOfflineAfter:  10 * time.Second,
		},
	}

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Server.Host) == "" {
		return nil, errors.New("config: server host is required")
	}
	switch cfg.Hardware.Variant {
	case VariantSerial, VariantServo:
	default:
		return nil, fmt.Errorf("config: unknown hardware variant %q", cfg.Hardware.Variant)
	}

	return cfg, nil
}

// Endpoint returns the coordinator websocket URL.
func (c *Config) Endpoint() string {
	return fmt.Sprintf("ws://%s:%d/ws", c.Server.Host, c.Server.Port)
}
