// Package hal declares the capability interfaces the control core consumes.
// Concrete drivers (LCD, IR sensor, NFC reader, servo, GPIO button) live
// outside the core; variants without a capability plug in a no-op fallback.
package hal

// ConfigStore is the external persisted key-value store (NVS-style).
type ConfigStore interface {
	GetString(key, fallback string) string
	GetInt(key string, fallback int) int
	PutString(key, value string) error
	PutInt(key string, value int) error
	// Clear wipes every stored key; used by the factory reset path.
	Clear() error
}

// Display renders two lines of user feedback.
type Display interface {
	Show(line1, line2 string)
}

// OccupancySensor reads whether the given slot currently holds an item.
type OccupancySensor interface {
	Read(slot int) (bool, error)
}

// CredentialScanner polls the NFC reader. ok is false when no tag is
// present; the call must never block.
type CredentialScanner interface {
	TryRead() (code string, ok bool)
}

// ResetButton reports the factory-reset button's current level.
type ResetButton interface {
	Pressed() bool
}

// ServoDriver moves a lock servo; used by the direct-actuation variant.
type ServoDriver interface {
	SetPosition(slot, position int) error
}

// Servo positions for the direct-actuation variant.
const (
	ServoLockedPosition   = 0
	ServoUnlockedPosition = 90
)
