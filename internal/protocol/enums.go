package protocol

// Outbound event names (module -> coordinator).
const (
	EventModuleAvailable     = "module-available"
	EventRegister            = "register"
	EventValidateNFC         = "validate-nfc"
	EventStatusUpdate        = "status-update"
	EventPing                = "ping"
	EventConfigurationError  = "configuration-error"
	EventConfigurationOK     = "configuration-success"
)

// Inbound event names (coordinator -> module).
const (
	EventModuleConfigured    = "module-configured"
	EventLock                = "lock"
	EventUnlock              = "unlock"
	EventNFCValidationResult = "nfc-validation-result"
	EventRegistered          = "registered"
	EventConnected           = "connected"
	EventPong                = "pong"
)

// Locker status values carried in status updates.
const (
	StatusLocked   = "locked"
	StatusUnlocked = "unlocked"
	StatusError    = "error"
)
