package protocol

// ModuleAvailable is broadcast while the module is unconfigured so an
// operator console can discover it.
type ModuleAvailable struct {
	MacAddress   string `json:"macAddress"`
	DeviceInfo   string `json:"deviceInfo"`
	Version      string `json:"version"`
	Capabilities int    `json:"capabilities"`
}

// Register announces a configured module after the transport opens.
type Register struct {
	ModuleID string `json:"moduleId"`
}

// ValidateNFC forwards a scanned credential for remote authorization.
type ValidateNFC struct {
	ModuleID string `json:"moduleId"`
	NFCCode  string `json:"nfcCode"`
}

// StatusUpdate reports one locker's state. Occupied is present only on
// hardware variants with an occupancy sensor.
type StatusUpdate struct {
	ModuleID  string `json:"moduleId"`
	LockerID  string `json:"lockerId"`
	Status    string `json:"status"`
	Occupied  *bool  `json:"occupied,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Ping is a liveness signal while registered.
type Ping struct {
	ModuleID string `json:"moduleId"`
}

// ConfigurationError rejects a configuration addressed to another module.
type ConfigurationError struct {
	Error       string `json:"error"`
	ExpectedMac string `json:"expectedMac"`
	ActualMac   string `json:"actualMac"`
}

// ConfigurationSuccess acknowledges an applied configuration before the
// module restarts.
type ConfigurationSuccess struct {
	ModuleID   string `json:"moduleId"`
	MacAddress string `json:"macAddress"`
}

// ModuleConfigured assigns a module id and locker list. MacAddress, when
// present, must match this module's identity.
type ModuleConfigured struct {
	ModuleID   string   `json:"moduleId"`
	LockerIDs  []string `json:"lockerIds"`
	MacAddress string   `json:"macAddress,omitempty"`
}

// LockCommand targets one locker; used for both lock and unlock events.
type LockCommand struct {
	LockerID string `json:"lockerId"`
}

// NFCValidationResult is the coordinator's authorization decision.
type NFCValidationResult struct {
	Valid    bool   `json:"valid"`
	LockerID string `json:"lockerId,omitempty"`
	Message  string `json:"message,omitempty"`
}
