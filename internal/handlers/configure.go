package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Nexlock/nexlock-module/internal/hal"
	"github.com/Nexlock/nexlock-module/internal/protocol"
	"github.com/Nexlock/nexlock-module/internal/registry"
	"github.com/Nexlock/nexlock-module/internal/session"
)

// Persisted configuration keys. The configured flag is derived: a module is
// configured once a module id and at least one locker id are stored.
const (
	KeyModuleID   = "moduleId"
	KeyNumLockers = "numLockers"
	keyLockerFmt  = "locker%d"
)

// LockerKey returns the store key for the locker at the given position.
func LockerKey(i int) string {
	return fmt.Sprintf(keyLockerFmt, i)
}

// LoadConfiguration reads the persisted module id and locker id list.
// configured is false until both are present.
func LoadConfiguration(store hal.ConfigStore) (moduleID string, lockerIDs []string, configured bool) {
	moduleID = store.GetString(KeyModuleID, "")
	count := store.GetInt(KeyNumLockers, 0)
	if moduleID == "" || count <= 0 || count > registry.MaxLockers {
		return "", nil, false
	}
	for i := 0; i < count; i++ {
		id := store.GetString(LockerKey(i), "")
		if id == "" {
			return "", nil, false
		}
		lockerIDs = append(lockerIDs, id)
	}
	return moduleID, lockerIDs, true
}

// NewConfigureHandler processes module-configured. A configuration carrying
// an identity token that does not match this module is rejected outright
// with configuration-error and nothing is persisted. An accepted
// configuration is persisted, acknowledged with configuration-success, and
// followed by a restart request: the registry must be rebuilt from scratch.
func NewConfigureHandler(store hal.ConfigStore, identity string, sender Sender, display hal.Display, requestRestart func(), logger *zap.Logger) session.HandlerFunc {
	return func(payload json.RawMessage) error {
		req, err := protocol.Decode[protocol.ModuleConfigured](payload)
		if err != nil {
			return err
		}

		if req.MacAddress != "" && !strings.EqualFold(req.MacAddress, identity) {
			logger.Warn("rejecting configuration for another module",
				zap.String("expected_mac", identity),
				zap.String("actual_mac", req.MacAddress))
			_ = sender.Send(protocol.EventConfigurationError, protocol.ConfigurationError{
				Error:       "mac address mismatch",
				ExpectedMac: identity,
				ActualMac:   req.MacAddress,
			})
			return nil
		}

		if strings.TrimSpace(req.ModuleID) == "" {
			return fmt.Errorf("configuration missing module id")
		}
		if len(req.LockerIDs) == 0 || len(req.LockerIDs) > registry.MaxLockers {
			return fmt.Errorf("configuration has %d lockers, capacity is %d", len(req.LockerIDs), registry.MaxLockers)
		}

		if err := store.PutString(KeyModuleID, req.ModuleID); err != nil {
			return fmt.Errorf("persist module id: %w", err)
		}
		if err := store.PutInt(KeyNumLockers, len(req.LockerIDs)); err != nil {
			return fmt.Errorf("persist locker count: %w", err)
		}
		for i, id := range req.LockerIDs {
			if err := store.PutString(LockerKey(i), id); err != nil {
				return fmt.Errorf("persist locker %d: %w", i, err)
			}
		}

		logger.Info("module configured",
			zap.String("module_id", req.ModuleID),
			zap.Int("lockers", len(req.LockerIDs)))

		_ = sender.Send(protocol.EventConfigurationOK, protocol.ConfigurationSuccess{
			ModuleID:   req.ModuleID,
			MacAddress: identity,
		})
		display.Show("Configured!", "Restarting...")
		requestRestart()
		return nil
	}
}
