package app

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Nexlock/nexlock-module/internal/hal"
)

const keyMacAddress = "macAddress"

// ensureIdentity resolves the module's hardware identity token. Precedence:
// explicit configuration, then the persisted value, then a generated token
// persisted so the identity stays stable across restarts.
func ensureIdentity(store hal.ConfigStore, configured string) (string, error) {
	if v := strings.TrimSpace(configured); v != "" {
		return strings.ToUpper(v), nil
	}

	if v := store.GetString(keyMacAddress, ""); v != "" {
		return v, nil
	}

	generated := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	if err := store.PutString(keyMacAddress, generated); err != nil {
		return "", fmt.Errorf("app: persist identity: %w", err)
	}
	return generated, nil
}
