package handlers

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/Nexlock/nexlock-module/internal/hal"
	"github.com/Nexlock/nexlock-module/internal/protocol"
)

func newTestStore(t *testing.T) *hal.FileStore {
	t.Helper()
	store, err := hal.NewFileStore(filepath.Join(t.TempDir(), "store.yaml"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestConfigureHandlerPersistsAndRequestsRestart(t *testing.T) {
	store := newTestStore(t)
	sender := &fakeSender{}
	restarted := false

	handler := NewConfigureHandler(store, "AABBCCDDEEFF", sender, hal.NopDisplay{}, func() { restarted = true }, zap.NewNop())

	payload := `{"moduleId":"M1","lockerIds":["A","B"],"macAddress":"AABBCCDDEEFF"}`
	if err := handler(json.RawMessage(payload)); err != nil {
		t.Fatalf("handler: %v", err)
	}

	moduleID, lockerIDs, configured := LoadConfiguration(store)
	if !configured {
		t.Fatalf("expected module configured")
	}
	if moduleID != "M1" {
		t.Fatalf("expected module id M1, got %q", moduleID)
	}
	if len(lockerIDs) != 2 || lockerIDs[0] != "A" || lockerIDs[1] != "B" {
		t.Fatalf("unexpected locker ids %v", lockerIDs)
	}

	if !restarted {
		t.Fatalf("expected restart request after configuration")
	}
	if len(sender.events) != 1 || sender.events[0].event != protocol.EventConfigurationOK {
		t.Fatalf("expected configuration-success reply, got %+v", sender.events)
	}
	success := sender.events[0].payload.(protocol.ConfigurationSuccess)
	if success.ModuleID != "M1" || success.MacAddress != "AABBCCDDEEFF" {
		t.Fatalf("unexpected success payload %+v", success)
	}
}

func TestConfigureHandlerRejectsIdentityMismatch(t *testing.T) {
	store := newTestStore(t)
	sender := &fakeSender{}
	restarted := false

	handler := NewConfigureHandler(store, "AABBCCDDEEFF", sender, hal.NopDisplay{}, func() { restarted = true }, zap.NewNop())

	payload := `{"moduleId":"M1","lockerIds":["A"],"macAddress":"112233445566"}`
	if err := handler(json.RawMessage(payload)); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if _, _, configured := LoadConfiguration(store); configured {
		t.Fatalf("mismatched configuration must not persist")
	}
	if restarted {
		t.Fatalf("mismatched configuration must not restart")
	}

	if len(sender.events) != 1 || sender.events[0].event != protocol.EventConfigurationError {
		t.Fatalf("expected configuration-error reply, got %+v", sender.events)
	}
	reply := sender.events[0].payload.(protocol.ConfigurationError)
	if reply.ExpectedMac != "AABBCCDDEEFF" || reply.ActualMac != "112233445566" {
		t.Fatalf("unexpected error payload %+v", reply)
	}
}

func TestConfigureHandlerAcceptsMatchingIdentityCaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	sender := &fakeSender{}

	handler := NewConfigureHandler(store, "AABBCCDDEEFF", sender, hal.NopDisplay{}, func() {}, zap.NewNop())

	payload := `{"moduleId":"M1","lockerIds":["A"],"macAddress":"aabbccddeeff"}`
	if err := handler(json.RawMessage(payload)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if _, _, configured := LoadConfiguration(store); !configured {
		t.Fatalf("expected configuration accepted")
	}
}

func TestConfigureHandlerWithoutIdentityTokenApplies(t *testing.T) {
	store := newTestStore(t)
	sender := &fakeSender{}

	handler := NewConfigureHandler(store, "AABBCCDDEEFF", sender, hal.NopDisplay{}, func() {}, zap.NewNop())

	if err := handler(json.RawMessage(`{"moduleId":"M2","lockerIds":["X"]}`)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	moduleID, _, configured := LoadConfiguration(store)
	if !configured || moduleID != "M2" {
		t.Fatalf("expected configuration without identity token to apply")
	}
}

func TestConfigureHandlerRejectsInvalidPayloads(t *testing.T) {
	store := newTestStore(t)
	sender := &fakeSender{}
	handler := NewConfigureHandler(store, "AABBCCDDEEFF", sender, hal.NopDisplay{}, func() {}, zap.NewNop())

	cases := []struct {
		name    string
		payload string
	}{
		{"missing module id", `{"lockerIds":["A"]}`},
		{"no lockers", `{"moduleId":"M1","lockerIds":[]}`},
		{"too many lockers", `{"moduleId":"M1","lockerIds":["A","B","C","D"]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := handler(json.RawMessage(tc.payload)); err == nil {
				t.Fatalf("expected error for %s", tc.payload)
			}
			if _, _, configured := LoadConfiguration(store); configured {
				t.Fatalf("invalid configuration must not persist")
			}
		})
	}
}

func TestLoadConfigurationIncomplete(t *testing.T) {
	store := newTestStore(t)

	if _, _, configured := LoadConfiguration(store); configured {
		t.Fatalf("empty store must not report configured")
	}

	// module id without lockers is still unconfigured
	_ = store.PutString(KeyModuleID, "M1")
	if _, _, configured := LoadConfiguration(store); configured {
		t.Fatalf("module id alone must not report configured")
	}
}
