package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}
	if !strings.Contains(configDir, appName) {
		t.Errorf("GetConfigDir() = %v, should contain %q", configDir, appName)
	}
}

func TestLoadKeysFrom(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, keysFile)

	content := `devices:
  - ip: 192.168.1.40
    name: living-room-lamp
    local_key: fb8b6e1bd339f802
  - ip: 192.168.1.41
    local_key: 0a1b2c3d4e5f6071
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write registry: %v", err)
	}

	store, err := LoadKeysFrom(path)
	if err != nil {
		t.Fatalf("LoadKeysFrom() error = %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", store.Len())
	}
	if got := store.KeyFor("192.168.1.40"); got != "fb8b6e1bd339f802" {
		t.Errorf("KeyFor(192.168.1.40) = %q", got)
	}
	if got := store.KeyFor("192.168.1.99"); got != "" {
		t.Errorf("KeyFor(unknown) = %q, want empty", got)
	}
	if store.Devices[0].Name != "living-room-lamp" {
		t.Errorf("name = %q, want living-room-lamp", store.Devices[0].Name)
	}
}

func TestLoadKeysFromMissingFile(t *testing.T) {
	store, err := LoadKeysFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadKeysFrom(missing) error = %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for missing file", store.Len())
	}
}

func TestLoadKeysFromMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), keysFile)
	if err := os.WriteFile(path, []byte("devices: {not a list"), 0600); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	if _, err := LoadKeysFrom(path); err == nil {
		t.Error("LoadKeysFrom(malformed) expected error")
	}
}
