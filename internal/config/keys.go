// Package config manages the per-device local-key registry.
//
// Decrypting captured payloads requires each device's symmetric local key,
// which is obtained out of band (cloud API export, app extraction). Keys are
// stored in a YAML file under the platform config directory and looked up by
// device IP while dispatching packets. This tool never generates keys.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

const (
	appName  = "tuyatap"
	keysFile = "devices.yaml"
)

// DeviceKey is one registry entry.
type DeviceKey struct {
	// IP is the device's LAN address, the lookup key during capture.
	IP string `yaml:"ip"`

	// Name is a free-form label ("living-room-lamp"), display only.
	Name string `yaml:"name,omitempty"`

	// LocalKey is the device's symmetric secret (16 ASCII characters on
	// 3.x firmware).
	LocalKey string `yaml:"local_key"`
}

// KeyStore holds the loaded registry.
type KeyStore struct {
	Devices []DeviceKey `yaml:"devices"`
}

// GetConfigDir returns the OS-appropriate configuration directory:
//   - Linux: $XDG_CONFIG_HOME/tuyatap or $HOME/.config/tuyatap
//   - macOS: $HOME/.config/tuyatap (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\tuyatap
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetKeysPath returns the full path to the key registry file.
func GetKeysPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, keysFile), nil
}

// LoadKeys reads the key registry from the config directory.
// A missing file is not an error; it yields an empty store so capture can
// proceed without decryption.
func LoadKeys() (*KeyStore, error) {
	path, err := GetKeysPath()
	if err != nil {
		return nil, err
	}
	return LoadKeysFrom(path)
}

// LoadKeysFrom reads a key registry from an explicit path.
func LoadKeysFrom(path string) (*KeyStore, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &KeyStore{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key registry: %w", err)
	}

	var store KeyStore
	if err := yaml.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("failed to parse key registry %s: %w", path, err)
	}
	return &store, nil
}

// KeyFor returns the local key registered for a device IP, or "" when the
// device is unknown.
func (s *KeyStore) KeyFor(ip string) string {
	for _, d := range s.Devices {
		if d.IP == ip {
			return d.LocalKey
		}
	}
	return ""
}

// Len returns the number of registered devices.
func (s *KeyStore) Len() int {
	return len(s.Devices)
}
