package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const sessionFileName = "session.yaml"

// FileStorage persists the session record to a YAML file, by default
// under the pulsectl config directory.
type FileStorage struct {
	path string
}

// NewFileStorage creates a FileStorage writing to the given path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// DefaultFileStorage stores the session under $HOME/.pulsectl/.
func DefaultFileStorage() (*FileStorage, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	return NewFileStorage(filepath.Join(home, ".pulsectl", sessionFileName)), nil
}

// Load implements Storage.Load. A missing file is not an error, it just
// means no session has been persisted yet.
func (f *FileStorage) Load() (Session, bool, error) {
	v := viper.New()
	v.SetConfigFile(f.path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return Session{}, false, nil
		}

		return Session{}, false, fmt.Errorf("failed to read session file: %w", err)
	}

	var restored Session
	err := v.Unmarshal(&restored, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	)))
	if err != nil {
		return Session{}, false, fmt.Errorf("failed to decode session file: %w", err)
	}

	return restored, true, nil
}

// Save implements Storage.Save. Only the whitelisted record fields are written.
func (f *FileStorage) Save(session Session) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("access_token", session.AccessToken)
	v.Set("refresh_token", session.RefreshToken)
	v.Set("authenticated", session.Authenticated)
	v.Set("user", session.User)

	if err := v.WriteConfigAs(f.path); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}
