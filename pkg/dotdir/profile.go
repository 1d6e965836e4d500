package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	profileFile = "profile.json"
)

// Profile is the persisted CLI identity: the owner and project that commands
// act as when no explicit flags are given.
type Profile struct {
	// OwnerID is the user identity attached to created items.
	OwnerID string `json:"owner_id"`

	// ProjectID optionally scopes created items to a project.
	ProjectID string `json:"project_id,omitempty"`
}

// LoadProfile loads the profile from a target .recall/profile.json.
// Returns nil, nil if no profile exists yet.
// If overrideDir is non-empty, it is used instead of the default ~/.recall/ location.
func (m *Manager) LoadProfile(overrideDir string) (*Profile, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, profileFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}

	return &p, nil
}

// SaveProfile persists the profile to .recall/profile.json.
func (m *Manager) SaveProfile(overrideDir string, p *Profile) error {
	if p == nil {
		return errors.New("cannot save nil profile")
	}
	if p.OwnerID == "" {
		return errors.New("profile owner_id is required")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	path := filepath.Join(dir, profileFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}

	return nil
}

// ClearProfile removes the persisted profile, if any.
func (m *Manager) ClearProfile(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	err = os.Remove(filepath.Join(dir, profileFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing profile: %w", err)
	}
	return nil
}
