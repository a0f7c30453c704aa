// Package prefs owns the user display/notification settings. Every change
// persists the full object; loading never fails past the boundary, absent
// or corrupt storage just means defaults.
package prefs

import (
	"log/slog"
	"sync"

	"chatpad/internal/codec"
	"chatpad/internal/models"
	"chatpad/internal/storage"
)

type Gateway interface {
	Load(key string) ([]byte, error)
	Save(key string, value []byte) error
}

func Defaults() models.UserPreferences {
	return models.UserPreferences{
		Theme:         models.ThemeSystem,
		Notifications: true,
		SoundEnabled:  true,
		FontSize:      models.FontSizeMedium,
	}
}

type Store struct {
	gateway Gateway

	mu    sync.RWMutex
	prefs models.UserPreferences
}

func New(gateway Gateway) *Store {
	return &Store{
		gateway: gateway,
		prefs:   Defaults(),
	}
}

// Load reads persisted preferences. Absent, unreadable or corrupt storage
// all fall back to defaults without surfacing an error.
func (s *Store) Load() {
	blob, err := s.gateway.Load(storage.KeyPreferences)
	if err != nil {
		slog.Warn("failed to load preferences, using defaults", "error", err)
		return
	}
	if blob == nil {
		return
	}

	p, err := codec.DecodePreferences(blob)
	if err != nil {
		slog.Warn("stored preferences are corrupt, using defaults", "error", err)
		return
	}

	s.mu.Lock()
	s.prefs = p
	s.mu.Unlock()
}

func (s *Store) Preferences() models.UserPreferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

func (s *Store) SetTheme(theme models.Theme) error {
	return s.update(func(p *models.UserPreferences) { p.Theme = theme })
}

func (s *Store) SetNotifications(enabled bool) error {
	return s.update(func(p *models.UserPreferences) { p.Notifications = enabled })
}

func (s *Store) SetSoundEnabled(enabled bool) error {
	return s.update(func(p *models.UserPreferences) { p.SoundEnabled = enabled })
}

func (s *Store) SetFontSize(size models.FontSize) error {
	return s.update(func(p *models.UserPreferences) { p.FontSize = size })
}

// Reset restores defaults and persists them.
func (s *Store) Reset() error {
	return s.update(func(p *models.UserPreferences) { *p = Defaults() })
}

// update applies the change in memory first, then saves the whole object.
// A failed save is reported to the caller but the in-memory value stands.
func (s *Store) update(apply func(*models.UserPreferences)) error {
	s.mu.Lock()
	apply(&s.prefs)
	snapshot := s.prefs
	s.mu.Unlock()

	data, err := codec.EncodePreferences(snapshot)
	if err == nil {
		err = s.gateway.Save(storage.KeyPreferences, data)
	}
	if err != nil {
		slog.Error("failed to persist preferences", "error", err)
		return err
	}
	return nil
}
