package store

import (
	"sort"
	"strings"

	"chatpad/internal/models"
)

// Derived read views. All of them recompute from the live state on every
// call and return clones, so the presentation layer can never observe a
// partially-applied mutation or hold a stale snapshot.

// Conversations returns the full list ordered by last activity, newest
// first. Ties break by id for a stable order.
func (s *Store) Conversations() []models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(nil)
}

// Search filters by a case-insensitive match against the display names of
// the non-local participants, optionally restricted to favorites.
func (s *Store) Search(query string, favoritesOnly bool) []models.Conversation {
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(func(c *models.Conversation) bool {
		if favoritesOnly && !c.IsFavorite {
			return false
		}
		if q == "" {
			return true
		}
		for _, p := range c.Participants {
			if p.ID == s.localUser.ID {
				continue
			}
			if strings.Contains(strings.ToLower(p.DisplayName), q) {
				return true
			}
		}
		return false
	})
}

func (s *Store) Conversation(id string) (models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return models.Conversation{}, models.ErrNotFound
	}
	return conv.Clone(), nil
}

// Current returns the open conversation, looked up live by id.
func (s *Store) Current() (models.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentID == "" {
		return models.Conversation{}, false
	}
	conv, ok := s.conversations[s.currentID]
	if !ok {
		return models.Conversation{}, false
	}
	return conv.Clone(), true
}

func (s *Store) CurrentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentID
}

func (s *Store) Favorites() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.favoriteIDsLocked()
}

func (s *Store) TotalUnread() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, c := range s.conversations {
		total += c.UnreadCount
	}
	return total
}

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

// LastError is the single user-visible failure message; empty means the last
// load/persist succeeded.
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

func (s *Store) LocalUser() models.User {
	return s.localUser
}

func (s *Store) listLocked(match func(*models.Conversation) bool) []models.Conversation {
	out := make([]models.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		if match == nil || match(c) {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActivity.Equal(out[j].LastActivity) {
			return out[i].LastActivity.After(out[j].LastActivity)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
