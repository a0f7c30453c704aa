// Package store owns the canonical chat state: the conversation list, the
// favorites index, the open-conversation pointer and load/error status. All
// mutations go through its operations; reads get copies, never live state.
// Persistence is write-behind: the in-memory state is the source of truth
// and storage writes may lag or fail without affecting it.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/c-pro/geche"
	"golang.org/x/sync/errgroup"

	"chatpad/internal/codec"
	"chatpad/internal/models"
	"chatpad/internal/storage"
)

// Gateway is the async key-value persistence boundary the store writes
// behind. A nil blob from Load means the record is absent.
type Gateway interface {
	Load(key string) ([]byte, error)
	Save(key string, value []byte) error
	RemoveMany(keys ...string) error
}

type Config struct {
	Gateway   Gateway
	LocalUser models.User
	// Users pre-populates the user directory.
	Users []models.User
	// Seed is the fallback dataset used when storage holds no conversations.
	Seed []models.Conversation
	// Now defaults to time.Now.
	Now func() time.Time
}

type Store struct {
	// CloseCallback, when set, is invoked with the id of every conversation
	// whose open view is torn down: on OpenConversation switching away from
	// it and for each conversation on Reset. The reply simulator hooks its
	// cancellation here.
	CloseCallback func(conversationID string)

	gateway   Gateway
	localUser models.User
	seed      []models.Conversation
	now       func() time.Time

	users geche.Geche[string, models.User]

	mu            sync.RWMutex
	conversations map[string]*models.Conversation
	favorites     map[string]struct{}
	currentID     string
	isLoading     bool
	lastError     string
}

func New(cfg Config) *Store {
	s := &Store{
		gateway:       cfg.Gateway,
		localUser:     cfg.LocalUser,
		seed:          cfg.Seed,
		now:           cfg.Now,
		users:         geche.NewMapCache[string, models.User](),
		conversations: make(map[string]*models.Conversation),
		favorites:     make(map[string]struct{}),
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.users.Set(cfg.LocalUser.ID, cfg.LocalUser)
	for _, u := range cfg.Users {
		s.users.Set(u.ID, u)
	}
	return s
}

// Load replaces the in-memory conversations and favorites with the persisted
// copies, falling back to the seed dataset when storage is empty or the blob
// is corrupt. On a gateway failure the prior in-memory state is untouched and
// the error is recorded in LastError.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.isLoading = true
	s.lastError = ""
	s.mu.Unlock()

	var convBlob, favBlob []byte
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		convBlob, err = s.gateway.Load(storage.KeyConversations)
		return err
	})
	g.Go(func() error {
		var err error
		favBlob, err = s.gateway.Load(storage.KeyFavorites)
		return err
	})
	if err := g.Wait(); err != nil {
		s.mu.Lock()
		s.isLoading = false
		s.lastError = err.Error()
		s.mu.Unlock()
		return err
	}

	convs := s.decodeOrSeed(convBlob)

	var favIDs []string
	haveStoredFavs := false
	if favBlob != nil {
		ids, err := codec.DecodeFavorites(favBlob)
		if err != nil {
			slog.Warn("stored favorites are corrupt, rebuilding index from flags", "error", err)
		} else {
			favIDs = ids
			haveStoredFavs = true
		}
	}

	byID := make(map[string]*models.Conversation, len(convs))
	for i := range convs {
		c := convs[i]
		byID[c.ID] = &c
	}

	// The favorites index and per-conversation flags must always agree.
	// A stored index wins and the flags are rewritten to match; without
	// one the index is derived from the flags.
	fav := make(map[string]struct{})
	if haveStoredFavs {
		for _, id := range favIDs {
			if _, ok := byID[id]; ok {
				fav[id] = struct{}{}
			}
		}
		for id, c := range byID {
			_, isFav := fav[id]
			c.IsFavorite = isFav
		}
	} else {
		for id, c := range byID {
			if c.IsFavorite {
				fav[id] = struct{}{}
			}
		}
	}

	s.mu.Lock()
	s.conversations = byID
	s.favorites = fav
	s.isLoading = false
	s.mu.Unlock()

	for _, c := range byID {
		for _, p := range c.Participants {
			s.users.Set(p.ID, p)
		}
	}
	return nil
}

func (s *Store) decodeOrSeed(blob []byte) []models.Conversation {
	if blob == nil {
		return cloneAll(s.seed)
	}
	convs, err := codec.DecodeConversations(blob)
	if err != nil {
		slog.Warn("stored conversations are corrupt, falling back to seed data", "error", err)
		return cloneAll(s.seed)
	}
	return convs
}

func cloneAll(convs []models.Conversation) []models.Conversation {
	out := make([]models.Conversation, 0, len(convs))
	for _, c := range convs {
		out = append(out, c.Clone())
	}
	return out
}

// Persist writes the conversation list and favorites index to the gateway.
// Failure is recorded in LastError and returned; the in-memory state stays
// authoritative either way.
func (s *Store) Persist() error {
	s.mu.RLock()
	convs := s.snapshotLocked()
	favs := s.favoriteIDsLocked()
	s.mu.RUnlock()

	var errs []error
	if data, err := codec.EncodeConversations(convs); err != nil {
		errs = append(errs, err)
	} else if err := s.gateway.Save(storage.KeyConversations, data); err != nil {
		errs = append(errs, err)
	}
	if data, err := codec.EncodeFavorites(favs); err != nil {
		errs = append(errs, err)
	} else if err := s.gateway.Save(storage.KeyFavorites, data); err != nil {
		errs = append(errs, err)
	}

	err := errors.Join(errs...)
	if err != nil {
		slog.Error("failed to persist conversations", "error", err)
	}
	s.setLastError(err)
	return err
}

// PersistAsync is the fire-and-forget variant used after sends: the caller
// never blocks on storage and multiple writes may be in flight, last one
// winning.
func (s *Store) PersistAsync() {
	go func() { _ = s.Persist() }()
}

func (s *Store) persistFavorites() error {
	s.mu.RLock()
	favs := s.favoriteIDsLocked()
	s.mu.RUnlock()

	data, err := codec.EncodeFavorites(favs)
	if err == nil {
		err = s.gateway.Save(storage.KeyFavorites, data)
	}
	if err != nil {
		slog.Error("failed to persist favorites", "error", err)
		s.setLastError(err)
	}
	return err
}

// OpenConversation sets the current-conversation pointer; an empty id closes
// it. The conversation itself is looked up live on every read, so mutations
// stay visible to whatever is currently open.
func (s *Store) OpenConversation(id string) error {
	s.mu.Lock()
	if id != "" {
		if _, ok := s.conversations[id]; !ok {
			s.mu.Unlock()
			return models.ErrNotFound
		}
	}
	prev := s.currentID
	s.currentID = id
	cb := s.CloseCallback
	s.mu.Unlock()

	if cb != nil && prev != "" && prev != id {
		cb(prev)
	}
	return nil
}

// AppendMessage creates a message and appends it to the conversation,
// updating the last-message cache and activity timestamp. The unread counter
// grows only for messages not sent by the local user. Persistence is the
// caller's decision.
func (s *Store) AppendMessage(conversationID, senderID, receiverID, text string, kind models.MessageKind) (models.Message, error) {
	if kind == "" {
		kind = models.KindText
	}
	if kind == models.KindText {
		text = strings.TrimSpace(text)
		if text == "" {
			return models.Message{}, models.ErrEmptyText
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return models.Message{}, models.ErrNotFound
	}

	createdAt := s.now()
	// Creation timestamps are non-decreasing within a conversation even if
	// the wall clock steps backwards.
	if n := len(conv.Messages); n > 0 && createdAt.Before(conv.Messages[n-1].CreatedAt) {
		createdAt = conv.Messages[n-1].CreatedAt
	}

	msg := models.Message{
		ID:         models.NewMessageID(createdAt),
		Text:       text,
		SenderID:   senderID,
		ReceiverID: receiverID,
		CreatedAt:  createdAt,
		Kind:       kind,
	}

	conv.Messages = append(conv.Messages, msg)
	last := msg
	conv.LastMessage = &last
	conv.LastActivity = createdAt
	if senderID != s.localUser.ID {
		conv.UnreadCount++
	}

	return msg, nil
}

// MarkRead zeroes the unread counter and flips IsRead on every message
// addressed to the local user. Idempotent.
func (s *Store) MarkRead(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return models.ErrNotFound
	}

	conv.UnreadCount = 0
	for i := range conv.Messages {
		if conv.Messages[i].ReceiverID == s.localUser.ID {
			conv.Messages[i].IsRead = true
		}
	}
	if conv.LastMessage != nil && conv.LastMessage.ReceiverID == s.localUser.ID {
		conv.LastMessage.IsRead = true
	}
	return nil
}

// ToggleFavorite flips the flag, keeps the favorites index in agreement and
// kicks off an independent save of the index only, a much smaller write
// than the full conversation set.
func (s *Store) ToggleFavorite(conversationID string) (bool, error) {
	s.mu.Lock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		s.mu.Unlock()
		return false, models.ErrNotFound
	}
	conv.IsFavorite = !conv.IsFavorite
	if conv.IsFavorite {
		s.favorites[conversationID] = struct{}{}
	} else {
		delete(s.favorites, conversationID)
	}
	fav := conv.IsFavorite
	s.mu.Unlock()

	go func() { _ = s.persistFavorites() }()
	return fav, nil
}

// SetTyping flips the transient typing indicator. Never persisted.
func (s *Store) SetTyping(conversationID string, typing bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return models.ErrNotFound
	}
	conv.IsTyping = typing
	return nil
}

// UpsertUser updates the user directory; presence changes arrive here.
func (s *Store) UpsertUser(u models.User) {
	s.users.Set(u.ID, u)
}

func (s *Store) User(id string) (models.User, error) {
	u, err := s.users.Get(id)
	if err != nil {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

func (s *Store) Users() []models.User {
	snap := s.users.Snapshot()
	users := make([]models.User, 0, len(snap))
	for _, u := range snap {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].DisplayName < users[j].DisplayName
	})
	return users
}

// Reset drops all in-memory chat state. CloseCallback fires for every
// conversation so pending reply timers get cancelled.
func (s *Store) Reset() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	s.conversations = make(map[string]*models.Conversation)
	s.favorites = make(map[string]struct{})
	s.currentID = ""
	s.lastError = ""
	cb := s.CloseCallback
	s.mu.Unlock()

	if cb != nil {
		for _, id := range ids {
			cb(id)
		}
	}
}

func (s *Store) setLastError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
}

func (s *Store) snapshotLocked() []models.Conversation {
	out := make([]models.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) favoriteIDsLocked() []string {
	ids := make([]string, 0, len(s.favorites))
	for id := range s.favorites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
