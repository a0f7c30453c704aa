package models

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrCorruptData        = errors.New("corrupt data")
	ErrEmptyText          = errors.New("message text is empty")
)

type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindFile  MessageKind = "file"
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

type FontSize string

const (
	FontSizeSmall  FontSize = "small"
	FontSizeMedium FontSize = "medium"
	FontSizeLarge  FontSize = "large"
)

// User represents a chat participant. Presence fields are updated
// externally; everything else is immutable after creation.
type User struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	Online      bool       `json:"online"`
	LastSeen    *time.Time `json:"lastSeen,omitempty"` // set only when offline history is known
}

// Message is immutable once created, except for IsRead flips.
type Message struct {
	ID         string      `json:"id"`
	Text       string      `json:"text"`
	SenderID   string      `json:"senderId"`
	ReceiverID string      `json:"receiverId"`
	CreatedAt  time.Time   `json:"createdAt"`
	IsRead     bool        `json:"isRead"`
	Kind       MessageKind `json:"kind"`
}

// Conversation is a thread of messages between a fixed set of participants.
// Messages is append-only in creation order; LastMessage mirrors its last
// element. IsTyping is a transient UI signal and is never persisted.
type Conversation struct {
	ID           string    `json:"id"`
	Participants []User    `json:"participants"`
	Messages     []Message `json:"messages"`
	LastMessage  *Message  `json:"lastMessage,omitempty"`
	IsGroup      bool      `json:"isGroup"`
	UnreadCount  int       `json:"unreadCount"`
	IsFavorite   bool      `json:"isFavorite"`
	IsTyping     bool      `json:"isTyping"`
	LastActivity time.Time `json:"lastActivity"`
}

// Clone returns a copy that shares no mutable memory with the original, so
// a store can hand conversations out without aliasing its internal state.
func (c Conversation) Clone() Conversation {
	out := c
	out.Participants = slices.Clone(c.Participants)
	for i := range out.Participants {
		if ls := out.Participants[i].LastSeen; ls != nil {
			t := *ls
			out.Participants[i].LastSeen = &t
		}
	}
	out.Messages = slices.Clone(c.Messages)
	if c.LastMessage != nil {
		lm := *c.LastMessage
		out.LastMessage = &lm
	}
	return out
}

// Other returns the first participant that is not localID.
func (c Conversation) Other(localID string) (User, bool) {
	for _, p := range c.Participants {
		if p.ID != localID {
			return p, true
		}
	}
	return User{}, false
}

type UserPreferences struct {
	Theme         Theme    `json:"theme"`
	Notifications bool     `json:"notifications"`
	SoundEnabled  bool     `json:"soundEnabled"`
	FontSize      FontSize `json:"fontSize"`
}

// NewMessageID builds a message id from a millisecond timestamp and a random
// suffix. Uniqueness is best effort: fine for a single-writer local store,
// not for multi-writer sync.
func NewMessageID(now time.Time) string {
	return fmt.Sprintf("msg-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}
