// Package codec converts the conversation/message/preferences object graph
// to and from the opaque blobs kept in device storage. Timestamps travel as
// RFC 3339 strings so the round trip is lossless and unambiguous.
package codec

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"chatpad/internal/models"
)

type wireUser struct {
	ID          string `msgpack:"id"`
	DisplayName string `msgpack:"displayName"`
	AvatarURL   string `msgpack:"avatarUrl"`
	Online      bool   `msgpack:"online"`
	LastSeen    string `msgpack:"lastSeen"` // empty when unknown
}

type wireMessage struct {
	ID         string `msgpack:"id"`
	Text       string `msgpack:"text"`
	SenderID   string `msgpack:"senderId"`
	ReceiverID string `msgpack:"receiverId"`
	CreatedAt  string `msgpack:"createdAt"`
	IsRead     bool   `msgpack:"isRead"`
	Kind       string `msgpack:"kind"`
}

// wireConversation deliberately has no isTyping field: the flag is a
// transient UI signal and must not survive a restart.
type wireConversation struct {
	ID           string        `msgpack:"id"`
	Participants []wireUser    `msgpack:"participants"`
	Messages     []wireMessage `msgpack:"messages"`
	LastMessage  *wireMessage  `msgpack:"lastMessage"`
	IsGroup      bool          `msgpack:"isGroup"`
	UnreadCount  int           `msgpack:"unreadCount"`
	IsFavorite   bool          `msgpack:"isFavorite"`
	LastActivity string        `msgpack:"lastActivity"`
}

type wirePreferences struct {
	Theme         string `msgpack:"theme"`
	Notifications bool   `msgpack:"notifications"`
	SoundEnabled  bool   `msgpack:"soundEnabled"`
	FontSize      string `msgpack:"fontSize"`
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q: %v", models.ErrCorruptData, s, err)
	}
	return t, nil
}

func toWireUser(u models.User) wireUser {
	w := wireUser{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Online:      u.Online,
	}
	if u.LastSeen != nil {
		w.LastSeen = encodeTime(*u.LastSeen)
	}
	return w
}

func fromWireUser(w wireUser) (models.User, error) {
	u := models.User{
		ID:          w.ID,
		DisplayName: w.DisplayName,
		AvatarURL:   w.AvatarURL,
		Online:      w.Online,
	}
	if w.LastSeen != "" {
		t, err := parseTime(w.LastSeen)
		if err != nil {
			return models.User{}, err
		}
		u.LastSeen = &t
	}
	return u, nil
}

func toWireMessage(m models.Message) wireMessage {
	return wireMessage{
		ID:         m.ID,
		Text:       m.Text,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		CreatedAt:  encodeTime(m.CreatedAt),
		IsRead:     m.IsRead,
		Kind:       string(m.Kind),
	}
}

func fromWireMessage(w wireMessage) (models.Message, error) {
	createdAt, err := parseTime(w.CreatedAt)
	if err != nil {
		return models.Message{}, err
	}
	return models.Message{
		ID:         w.ID,
		Text:       w.Text,
		SenderID:   w.SenderID,
		ReceiverID: w.ReceiverID,
		CreatedAt:  createdAt,
		IsRead:     w.IsRead,
		Kind:       models.MessageKind(w.Kind),
	}, nil
}

func EncodeConversations(convs []models.Conversation) ([]byte, error) {
	wire := make([]wireConversation, 0, len(convs))
	for _, c := range convs {
		wc := wireConversation{
			ID:           c.ID,
			IsGroup:      c.IsGroup,
			UnreadCount:  c.UnreadCount,
			IsFavorite:   c.IsFavorite,
			LastActivity: encodeTime(c.LastActivity),
		}
		for _, p := range c.Participants {
			wc.Participants = append(wc.Participants, toWireUser(p))
		}
		for _, m := range c.Messages {
			wc.Messages = append(wc.Messages, toWireMessage(m))
		}
		if c.LastMessage != nil {
			lm := toWireMessage(*c.LastMessage)
			wc.LastMessage = &lm
		}
		wire = append(wire, wc)
	}

	data, err := msgpack.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("failed to encode conversations: %w", err)
	}
	return data, nil
}

func DecodeConversations(data []byte) ([]models.Conversation, error) {
	var wire []wireConversation
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrCorruptData, err)
	}

	convs := make([]models.Conversation, 0, len(wire))
	for _, wc := range wire {
		lastActivity, err := parseTime(wc.LastActivity)
		if err != nil {
			return nil, err
		}
		c := models.Conversation{
			ID:           wc.ID,
			IsGroup:      wc.IsGroup,
			UnreadCount:  wc.UnreadCount,
			IsFavorite:   wc.IsFavorite,
			LastActivity: lastActivity,
		}
		for _, wu := range wc.Participants {
			u, err := fromWireUser(wu)
			if err != nil {
				return nil, err
			}
			c.Participants = append(c.Participants, u)
		}
		for _, wm := range wc.Messages {
			m, err := fromWireMessage(wm)
			if err != nil {
				return nil, err
			}
			c.Messages = append(c.Messages, m)
		}
		if wc.LastMessage != nil {
			lm, err := fromWireMessage(*wc.LastMessage)
			if err != nil {
				return nil, err
			}
			c.LastMessage = &lm
		}
		convs = append(convs, c)
	}
	return convs, nil
}

func EncodeFavorites(ids []string) ([]byte, error) {
	data, err := msgpack.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to encode favorites: %w", err)
	}
	return data, nil
}

func DecodeFavorites(data []byte) ([]string, error) {
	var ids []string
	if err := msgpack.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrCorruptData, err)
	}
	return ids, nil
}

func EncodePreferences(p models.UserPreferences) ([]byte, error) {
	wire := wirePreferences{
		Theme:         string(p.Theme),
		Notifications: p.Notifications,
		SoundEnabled:  p.SoundEnabled,
		FontSize:      string(p.FontSize),
	}
	data, err := msgpack.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preferences: %w", err)
	}
	return data, nil
}

func DecodePreferences(data []byte) (models.UserPreferences, error) {
	var wire wirePreferences
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return models.UserPreferences{}, fmt.Errorf("%w: %v", models.ErrCorruptData, err)
	}
	return models.UserPreferences{
		Theme:         models.Theme(wire.Theme),
		Notifications: wire.Notifications,
		SoundEnabled:  wire.SoundEnabled,
		FontSize:      models.FontSize(wire.FontSize),
	}, nil
}
