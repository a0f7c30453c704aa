// Package seed holds the built-in dataset used on first run, when no
// persisted conversation list exists yet.
package seed

import (
	"fmt"
	"time"

	"chatpad/internal/models"
)

// LocalUser returns the single local identity.
func LocalUser(id, name string) models.User {
	return models.User{
		ID:          id,
		DisplayName: name,
		AvatarURL:   "https://i.pravatar.cc/150?img=6",
		Online:      true,
	}
}

// Contacts returns the built-in remote users.
func Contacts() []models.User {
	now := time.Now()
	bobSeen := now.Add(-30 * time.Minute)
	davidSeen := now.Add(-2 * time.Hour)

	return []models.User{
		{ID: "user1", DisplayName: "Alice Johnson", AvatarURL: "https://i.pravatar.cc/150?img=1", Online: true},
		{ID: "user2", DisplayName: "Bob Smith", AvatarURL: "https://i.pravatar.cc/150?img=2", Online: false, LastSeen: &bobSeen},
		{ID: "user3", DisplayName: "Carol Williams", AvatarURL: "https://i.pravatar.cc/150?img=3", Online: true},
		{ID: "user4", DisplayName: "David Brown", AvatarURL: "https://i.pravatar.cc/150?img=4", Online: false, LastSeen: &davidSeen},
		{ID: "user5", DisplayName: "Emma Davis", AvatarURL: "https://i.pravatar.cc/150?img=5", Online: true},
	}
}

var script = []struct {
	fromLocal bool
	text      string
	age       time.Duration
}{
	{true, "Hey! How are you doing?", 120 * time.Minute},
	{false, "I'm doing great! Just working on some projects. How about you?", 115 * time.Minute},
	{true, "Same here! Working on a new chat app", 110 * time.Minute},
	{false, "That sounds exciting! What kind of app?", 105 * time.Minute},
	{true, "It's a chat application with some cool features", 100 * time.Minute},
	{false, "Nice! I'd love to see it when it's ready", 95 * time.Minute},
	{true, "Definitely! I'll share it with you soon", 90 * time.Minute},
	{false, "Looking forward to it! 😊", 10 * time.Minute},
}

func history(local, other models.User, now time.Time) []models.Message {
	msgs := make([]models.Message, 0, len(script))
	for i, line := range script {
		sender, receiver := local, other
		if !line.fromLocal {
			sender, receiver = other, local
		}
		msgs = append(msgs, models.Message{
			ID:         fmt.Sprintf("msg-%s-%s-%d", local.ID, other.ID, i),
			Text:       line.text,
			SenderID:   sender.ID,
			ReceiverID: receiver.ID,
			CreatedAt:  now.Add(-line.age),
			IsRead:     true,
			Kind:       models.KindText,
		})
	}
	return msgs
}

// Conversations builds the first-run conversation list: one 1:1 thread per
// contact, with a short scripted history and varying unread/favorite state.
func Conversations(local models.User) []models.Conversation {
	now := time.Now()
	contacts := Contacts()

	meta := []struct {
		unread   int
		favorite bool
		lastAct  time.Duration
	}{
		{0, true, 10 * time.Minute},
		{2, false, 30 * time.Minute},
		{0, true, 5 * time.Minute},
		{1, false, 120 * time.Minute},
		{0, false, 60 * time.Minute},
	}

	convs := make([]models.Conversation, 0, len(contacts))
	for i, contact := range contacts {
		msgs := history(local, contact, now)
		last := msgs[len(msgs)-1]
		convs = append(convs, models.Conversation{
			ID:           fmt.Sprintf("conv%d", i+1),
			Participants: []models.User{local, contact},
			Messages:     msgs,
			LastMessage:  &last,
			IsGroup:      false,
			UnreadCount:  meta[i].unread,
			IsFavorite:   meta[i].favorite,
			LastActivity: now.Add(-meta[i].lastAct),
		})
	}
	return convs
}
