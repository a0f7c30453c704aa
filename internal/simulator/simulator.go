// Package simulator stands in for a remote peer: after an outgoing message
// it toggles the typing indicator and, after a randomized delay, injects a
// canned reply through the store's own operations.
package simulator

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"chatpad/internal/models"
)

const (
	DefaultDelayMin = 2 * time.Second
	DefaultDelayMax = 3 * time.Second
)

// DefaultResponses is the canned reply set, picked uniformly at random.
var DefaultResponses = []string{
	"That's interesting! 🤔",
	"I agree with you on that",
	"Thanks for sharing!",
	"Absolutely! 💯",
	"I see what you mean",
	"That makes sense",
	"Great point!",
	"I'll think about that",
	"Sounds good to me 👍",
	"Let's discuss this more later",
}

type conversationStore interface {
	Conversation(id string) (models.Conversation, error)
	AppendMessage(conversationID, senderID, receiverID, text string, kind models.MessageKind) (models.Message, error)
	SetTyping(conversationID string, typing bool) error
	LocalUser() models.User
	PersistAsync()
}

type Config struct {
	DelayMin  time.Duration
	DelayMax  time.Duration
	Responses []string
}

type Simulator struct {
	store     conversationStore
	delayMin  time.Duration
	delayMax  time.Duration
	responses []string

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func New(store conversationStore, cfg Config) *Simulator {
	s := &Simulator{
		store:     store,
		delayMin:  cfg.DelayMin,
		delayMax:  cfg.DelayMax,
		responses: cfg.Responses,
		pending:   make(map[string]*time.Timer),
	}
	if s.delayMin <= 0 {
		s.delayMin = DefaultDelayMin
	}
	if s.delayMax < s.delayMin {
		s.delayMax = DefaultDelayMax
	}
	if len(s.responses) == 0 {
		s.responses = DefaultResponses
	}
	return s
}

// MessageSent schedules a reply for a 1:1 conversation the local user just
// wrote to. At most one reply is pending per conversation: sending again
// before it fires reschedules the timer instead of stacking a second reply.
func (s *Simulator) MessageSent(conversationID string) {
	conv, err := s.store.Conversation(conversationID)
	if err != nil {
		return
	}
	if conv.IsGroup || len(conv.Participants) != 2 {
		return
	}
	if _, ok := conv.Other(s.store.LocalUser().ID); !ok {
		return
	}

	_ = s.store.SetTyping(conversationID, true)

	delay := s.delayMin
	if span := s.delayMax - s.delayMin; span > 0 {
		delay += rand.N(span)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.pending[conversationID]; ok {
		t.Stop()
	}
	s.pending[conversationID] = time.AfterFunc(delay, func() {
		s.fire(conversationID)
	})
}

// fire applies the reply against the state at fire time: the conversation is
// re-fetched by id, never taken from a snapshot captured at schedule time.
func (s *Simulator) fire(conversationID string) {
	s.mu.Lock()
	delete(s.pending, conversationID)
	s.mu.Unlock()

	conv, err := s.store.Conversation(conversationID)
	if err != nil {
		// Conversation was removed while the timer was pending.
		return
	}

	local := s.store.LocalUser()
	other, ok := conv.Other(local.ID)
	if !ok {
		return
	}

	_ = s.store.SetTyping(conversationID, false)

	text := s.responses[rand.IntN(len(s.responses))]
	if _, err := s.store.AppendMessage(conversationID, other.ID, local.ID, text, models.KindText); err != nil {
		slog.Warn("simulated reply dropped", "conversation_id", conversationID, "error", err)
		return
	}
	s.store.PersistAsync()
}

// Cancel stops the pending reply for a conversation, if any, and clears its
// typing indicator. Wired to the store's CloseCallback.
func (s *Simulator) Cancel(conversationID string) {
	s.mu.Lock()
	if t, ok := s.pending[conversationID]; ok {
		t.Stop()
		delete(s.pending, conversationID)
	}
	s.mu.Unlock()

	_ = s.store.SetTyping(conversationID, false)
}

// CancelAll stops every pending reply; used on teardown and clear-all.
func (s *Simulator) CancelAll() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.pending))
	for id, t := range s.pending {
		t.Stop()
		ids = append(ids, id)
	}
	clear(s.pending)
	s.mu.Unlock()

	for _, id := range ids {
		_ = s.store.SetTyping(id, false)
	}
}

// Pending reports whether a reply is scheduled for the conversation.
func (s *Simulator) Pending(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[conversationID]
	return ok
}
