package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatpad/internal/commands"
	"chatpad/internal/models"
	"chatpad/internal/prefs"
	"chatpad/internal/seed"
	"chatpad/internal/simulator"
	"chatpad/internal/storage"
	"chatpad/internal/store"
)

func TestEndToEnd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "chatpad_test.db")

	gw, err := storage.NewBboltStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = gw.Close() }()

	localUser := seed.LocalUser("current-user", "You")

	st := store.New(store.Config{
		Gateway:   gw,
		LocalUser: localUser,
		Users:     seed.Contacts(),
		Seed:      seed.Conversations(localUser),
	})
	ps := prefs.New(gw)
	sim := simulator.New(st, simulator.Config{
		DelayMin: 40 * time.Millisecond,
		DelayMax: 80 * time.Millisecond,
	})
	st.CloseCallback = sim.Cancel

	ctx := context.Background()

	// Step 1: first run over empty storage falls back to the seed dataset.
	require.NoError(t, st.Load(ctx))
	ps.Load()
	require.False(t, st.IsLoading())
	require.Empty(t, st.LastError())

	convs := st.Conversations()
	require.Len(t, convs, 5)
	require.Equal(t, prefs.Defaults(), ps.Preferences())

	// Seeded favorites index agrees with the flags.
	require.ElementsMatch(t, []string{"conv1", "conv3"}, st.Favorites())

	// Step 2: open a conversation and send a message.
	target, err := st.Conversation("conv1")
	require.NoError(t, err)
	other, ok := target.Other(localUser.ID)
	require.True(t, ok)
	baseline := len(target.Messages)

	require.NoError(t, st.OpenConversation("conv1"))

	_, err = st.AppendMessage("conv1", localUser.ID, other.ID, "hello", models.KindText)
	require.NoError(t, err)
	st.PersistAsync()
	sim.MessageSent("conv1")

	c, err := st.Conversation("conv1")
	require.NoError(t, err)
	require.Equal(t, "hello", c.LastMessage.Text)
	require.Equal(t, 0, c.UnreadCount, "own message is never unread")
	require.True(t, c.IsTyping)

	// Step 3: the simulated reply lands against the live state.
	require.Eventually(t, func() bool {
		c, err := st.Conversation("conv1")
		return err == nil && len(c.Messages) == baseline+2
	}, 2*time.Second, 5*time.Millisecond)

	c, err = st.Conversation("conv1")
	require.NoError(t, err)
	require.False(t, c.IsTyping)
	require.Equal(t, 1, c.UnreadCount)
	require.Equal(t, other.ID, c.LastMessage.SenderID)

	// The open conversation view sees the reply without re-opening.
	cur, ok := st.Current()
	require.True(t, ok)
	require.Len(t, cur.Messages, baseline+2)

	// Step 4: mark read.
	require.NoError(t, st.MarkRead("conv1"))
	c, err = st.Conversation("conv1")
	require.NoError(t, err)
	require.Equal(t, 0, c.UnreadCount)

	// Step 5: preferences persist on every change.
	require.NoError(t, ps.SetTheme(models.ThemeDark))
	require.NoError(t, ps.SetFontSize(models.FontSizeLarge))

	// Step 6: persist and reload through a fresh store over the same db.
	require.NoError(t, st.Persist())

	st2 := store.New(store.Config{Gateway: gw, LocalUser: localUser})
	require.NoError(t, st2.Load(ctx))
	c2, err := st2.Conversation("conv1")
	require.NoError(t, err)
	require.Len(t, c2.Messages, baseline+2)
	require.Equal(t, 0, c2.UnreadCount)
	require.False(t, c2.IsTyping, "typing must not survive a reload")
	for i, m := range c2.Messages {
		require.True(t, c.Messages[i].CreatedAt.Equal(m.CreatedAt), "timestamps must round trip")
	}

	ps2 := prefs.New(gw)
	ps2.Load()
	require.Equal(t, models.ThemeDark, ps2.Preferences().Theme)
	require.Equal(t, models.FontSizeLarge, ps2.Preferences().FontSize)

	// Step 7: clear all data, then the next load reseeds.
	sim.CancelAll()
	require.NoError(t, commands.ClearData(gw))
	for _, key := range storage.Keys() {
		blob, err := gw.Load(key)
		require.NoError(t, err)
		require.Nil(t, blob, "key %s should be removed", key)
	}

	st3 := store.New(store.Config{
		Gateway:   gw,
		LocalUser: localUser,
		Seed:      seed.Conversations(localUser),
	})
	require.NoError(t, st3.Load(ctx))
	require.Len(t, st3.Conversations(), 5)

	ps3 := prefs.New(gw)
	ps3.Load()
	require.Equal(t, prefs.Defaults(), ps3.Preferences())
}

func TestCloseCancelsPendingReply(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "chatpad_cancel.db")

	gw, err := storage.NewBboltStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = gw.Close() }()

	localUser := seed.LocalUser("current-user", "You")
	st := store.New(store.Config{
		Gateway:   gw,
		LocalUser: localUser,
		Seed:      seed.Conversations(localUser),
	})
	sim := simulator.New(st, simulator.Config{
		DelayMin: 60 * time.Millisecond,
		DelayMax: 80 * time.Millisecond,
	})
	st.CloseCallback = sim.Cancel

	require.NoError(t, st.Load(context.Background()))
	require.NoError(t, st.OpenConversation("conv2"))

	target, err := st.Conversation("conv2")
	require.NoError(t, err)
	other, _ := target.Other(localUser.ID)
	baseline := len(target.Messages)

	_, err = st.AppendMessage("conv2", localUser.ID, other.ID, "anyone there?", models.KindText)
	require.NoError(t, err)
	sim.MessageSent("conv2")
	require.True(t, sim.Pending("conv2"))

	// Leaving the conversation before the delay elapses cancels the reply.
	require.NoError(t, st.OpenConversation(""))
	require.False(t, sim.Pending("conv2"))

	time.Sleep(150 * time.Millisecond)
	c, err := st.Conversation("conv2")
	require.NoError(t, err)
	require.Len(t, c.Messages, baseline+1, "cancelled reply must not fire")
	require.False(t, c.IsTyping)
}
