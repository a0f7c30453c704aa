package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"chatpad/internal/commands"
	"chatpad/internal/config"
	"chatpad/internal/prefs"
	"chatpad/internal/seed"
	"chatpad/internal/simulator"
	"chatpad/internal/storage"
	"chatpad/internal/store"
)

func run(ctx context.Context) error {
	clearData := flag.Bool("clear-data", false, "Remove all persisted chat data and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	gw, err := storage.NewBboltStorage(cfg.DBFile)
	if err != nil {
		return err
	}
	defer func() { _ = gw.Close() }()

	if *clearData {
		return commands.ClearData(gw)
	}

	localUser := seed.LocalUser(cfg.LocalUserID, cfg.LocalUserName)

	chatStore := store.New(store.Config{
		Gateway:   gw,
		LocalUser: localUser,
		Users:     seed.Contacts(),
		Seed:      seed.Conversations(localUser),
	})
	prefStore := prefs.New(gw)

	sim := simulator.New(chatStore, simulator.Config{
		DelayMin: cfg.ReplyDelayMin,
		DelayMax: cfg.ReplyDelayMax,
	})
	chatStore.CloseCallback = sim.Cancel

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return chatStore.Load(gCtx) })
	g.Go(func() error { prefStore.Load(); return nil })
	if err := g.Wait(); err != nil {
		// Write-behind model: the in-memory state is usable without storage.
		slog.Warn("initial load failed, continuing in memory", "error", err)
	}

	slog.Info("chatpad ready",
		"conversations", len(chatStore.Conversations()),
		"unread", chatStore.TotalUnread(),
		"local_user", localUser.ID)

	<-ctx.Done()

	sim.CancelAll()
	if err := chatStore.Persist(); err != nil {
		slog.Error("final persist failed", "error", err)
	}
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Application error: %v", err)
	}
}
