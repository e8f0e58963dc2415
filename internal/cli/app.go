// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/devdose-tui/internal/backend"
	"github.com/jeranaias/devdose-tui/internal/config"
	"github.com/jeranaias/devdose-tui/internal/orchestrator"
	"github.com/jeranaias/devdose-tui/internal/session"
	"github.com/jeranaias/devdose-tui/internal/storage"
)

// app bundles what a command needs to ask questions and keep history.
type app struct {
	cfg   *config.Config
	kv    storage.KV
	store *session.Store
	orch  *orchestrator.Orchestrator
}

// openStore opens the configured storage and loads the history.
func openStore(cfg *config.Config) (storage.KV, *session.Store, error) {
	dir, err := cfg.DataDir()
	if err != nil {
		return nil, nil, err
	}
	kv, err := storage.Open(storage.Options{
		Backend:    cfg.Storage.Backend,
		Dir:        dir,
		QuotaBytes: cfg.Storage.QuotaBytes,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}

	store := session.New(kv, cfg.Storage.HistoryKey)
	store.Load()
	return kv, store, nil
}

// openApp opens the history and builds the configured backend.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	kv, store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	gen, err := backend.New(ctx, cfg)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("backend: %w", err)
	}

	return &app{
		cfg:   cfg,
		kv:    kv,
		store: store,
		orch:  orchestrator.New(store, gen, orchestrator.WithInterval(cfg.TypingInterval())),
	}, nil
}

// watch starts the external-change watcher when enabled. A nil watcher
// means none is running.
func (a *app) watch() *storage.Watcher {
	if !a.cfg.Storage.Watch {
		return nil
	}
	w, err := storage.Watch(a.kv, a.store.Key(), storage.DefaultDebounce)
	switch {
	case errors.Is(err, storage.ErrWatchUnsupported):
		log.Debug().Str("storage", a.cfg.Storage.Backend).Msg("history watching not supported")
		return nil
	case err != nil:
		log.Warn().Err(err).Msg("could not watch history for external changes")
		return nil
	}
	return w
}

func (a *app) Close() error {
	return a.kv.Close()
}
