package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/fairpay/upiwatch/internal/config"
	"github.com/fairpay/upiwatch/internal/engine"
	"github.com/fairpay/upiwatch/internal/notify"
	"github.com/fairpay/upiwatch/internal/storage"
)

// openStore opens and migrates the pending queue database from config.
func openStore(ctx context.Context) (*storage.SQLiteStore, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pending queue: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate pending queue: %w", err)
	}

	return store, nil
}

// newNotifier builds the configured notifier; without a notify command the
// alerts land in the log.
func newNotifier() notify.Notifier {
	if cmd := viper.GetString("notify.command"); cmd != "" {
		return notify.CommandNotifier{Command: cmd}
	}
	return notify.LogNotifier{}
}

// newEngine wires an engine around the store using the configured notifier
// and a gate over the given feed path.
func newEngine(store *storage.SQLiteStore, feedPath string) *engine.Engine {
	return engine.New(store, newNotifier(), engine.FileGate{Path: feedPath})
}

// newReplayEngine wires an engine that stores detections without alerting.
func newReplayEngine(store *storage.SQLiteStore) *engine.Engine {
	return engine.New(store, silentNotifier{}, engine.GrantedGate{})
}

type silentNotifier struct{}

func (silentNotifier) Alert(context.Context, string, string, notify.ResumePayload) error {
	return nil
}
