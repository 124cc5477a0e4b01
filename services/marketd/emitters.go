package main

import (
	"context"
	"log/slog"
	"time"

	"nsmarket/core/events"
)

// fanoutEmitter delivers each event to every wired sink.
type fanoutEmitter []events.Emitter

func (f fanoutEmitter) Emit(evt events.Event) {
	for _, sink := range f {
		if sink != nil {
			sink.Emit(evt)
		}
	}
}

// sqliteEmitter copies emitted events into the audit database so they survive
// process restarts, unlike the in-memory recorder ring.
type sqliteEmitter struct {
	store  *SQLiteStore
	logger *slog.Logger
}

func newSQLiteEmitter(store *SQLiteStore, logger *slog.Logger) *sqliteEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &sqliteEmitter{store: store, logger: logger.With(slog.String("component", "events"))}
}

func (e *sqliteEmitter) Emit(evt events.Event) {
	if e == nil || e.store == nil || evt == nil {
		return
	}
	var attrs map[string]string
	if payload, ok := evt.(events.PayloadEvent); ok {
		attrs = payload.Payload()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.store.InsertMarketEvent(ctx, evt.EventType(), attrs); err != nil {
		e.logger.Warn("event persistence failed",
			slog.String("error", err.Error()))
	}
}
