package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/do"
)

// stateKey is the context key for the per-process command state.
type stateKey struct{}

// appState carries the injector built in PersistentPreRunE back to main,
// which shuts it down after the command returns, whether or not it failed.
type appState struct {
	injector *do.Injector
}

func withState(ctx context.Context, state *appState) context.Context {
	return context.WithValue(ctx, stateKey{}, state)
}

// stateFromContext returns nil when ctx carries no state.
func stateFromContext(ctx context.Context) *appState {
	state, _ := ctx.Value(stateKey{}).(*appState)
	return state
}

// injectorFromContext retrieves the injector set up for the running command.
func injectorFromContext(ctx context.Context) (*do.Injector, error) {
	state := stateFromContext(ctx)
	if state == nil || state.injector == nil {
		return nil, errors.New("injector not found in context")
	}
	return state.injector, nil
}

func (s *appState) shutdown() {
	if s == nil || s.injector == nil {
		return
	}
	if err := s.injector.Shutdown(); err != nil {
		slog.Error("shutdown", "err", err)
	}
}
