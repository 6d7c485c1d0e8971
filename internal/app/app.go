// Package app holds the process-wide store and controller.
package app

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/inventory/internal/inventory"
	"github.com/vyrodovalexey/inventory/internal/store"
)

// App lazily builds one store and one controller per process and hands the
// same instances to every caller.
type App struct {
	opts   store.Options
	logger *zap.Logger

	storeOnce sync.Once
	store     *store.Observed
	storeErr  error

	ctrlOnce sync.Once
	ctrl     *inventory.Controller
}

// New creates an App for the given store options. Nothing is opened yet.
func New(opts store.Options, logger *zap.Logger) *App {
	return &App{opts: opts, logger: logger}
}

// Store opens the configured store on first use. A failed open is
// remembered and returned to every later caller.
func (a *App) Store(ctx context.Context) (*store.Observed, error) {
	a.storeOnce.Do(func() {
		s, err := store.Open(ctx, a.opts, a.logger)
		if err != nil {
			a.storeErr = err
			return
		}
		a.logger.Info("store opened", zap.String("driver", a.opts.Driver))
		a.store = store.NewObserved(s, a.logger)
	})
	return a.store, a.storeErr
}

// Controller returns the controller built on the shared store.
func (a *App) Controller(ctx context.Context) (*inventory.Controller, error) {
	s, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}

	a.ctrlOnce.Do(func() {
		a.ctrl = inventory.New(s, a.logger)
	})
	return a.ctrl, nil
}

// Close stops the controller and then closes the store.
func (a *App) Close() error {
	var errs []error

	// Mark both as done so nothing is opened after Close.
	a.ctrlOnce.Do(func() {})
	a.storeOnce.Do(func() { a.storeErr = store.ErrClosed })

	if a.ctrl != nil {
		a.ctrl.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
