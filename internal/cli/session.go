package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/inventory/internal/app"
	"github.com/vyrodovalexey/inventory/internal/inventory"
	"github.com/vyrodovalexey/inventory/internal/model"
)

// readTimeout bounds how long a command waits for the first snapshot of a
// live view.
const readTimeout = 5 * time.Second

var (
	errNoAnswer   = errors.New("store did not answer")
	errViewClosed = errors.New("store closed")
)

// session is one command's handle on the inventory.
type session struct {
	app    *app.App
	ctrl   *inventory.Controller
	logger *zap.Logger
}

func openSession(ctx context.Context, opts *RootOptions, stderr io.Writer) (*session, error) {
	logger := newLogger(opts.Verbose, stderr)

	a := app.New(opts.StoreOptions(), logger)
	ctrl, err := a.Controller(ctx)
	if err != nil {
		_ = a.Close()
		return nil, storeError("open store", err)
	}

	return &session{app: a, ctrl: ctrl, logger: logger}, nil
}

// withSession opens a session for cmd, runs fn and closes the session. A
// failed close is the command's error unless fn already failed.
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(s *session) error) (err error) {
	s, err := openSession(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(s)
}

// close flushes queued writes and releases the store. It runs after the
// command's context may already be cancelled, so it keeps its own deadline.
func (s *session) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()

	var errs []error
	if err := s.ctrl.Sync(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.app.Close(); err != nil {
		errs = append(errs, err)
	}
	_ = s.logger.Sync()

	if err := errors.Join(errs...); err != nil {
		return storeError("close store", err)
	}
	return nil
}

// flush waits until queued writes have reached the store.
func (s *session) flush(ctx context.Context) error {
	if err := s.ctrl.Sync(ctx); err != nil {
		return storeError("write", err)
	}
	return nil
}

// items reads the current item list.
func (s *session) items(ctx context.Context) ([]model.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	items, err := first(ctx, s.ctrl.AllItems(ctx))
	if err != nil {
		return nil, storeError("list items", err)
	}
	return items, nil
}

// item reads the item whose ID is given as text.
func (s *session) item(ctx context.Context, rawID string) (model.Item, error) {
	id, err := parseID(rawID)
	if err != nil {
		return model.Item{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	item, err := first(ctx, s.ctrl.RetrieveItem(ctx, id))
	if err != nil {
		return model.Item{}, storeError("get item", err)
	}
	if item == nil {
		return model.Item{}, userError(fmt.Sprintf("item %d not found", id), nil)
	}
	return *item, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, userError(fmt.Sprintf("invalid item ID %q", raw), nil)
	}
	return id, nil
}

// first returns the first value of a live view.
func first[T any](ctx context.Context, ch <-chan T) (T, error) {
	var zero T
	select {
	case v, ok := <-ch:
		if !ok {
			return zero, errViewClosed
		}
		return v, nil
	case <-ctx.Done():
		return zero, errNoAnswer
	}
}

// newLogger writes human-readable logs to w. Only warnings and errors are
// shown unless verbose is set.
func newLogger(verbose bool, w io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core)
}
