package output

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"golang.org/x/term"
)

// IsTTY reports whether stdout is an interactive terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// SpinnerOption configures a spinner.
type SpinnerOption func(*spinnerConfig)

type spinnerConfig struct {
	title   string
	timeout time.Duration
}

// WithTitle sets the spinner title.
func WithTitle(title string) SpinnerOption {
	return func(c *spinnerConfig) {
		c.title = title
	}
}

// WithTimeout sets the spinner timeout.
func WithTimeout(timeout time.Duration) SpinnerOption {
	return func(c *spinnerConfig) {
		c.timeout = timeout
	}
}

// RunWithSpinner executes an action with a spinner.
// Returns the action's error if any.
func RunWithSpinner(ctx context.Context, action func() error, opts ...SpinnerOption) error {
	cfg := &spinnerConfig{
		title: "Working...",
	}

	for _, opt := range opts {
		opt(cfg)
	}

	// If not a TTY, just run the action directly
	if !IsTTY() {
		return action()
	}

	actionCtx := ctx
	var cancel context.CancelFunc
	if cfg.timeout > 0 {
		actionCtx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- action()
	}()

	s := spinner.New().Title(cfg.title)

	spinnerErr := s.Action(func() {
		select {
		case <-actionCtx.Done():
			return
		case err := <-errCh:
			errCh <- err
			return
		}
	}).Run()

	if spinnerErr != nil {
		return fmt.Errorf("spinner error: %w", spinnerErr)
	}

	select {
	case err := <-errCh:
		return err
	case <-actionCtx.Done():
		return actionCtx.Err()
	}
}
