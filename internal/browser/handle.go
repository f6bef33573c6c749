package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Handle owns one lazily launched browser. The browser starts on the first Get
// and is released by Close. A failed launch is remembered so later calls fail fast.
type Handle struct {
	mu      sync.Mutex
	opts    *Options
	logger  *slog.Logger
	launch  func(*Options, *slog.Logger) (*Browser, error)
	browser *Browser
	err     error
	closed  bool
}

func NewHandle(opts *Options, logger *slog.Logger) *Handle {
	return &Handle{
		opts:   opts,
		logger: logger,
		launch: New,
	}
}

func (h *Handle) Get(ctx context.Context) (*Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, fmt.Errorf("%w: handle closed", ErrUnavailable)
	}
	if h.browser != nil {
		return h.browser, nil
	}
	if h.err != nil {
		return nil, h.err
	}

	h.logger.Info("launching browser")
	b, err := h.launch(h.opts, h.logger)
	if err != nil {
		h.err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		h.logger.Error("browser launch failed", "error", err)
		return nil, h.err
	}

	h.browser = b
	return b, nil
}

// Started reports whether the browser has been launched.
func (h *Handle) Started() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.browser != nil
}

func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	if h.browser == nil {
		return nil
	}

	err := h.browser.Close()
	h.browser = nil
	return err
}
