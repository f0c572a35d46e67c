// Package worker executes the CPU-bound bibliography parse off the
// calling goroutine, one request at a time.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/matsen/bibnote/internal/bib"
)

// ErrChannelBlocked is returned by Post while a previous request is
// still in flight. Callers treat it as "a load is already in progress",
// not as a failure.
var ErrChannelBlocked = errors.New("parse channel blocked: request already in flight")

// Request is one parse request for an entire raw export.
type Request struct {
	Raw    string
	Format bib.Format
}

// Result is the outcome of one parse request.
type Result struct {
	Records []bib.RawRecord
	Err     error
}

// ParseFunc is the parse implementation. Replaceable for tests.
type ParseFunc func(raw string, format bib.Format) ([]bib.RawRecord, error)

// Option configures a Channel.
type Option func(*Channel)

// WithParseFunc overrides the parse implementation.
func WithParseFunc(fn ParseFunc) Option {
	return func(c *Channel) {
		c.parse = fn
	}
}

// WithLogger sets the channel's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Channel) {
		c.logger = logger
	}
}

// Channel is a single-flight request/response pipe. While one request
// is outstanding, further Post calls are rejected rather than queued.
// An in-flight parse is never cancelled; its result is still delivered
// on the channel returned by the Post that started it.
type Channel struct {
	mu     sync.Mutex
	busy   bool
	parse  ParseFunc
	logger *zap.Logger
}

// NewChannel creates a parse channel using bib.Parse by default.
func NewChannel(opts ...Option) *Channel {
	c := &Channel{
		parse:  bib.Parse,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Busy reports whether a request is currently in flight.
func (c *Channel) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Post submits a parse request. It returns ErrChannelBlocked if a
// request is already in flight, otherwise a buffered channel that will
// receive exactly one Result. The context only gates admission; it does
// not cancel a running parse.
func (c *Channel) Post(ctx context.Context, req Request) (<-chan Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrChannelBlocked
	}
	c.busy = true
	c.mu.Unlock()

	out := make(chan Result, 1)
	go c.run(req, out)
	return out, nil
}

func (c *Channel) run(req Request, out chan<- Result) {
	defer func() {
		if r := recover(); r != nil {
			out <- Result{Err: fmt.Errorf("parse panicked: %v", r)}
		}
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	records, err := c.parse(req.Raw, req.Format)
	if err != nil {
		c.logger.Debug("parse failed",
			zap.String("format", string(req.Format)),
			zap.Error(err))
		out <- Result{Err: err}
		return
	}

	c.logger.Debug("parse complete",
		zap.String("format", string(req.Format)),
		zap.Int("records", len(records)))
	out <- Result{Records: records}
}
