// Package runner interprets effect descriptors outside the derivation core.
//
// deriver and memo only describe effects. A Runner hands them to a handler
// on a fixed pool of worker goroutines, routing each effect by the xxhash of
// its PartitionKey so that effects sharing a key keep their order.
//
// Usage:
//
//	r, err := runner.New(ctx, runner.NewConfig(16, 4), handle)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	m, effects := m.SetState(next)
//	err = r.Run(ctx, effects...)
package runner

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrClosedRunner = errors.New("runner is closed")

type settings struct {
	logger   *zap.Logger
	teardown func()
}

// Option configures a Runner.
type Option func(*settings)

// WithLogger sets the logger for lifecycle and panic logs. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTeardown registers a function called once by Close, after every worker stopped.
func WithTeardown(teardown func()) Option {
	return func(s *settings) {
		if teardown != nil {
			s.teardown = teardown
		}
	}
}

// Runner dispatches effects of type T to a handler on NumWorkers goroutines.
// It is safe for concurrent use.
type Runner[T Partitionable] struct {
	ID string

	effectChs []chan T
	handleFn  func(context.Context, T)
	logger    *zap.Logger
	teardown  func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	closed   bool
	shutdown sync.Once
}

// New starts the workers of a Runner. The Runner closes itself when ctx is
// done, as if Close had been called.
func New[T Partitionable](
	ctx context.Context,
	config Config,
	handleFn func(context.Context, T),
	opts ...Option,
) (*Runner[T], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := settings{logger: zap.NewNop(), teardown: func() {}}
	for _, opt := range opts {
		opt(&s)
	}

	ctx, cancel := context.WithCancel(ctx)
	r := &Runner[T]{
		ID:        uuid.New().String(),
		effectChs: make([]chan T, config.NumWorkers),
		handleFn:  handleFn,
		logger:    s.logger,
		teardown:  s.teardown,
		ctx:       ctx,
		cancel:    cancel,
	}

	for i := range r.effectChs {
		ch := make(chan T, config.BufferSize)
		r.effectChs[i] = ch
		r.wg.Add(1)
		go r.work(ch)
	}
	go r.closeOnDone()

	r.logger.Sugar().Debugf("created runner: runnerId: %v, workers: %v", r.ID, config.NumWorkers)
	return r, nil
}

// work drains ch until it is closed, so every accepted effect is handled.
func (r *Runner[T]) work(ch <-chan T) {
	defer r.wg.Done()
	for effect := range ch {
		r.handle(effect)
	}
}

func (r *Runner[T]) closeOnDone() {
	<-r.ctx.Done()
	r.Close()
}

func (r *Runner[T]) handle(effect T) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("effect handler panicked",
				zap.String("runnerId", r.ID),
				zap.String("partitionKey", effect.PartitionKey()),
				zap.Any("panic", rec),
			)
		}
	}()
	r.handleFn(r.ctx, effect)
}

// Run enqueues effects in order. It blocks while the target worker queue is
// full, and stops early when ctx is done or the Runner is closed.
//
// A nil error means every effect was accepted and will be handled, even if
// the Runner is closed right after.
func (r *Runner[T]) Run(ctx context.Context, effects ...T) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, effect := range effects {
		if r.closed || r.ctx.Err() != nil {
			return ErrClosedRunner
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.ctx.Done():
			return ErrClosedRunner
		case r.effectChs[indexOf(effect.PartitionKey(), len(r.effectChs))] <- effect:
		}
	}
	return nil
}

// Close stops accepting effects, lets the workers drain what was already
// enqueued, then runs the teardown. Concurrent and repeated calls wait for
// the first one to finish.
//
// Effects drained after the parent context is done are handled with that
// cancelled context.
func (r *Runner[T]) Close() {
	r.shutdown.Do(func() {
		r.mu.Lock()
		r.closed = true
		for _, ch := range r.effectChs {
			close(ch)
		}
		r.mu.Unlock()

		r.wg.Wait()
		r.cancel()
		r.teardown()
		r.logger.Sugar().Debugf("closed runner: runnerId: %v", r.ID)
	})
}
