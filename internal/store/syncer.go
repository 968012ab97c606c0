package store

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/persistence"
)

const defaultSaveTimeout = 30 * time.Second

// Syncer writes snapshots to a gateway sequentially, always saving the newest pending one.
type Syncer struct {
	gateway persistence.Gateway
	logger  *log.Logger
	timeout time.Duration

	mu        sync.Mutex
	pending   *models.Document
	version   uint64 // newest enqueued
	attempted uint64 // newest handed to the gateway
	lastErr   error
	closed    bool
	notify    chan struct{}

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

// NewSyncer starts the save worker for gateway.
func NewSyncer(gateway persistence.Gateway, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Syncer{
		gateway: gateway,
		logger:  logger,
		timeout: defaultSaveTimeout,
		notify:  make(chan struct{}),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Enqueue schedules doc for saving and returns its version. It never blocks on I/O.
func (s *Syncer) Enqueue(doc *models.Document) uint64 {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Warn("syncer closed, dropping snapshot", "backend", s.gateway.Name())
		return 0
	}
	s.version++
	s.pending = doc
	v := s.version
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return v
}

// Flush waits until every enqueued version has been attempted.
func (s *Syncer) Flush(ctx context.Context) error {
	s.mu.Lock()
	target := s.version
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if s.attempted >= target {
			s.mu.Unlock()
			return nil
		}
		ch := s.notify
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close flushes pending snapshots and stops the worker.
func (s *Syncer) Close(ctx context.Context) error {
	err := s.Flush(ctx)

	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.quit)
	})

	select {
	case <-s.done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// LastError returns the error of the most recent save, or nil if it succeeded.
func (s *Syncer) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Version returns the newest enqueued and newest attempted versions.
func (s *Syncer) Version() (enqueued, attempted uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version, s.attempted
}

func (s *Syncer) run() {
	defer close(s.done)
	for {
		select {
		case <-s.wake:
			s.drain()
		case <-s.quit:
			s.drain()
			return
		}
	}
}

// drain saves the pending snapshot until none is left.
func (s *Syncer) drain() {
	for {
		s.mu.Lock()
		doc, version := s.pending, s.version
		s.pending = nil
		s.mu.Unlock()

		if doc == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := s.gateway.Save(ctx, doc)
		cancel()

		if err != nil {
			s.logger.Error("failed to save document", "backend", s.gateway.Name(), "version", version, "err", err)
		} else {
			s.logger.Debug("saved document", "backend", s.gateway.Name(), "version", version)
		}

		s.mu.Lock()
		s.attempted = version
		s.lastErr = err
		close(s.notify)
		s.notify = make(chan struct{})
		s.mu.Unlock()
	}
}
