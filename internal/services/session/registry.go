package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/image-cropper/internal/services/processor"
	"go.uber.org/zap"
)

const (
	DefaultTTL         = 15 * time.Minute
	DefaultMaxSessions = 100
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrTooManySessions = errors.New("too many open sessions")
)

// Registry keeps the open sessions of this process in memory. Sessions are
// never persisted; abandoned ones are cancelled after the idle TTL.
type Registry struct {
	processor   *processor.ImageProcessor
	logger      *zap.Logger
	ttl         time.Duration
	maxSessions int

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
}

type Options struct {
	TTL         time.Duration
	MaxSessions int
}

func NewRegistry(p *processor.ImageProcessor, logger *zap.Logger, opts Options) *Registry {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		processor:   p,
		logger:      logger,
		ttl:         opts.TTL,
		maxSessions: opts.MaxSessions,
		ctx:         ctx,
		cancel:      cancel,
		sessions:    make(map[string]*Session),
	}
}

// Create opens a new, empty session. aspectRatio overrides the default crop
// ratio when positive. The callbacks run after the registry has forgotten
// the session.
func (r *Registry) Create(aspectRatio float64, callbacks Callbacks) (*Session, error) {
	p := r.processor
	if aspectRatio > 0 {
		p = p.WithAspectRatio(aspectRatio)
	}
	if err := p.Geometry.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.maxSessions {
		return nil, ErrTooManySessions
	}

	id := uuid.New().String()
	s := New(r.ctx, id, p, Callbacks{
		OnSave: func(out *processor.Output) {
			r.remove(id)
			if callbacks.OnSave != nil {
				callbacks.OnSave(out)
			}
		},
		OnCancel: func() {
			r.remove(id)
			if callbacks.OnCancel != nil {
				callbacks.OnCancel()
			}
		},
	}, r.logger)

	r.sessions[id] = s
	r.logger.Info("Session opened", zap.String("session_id", id), zap.Float64("aspect_ratio", p.Geometry.AspectRatio))
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Reap cancels sessions idle for longer than the TTL and returns how many
// were cancelled.
func (r *Registry) Reap(now time.Time) int {
	r.mu.Lock()
	var idle []*Session
	for _, s := range r.sessions {
		if now.Sub(s.IdleSince()) > r.ttl {
			idle = append(idle, s)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		r.logger.Info("Reaping idle session", zap.String("session_id", s.ID()))
		s.Cancel()
	}
	return len(idle)
}

// Run reaps idle sessions until ctx is done, then cancels the rest.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case now := <-ticker.C:
			r.Reap(now)
		}
	}
}

// Close cancels every open session.
func (r *Registry) Close() {
	r.mu.Lock()
	open := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		open = append(open, s)
	}
	r.mu.Unlock()

	for _, s := range open {
		s.Cancel()
	}
	r.cancel()
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}
