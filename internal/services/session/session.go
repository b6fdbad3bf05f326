package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/phambaophuc/image-cropper/internal/services/processor"
	"go.uber.org/zap"
)

var (
	ErrNotReady = errors.New("session has no image loaded")
	ErrClosed   = errors.New("session is closed")
	// ErrStale marks a decode or save result that arrived after the session
	// moved on; the result has been discarded.
	ErrStale = errors.New("result discarded")
)

// Callbacks are the two ways a session ends.
type Callbacks struct {
	OnSave   func(out *processor.Output)
	OnCancel func()
}

// State is a read-only snapshot of a session.
type State struct {
	ID            string              `json:"id"`
	Ready         bool                `json:"ready"`
	Mode          string              `json:"mode"`
	Transform     processor.Transform `json:"transform"`
	CropWindow    processor.Rect      `json:"crop_window"`
	CoveringScale float64             `json:"covering_scale"`
	ImageWidth    int                 `json:"image_width"`
	ImageHeight   int                 `json:"image_height"`
	Geometry      processor.Geometry  `json:"geometry"`
}

// Session owns the source image, gesture state and preview of one crop.
type Session struct {
	id        string
	processor *processor.ImageProcessor
	callbacks Callbacks
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	generation uint64
	source     image.Image
	controller *processor.GestureController
	state      processor.GestureState
	preview    *image.RGBA
	closed     bool
	lastUsed   time.Time
}

func New(parent context.Context, id string, p *processor.ImageProcessor, callbacks Callbacks, logger *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		id:        id,
		processor: p,
		callbacks: callbacks,
		logger:    logger.With(zap.String("session_id", id)),
		ctx:       ctx,
		cancel:    cancel,
		lastUsed:  time.Now(),
	}
}

func (s *Session) ID() string { return s.id }

// Load decodes r and, if the session is still waiting for this result,
// installs it with the initial covering transform. A failed decode leaves
// the session open so another file can be loaded.
func (s *Session) Load(ctx context.Context, r io.Reader) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.generation++
	gen := s.generation
	s.lastUsed = time.Now()
	s.mu.Unlock()

	ctx, stop := s.bind(ctx)
	defer stop()

	img, err := s.processor.Decoder.Decode(ctx, r)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation {
		s.logger.Debug("Discarding decode result", zap.Uint64("generation", gen))
		return ErrStale
	}
	if err != nil {
		if errors.Is(err, processor.ErrDecode) {
			return err
		}
		return fmt.Errorf("%w: %w", processor.ErrDecode, err)
	}

	bounds := img.Bounds()
	s.source = img
	s.controller = s.processor.Controller(bounds.Dx(), bounds.Dy())
	s.state = s.controller.Initial()
	s.preview = s.processor.Render(s.source, s.state.Transform)

	s.logger.Info("Image loaded",
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()),
		zap.Float64("scale", s.state.Transform.Scale))
	return nil
}

// Dispatch applies ev and redraws the preview when the transform changed.
func (s *Session) Dispatch(ev processor.Event) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usableLocked(); err != nil {
		return State{}, err
	}

	next, changed := s.controller.Apply(s.state, ev)
	s.state = next
	if changed {
		s.preview = s.processor.Render(s.source, s.state.Transform)
	}
	return s.snapshotLocked(), nil
}

// Preview returns the current composition. The caller must not modify it.
func (s *Session) Preview() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usableLocked(); err != nil {
		return nil, err
	}
	return s.preview, nil
}

// State returns a snapshot. Reading state counts as activity for the reaper.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.lastUsed = time.Now()
	}
	return s.snapshotLocked()
}

// Save extracts and encodes the crop. Work happens outside the lock; if the
// session is cancelled before it finishes, the result is discarded and
// OnSave is not called. OnSave runs at most once per session.
func (s *Session) Save(ctx context.Context) (*processor.Output, error) {
	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	src := s.source
	transform := s.state.Transform
	s.mu.Unlock()

	ctx, stop := s.bind(ctx)
	defer stop()

	out, err := s.processor.Crop(ctx, src, transform)
	if err != nil {
		if s.ctx.Err() != nil {
			return nil, ErrStale
		}
		s.logger.Warn("Save failed", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStale
	}
	s.closed = true
	s.release()
	s.mu.Unlock()

	s.cancel()
	s.logger.Info("Crop saved",
		zap.String("format", out.Format),
		zap.Int("bytes", len(out.Data)))

	if fn := s.callbacks.OnSave; fn != nil {
		fn(out)
	}
	return out, nil
}

// Cancel discards all session state. It is a no-op on a closed session.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.release()
	s.mu.Unlock()

	s.cancel()
	s.logger.Info("Crop cancelled")

	if fn := s.callbacks.OnCancel; fn != nil {
		fn()
	}
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// IdleSince reports when the session was last touched.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// bind returns a context cancelled by either ctx or the session.
func (s *Session) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (s *Session) usableLocked() error {
	if s.closed {
		return ErrClosed
	}
	s.lastUsed = time.Now()
	if s.source == nil {
		return ErrNotReady
	}
	return nil
}

func (s *Session) release() {
	s.source = nil
	s.controller = nil
	s.preview = nil
	s.state = processor.GestureState{}
}

func (s *Session) snapshotLocked() State {
	st := State{
		ID:         s.id,
		Ready:      s.source != nil && !s.closed,
		Mode:       s.state.Mode().String(),
		Transform:  s.state.Transform,
		CropWindow: s.processor.Geometry.CropWindow(),
		Geometry:   s.processor.Geometry,
	}
	if s.source != nil {
		b := s.source.Bounds()
		st.ImageWidth = b.Dx()
		st.ImageHeight = b.Dy()
		st.CoveringScale = s.processor.Geometry.CoveringScale(b.Dx(), b.Dy())
	}
	return st
}
