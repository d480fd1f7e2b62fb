package storyboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"storyboard/internal/credentials"
	"storyboard/internal/gemini"
	"storyboard/internal/metrics"
	"storyboard/internal/shot"
)

type TextModel interface {
	GenerateShotList(ctx context.Context, script string) (string, error)
}

type ImageModel interface {
	GenerateImage(ctx context.Context, prompt string) (*gemini.Image, error)
}

// State is a point-in-time copy of the board.
type State struct {
	ListID    string              `json:"listId"`
	Analyzing bool                `json:"analyzing"`
	Sweeping  bool                `json:"sweeping"`
	Error     string              `json:"error,omitempty"`
	Shots     []shot.RenderedShot `json:"shots"`
}

// Board owns the current shot list and runs analysis and renders against
// it. The lock guards the list value and the flags only and is never held
// while a model request is in flight.
type Board struct {
	text     TextModel
	images   ImageModel
	selector credentials.Selector
	metrics  *metrics.Metrics

	mu        sync.Mutex
	list      shot.List
	analyzing bool
	sweeping  bool
	err       string
}

type Option func(*Board)

// WithSelector sets the selector opened when a render fails because the
// model could not be reached with the current key.
func WithSelector(s credentials.Selector) Option {
	return func(b *Board) { b.selector = s }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Board) { b.metrics = m }
}

func New(text TextModel, images ImageModel, opts ...Option) *Board {
	b := &Board{
		text:   text,
		images: images,
		list:   shot.NewList(nil),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.metrics == nil {
		b.metrics = metrics.New()
	}
	return b
}

func (b *Board) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return State{
		ListID:    b.list.ID(),
		Analyzing: b.analyzing,
		Sweeping:  b.sweeping,
		Error:     b.err,
		Shots:     b.list.Shots(),
	}
}

// Shot returns a copy of the shot at index.
func (b *Board) Shot(index int) (shot.RenderedShot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= b.list.Len() {
		return shot.RenderedShot{}, fmt.Errorf("%w: %d", ErrShotIndex, index)
	}
	return b.list.At(index), nil
}

// Analyze replaces the shot list with the breakdown of script. A blank
// script does nothing. The list is emptied before the request and stays
// empty when the analysis fails.
func (b *Board) Analyze(ctx context.Context, script string) error {
	if strings.TrimSpace(script) == "" {
		return nil
	}

	b.mu.Lock()
	if b.analyzing {
		b.mu.Unlock()
		return ErrAnalysisInProgress
	}
	b.analyzing = true
	b.err = ""
	b.list = shot.NewList(nil)
	b.mu.Unlock()

	slog.Info("Analyzing script", "chars", len(script))
	start := time.Now()

	shots, err := b.requestShots(ctx, script)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.analyzing = false

	if err != nil {
		aerr := &ScriptAnalysisError{Err: err}
		b.err = aerr.Error()
		b.metrics.AnalysisFinished(metrics.OutcomeFailure)
		slog.Warn("Script analysis failed", "error", err, "duration", time.Since(start))
		return aerr
	}

	b.list = shot.NewList(shots)
	b.metrics.AnalysisFinished(metrics.OutcomeSuccess)
	slog.Info("Shot list ready", "shots", len(shots), "duration", time.Since(start))
	return nil
}

func (b *Board) requestShots(ctx context.Context, script string) ([]shot.Shot, error) {
	content, err := b.text.GenerateShotList(ctx, script)
	if err != nil {
		return nil, err
	}
	return parseShots(content)
}

// Render generates the still for the shot at index. It is a no-op while
// that shot is already generating. Calling it again after a failure is the
// retry.
func (b *Board) Render(ctx context.Context, index int) error {
	return b.render(ctx, index, "")
}

// render with a non-empty sweepID only touches a still-pending shot of that
// list.
func (b *Board) render(ctx context.Context, index int, sweepID string) error {
	b.mu.Lock()
	if sweepID != "" && b.list.ID() != sweepID {
		b.mu.Unlock()
		return ErrListReplaced
	}
	if index < 0 || index >= b.list.Len() {
		b.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrShotIndex, index)
	}
	rs := b.list.At(index)
	if rs.IsGenerating || (sweepID != "" && !rs.Pending()) {
		b.mu.Unlock()
		return nil
	}
	listID := b.list.ID()
	b.list = b.list.With(index, rs.Started())
	b.mu.Unlock()

	log := slog.With("index", index, "shot", rs.ShotNumber)
	log.Info("Rendering shot")
	start := time.Now()

	img, err := b.images.GenerateImage(ctx, rs.ImagePrompt)
	took := time.Since(start)

	// A discarded result never opens the key dialog.
	if IsEntityNotFound(err) && b.currentList(listID) {
		b.reselectCredential(ctx)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.list.ID() != listID {
		b.metrics.RenderFinished(metrics.OutcomeDiscarded, took)
		log.Info("Discarding render for replaced shot list", "duration", took)
		return ErrListReplaced
	}

	cur := b.list.At(index)
	if err != nil {
		b.list = b.list.With(index, cur.Failed(err.Error()))
		b.metrics.RenderFinished(metrics.OutcomeFailure, took)
		log.Warn("Render failed", "error", err, "duration", took)
		return &RenderError{Index: index, ShotNumber: rs.ShotNumber, Err: err}
	}

	b.list = b.list.With(index, cur.Succeeded(shot.PNGDataURL(img.Data)))
	b.metrics.RenderFinished(metrics.OutcomeSuccess, took)
	log.Info("Shot rendered", "bytes", len(img.Data), "duration", took)
	return nil
}

func (b *Board) currentList(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.list.ID() == id
}

func (b *Board) reselectCredential(ctx context.Context) {
	if b.selector == nil {
		return
	}
	b.metrics.CredentialReselected()
	slog.Info("Image model rejected the API key, opening key selection")
	if err := b.selector.Select(ctx); err != nil {
		slog.Warn("Key selection failed", "error", err)
	}
}

// RenderAll renders every shot that has no image and is not generating,
// one at a time in list order. Failed shots do not stop the sweep. It stops
// when the list is replaced or ctx is done.
func (b *Board) RenderAll(ctx context.Context) error {
	listID, n, err := b.beginSweep()
	if err != nil {
		return err
	}
	return b.sweep(ctx, listID, n)
}

// StartRenderAll claims the sweep and runs it in the background. The
// returned channel yields the sweep's result once it ends.
func (b *Board) StartRenderAll(ctx context.Context) (<-chan error, error) {
	listID, n, err := b.beginSweep()
	if err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() { done <- b.sweep(ctx, listID, n) }()
	return done, nil
}

func (b *Board) beginSweep() (string, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sweeping {
		return "", 0, ErrSweepInProgress
	}
	b.sweeping = true
	return b.list.ID(), b.list.Len(), nil
}

func (b *Board) sweep(ctx context.Context, listID string, n int) error {
	defer func() {
		b.mu.Lock()
		b.sweeping = false
		b.mu.Unlock()
	}()

	slog.Info("Rendering all shots", "shots", n)
	failed := 0
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := b.render(ctx, i, listID)
		var rerr *RenderError
		switch {
		case err == nil:
		case errors.As(err, &rerr):
			failed++
		case errors.Is(err, ErrListReplaced):
			slog.Info("Shot list replaced, stopping sweep", "at", i)
			return err
		default:
			return err
		}
	}

	slog.Info("Render sweep finished", "shots", n, "failed", failed)
	return nil
}
