package app

import (
	"context"

	"storyboard/internal/credentials"
	"storyboard/internal/export"
	"storyboard/internal/metrics"
	"storyboard/internal/storyboard"
	"storyboard/pkg/config"
)

type Service struct {
	cfg        *config.Config
	keys       *credentials.Store
	selector   credentials.Selector
	pending    *credentials.PendingSelector
	deferred   *credentials.DeferredSelector
	board      *storyboard.Board
	exporter   *export.Exporter
	metrics    *metrics.Metrics
	closeStore func() error
}

type ServiceOptions struct {
	Config   *config.Config
	Keys     *credentials.Store
	Selector credentials.Selector
	Pending  *credentials.PendingSelector
	Deferred *credentials.DeferredSelector
	Board    *storyboard.Board
	Exporter *export.Exporter
	Metrics  *metrics.Metrics

	closeStore func() error
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		cfg:        opts.Config,
		keys:       opts.Keys,
		selector:   opts.Selector,
		pending:    opts.Pending,
		deferred:   opts.Deferred,
		board:      opts.Board,
		exporter:   opts.Exporter,
		metrics:    opts.Metrics,
		closeStore: opts.closeStore,
	}
}

func (s *Service) Config() *config.Config                  { return s.cfg }
func (s *Service) Keys() *credentials.Store                { return s.keys }
func (s *Service) Selector() credentials.Selector          { return s.selector }
func (s *Service) Pending() *credentials.PendingSelector   { return s.pending }
func (s *Service) Deferred() *credentials.DeferredSelector { return s.deferred }
func (s *Service) Board() *storyboard.Board                { return s.board }
func (s *Service) Exporter() *export.Exporter              { return s.exporter }
func (s *Service) Metrics() *metrics.Metrics               { return s.metrics }

// EnsureCredential runs the startup key check.
func (s *Service) EnsureCredential(ctx context.Context) error {
	return credentials.EnsureSelected(ctx, s.selector)
}

// ResolveCredentialRequest opens the key dialog when a render asked for a
// new key while the terminal was busy.
func (s *Service) ResolveCredentialRequest(ctx context.Context) error {
	if s.deferred == nil {
		return nil
	}
	return s.deferred.SelectPending(ctx)
}

// ExportBoard writes the current board to the configured store.
func (s *Service) ExportBoard(ctx context.Context, name string) (*export.Result, error) {
	return s.exporter.Export(ctx, name, s.board.Snapshot().Shots)
}

func (s *Service) Close() error {
	if s.closeStore == nil {
		return nil
	}
	return s.closeStore()
}
