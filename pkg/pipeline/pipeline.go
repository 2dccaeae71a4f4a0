package pipeline

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"mitenedl/internal/downloader"
	"mitenedl/pkg/album"
	"mitenedl/pkg/config"
	apperrors "mitenedl/pkg/errors"
	"mitenedl/pkg/logger"
	"mitenedl/pkg/ratelimit"
	"mitenedl/pkg/storage"
	"mitenedl/pkg/ui"
)

// Pipeline orchestrates one album download run: enumerate every item,
// then fan the downloads out to a bounded worker pool.
type Pipeline struct {
	session     *album.Session
	store       *storage.Manager
	rateLimiter ratelimit.Limiter
	tracker     *ui.StatusTracker
	config      *config.Config
	logger      logger.Logger
}

// New creates a Pipeline from a validated configuration
func New(cfg *config.Config) (*Pipeline, error) {
	log := logger.GetLogger()

	session, err := album.NewSession(cfg.Album.URL, cfg.Album.Password, cfg.Download.DownloadTimeout, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create album session: %w", err)
	}

	store, err := storage.NewManager(cfg.Output.Directory)
	if err != nil {
		log.WithError(err).WithField("output_dir", cfg.Output.Directory).Error("failed to create storage manager")
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	return &Pipeline{
		session:     session,
		store:       store,
		rateLimiter: ratelimit.ForRequestsPerMinute(cfg.RateLimit.RequestsPerMinute),
		tracker:     ui.NewStatusTracker(),
		config:      cfg,
		logger:      log,
	}, nil
}

// Tracker exposes the run's counters
func (p *Pipeline) Tracker() *ui.StatusTracker {
	return p.tracker
}

// Run performs the full download. Enumeration and authentication errors
// abort the run; individual item failures are reported, counted, and do
// not stop the remaining items.
func (p *Pipeline) Run() error {
	p.logger.InfoWithFields("starting album download", map[string]interface{}{
		"album":      p.session.AlbumURL(),
		"output_dir": p.store.OutputDir(),
		"workers":    p.config.Download.ConcurrentDownloads,
	})

	// Leftover partial files from an interrupted run are garbage; the
	// media they belonged to will be downloaded again.
	swept, err := p.store.SweepTemp()
	if err != nil {
		p.logger.WithError(err).Warn("failed to sweep partial files")
		ui.PrintWarning("Could not clean up partial files: %v", err)
	} else if swept > 0 {
		p.logger.InfoWithFields("removed partial files from a previous run", map[string]interface{}{
			"count": swept,
		})
	}

	items, err := p.session.AllItems()
	if err != nil {
		p.logger.WithError(err).Error("album enumeration failed")
		return err
	}

	if len(items) == 0 {
		ui.PrintInfo("Album", "no media to download")
		return nil
	}

	ui.PrintInfo("Media files", fmt.Sprintf("%d", len(items)))

	pool := downloader.NewWorkerPool(
		p.config.Download.ConcurrentDownloads,
		downloader.NewFetcher(p.session, p.store, p.config.Download.Verbose, p.logger),
		p.rateLimiter,
		p.logger,
	)
	pool.Start()

	var g errgroup.Group
	g.Go(func() error {
		p.collectResults(pool.Results())
		return nil
	})

	for _, item := range items {
		if err := pool.Submit(downloader.Job{Item: item}); err != nil {
			// Submit only fails when the pool is shutting down
			p.logger.WithError(err).WithField("uuid", item.UUID).Error("failed to queue item")
			p.tracker.IncrementFailed()
		}
	}

	pool.Stop()
	_ = g.Wait()

	p.tracker.PrintSummary()

	downloaded, skipped, failed := p.tracker.Counts()
	p.logger.InfoWithFields("album download finished", map[string]interface{}{
		"downloaded": downloaded,
		"skipped":    skipped,
		"failed":     failed,
	})

	if failed > 0 {
		return apperrors.New(apperrors.ErrorTypeTransport,
			"%d of %d items failed to download", failed, len(items))
	}
	return nil
}

// collectResults drains the pool's result channel, updating counters and
// reporting per-item failures as they happen.
func (p *Pipeline) collectResults(results <-chan downloader.Result) {
	for result := range results {
		switch {
		case !result.Success:
			p.tracker.IncrementFailed()
			ui.PrintError("Failed %s: %v", result.Job.Item.UUID, result.Error)
		case result.Skipped:
			p.tracker.IncrementSkipped()
		default:
			p.tracker.IncrementDownloaded()
		}
	}
}
