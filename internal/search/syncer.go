package search

import (
	"context"
	"time"

	"github.com/tranbinhminh1403/back-end-thesis/internal/logger"
)

// Syncer keeps the index in step with the catalog.
type Syncer struct {
	index  *Index
	source Source
	log    *logger.Logger
}

func NewSyncer(index *Index, source Source, log *logger.Logger) *Syncer {
	if log == nil {
		log = logger.Discard()
	}
	return &Syncer{index: index, source: source, log: log}
}

// Run rebuilds the index once right away and then on every tick. It blocks
// until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("index sync: started, interval %v", interval)
	s.sync(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("index sync: stopping")
			return
		case <-ticker.C:
			s.sync(ctx)
		}
	}
}

func (s *Syncer) sync(ctx context.Context) {
	if !s.index.Healthy() {
		s.log.Warn("index sync: meilisearch not healthy, skipping")
		return
	}
	if _, err := s.index.Rebuild(ctx, s.source); err != nil && ctx.Err() == nil {
		s.log.Error("index sync: %v", err)
	}
}
