package recommend

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/assessment-recommender/internal/duration"
	"github.com/spigell/assessment-recommender/internal/logger"
)

// augment resolves the duration of every recommendation in place. Lookups run
// on a bounded pool and each result is written to its own index, so the
// ranking order is kept whatever order the lookups finish in.
func (s *Service) augment(ctx context.Context, recs []Recommendation) {
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)

	for i := range recs {
		g.Go(func() error {
			if err := s.limiter.Wait(ctx); err != nil {
				s.logger.Debug("duration lookup skipped",
					zap.String(logger.FieldURL, recs[i].URL),
					zap.Error(err),
				)
				recs[i].Duration = duration.Unknown
				return nil
			}

			recs[i].Duration = s.deps.Durations.Resolve(ctx, recs[i].URL)
			return nil
		})
	}

	_ = g.Wait()
}
