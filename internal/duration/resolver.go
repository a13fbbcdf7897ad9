// Package duration resolves assessment completion times from catalog detail
// pages, falling back from a static fetch to a rendered one.
package duration

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/metrics"
)

// Result of a lookup. Source names the tier that produced the value and is
// empty when the duration is unknown.
type Result struct {
	Minutes int
	Source  string
}

func (r Result) Known() bool {
	return r.Source != ""
}

// Unknown is returned when no tier yields a duration.
var Unknown = Result{}

type Resolver struct {
	sources []Source
	logger  *zap.Logger
}

// NewResolver builds a resolver trying sources in the given order.
func NewResolver(log *zap.Logger, sources ...Source) *Resolver {
	return &Resolver{sources: sources, logger: logger.OrNop(log)}
}

// Resolve walks the sources in order and returns the first parsed duration.
// Failures are logged and never returned.
func (r *Resolver) Resolve(ctx context.Context, url string) Result {
	for _, source := range r.sources {
		if ctx.Err() != nil {
			break
		}

		tier := source.Name()
		log := r.logger.With(logger.PageFields(url, tier)...)

		html, err := source.Fetch(ctx, url)
		if err != nil {
			log.Debug("duration fetch failed", zap.Error(err))
			metrics.DurationLookups.WithLabelValues(tier, "error").Inc()
			continue
		}

		minutes, ok := Parse(html)
		if !ok {
			log.Debug("duration not found on page")
			metrics.DurationLookups.WithLabelValues(tier, "miss").Inc()
			continue
		}

		log.Debug("duration found", zap.Int("minutes", minutes))
		metrics.DurationLookups.WithLabelValues(tier, "hit").Inc()
		return Result{Minutes: minutes, Source: tier}
	}

	r.logger.Debug("duration unknown", zap.String(logger.FieldURL, url))
	return Unknown
}
