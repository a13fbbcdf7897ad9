// Package recommend turns a job description or job posting URL into a ranked
// list of catalog assessments with resolved durations.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/assessment-recommender/internal/ai"
	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/duration"
	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/metrics"
	"github.com/spigell/assessment-recommender/internal/ranking"
	"github.com/spigell/assessment-recommender/internal/utils"
)

const (
	DefaultTopN       = 10
	MaxConcurrency    = 5
	defaultRatePerSec = 5
	queryLogLength    = 120

	InputKindText = "text"
	InputKindURL  = "url"
)

// Request holds one recommendation query. JobURL takes precedence over
// JobDescription when both are set. TopN of 0 selects the default.
type Request struct {
	JobDescription string
	JobURL         string
	TopN           int
}

// Recommendation is a ranked catalog entry. It is a copy; the catalog is
// never modified.
type Recommendation struct {
	Name            string
	URL             string
	Description     string
	TestTypes       []string
	RemoteSupport   bool
	AdaptiveSupport bool
	Duration        duration.Result
	Similarity      float64
}

// Result of a successful recommendation.
type Result struct {
	// Input is InputKindText or InputKindURL.
	Input           string
	Query           string
	CatalogSize     int
	Recommendations []Recommendation
}

// URLExtractor fetches a job posting and returns its description text.
type URLExtractor interface {
	ExtractURL(ctx context.Context, url string) (string, error)
}

// DurationResolver looks up the completion time of one assessment.
type DurationResolver interface {
	Resolve(ctx context.Context, url string) duration.Result
}

type Config struct {
	DefaultTopN int
	// Concurrency bounds parallel duration lookups. Values above MaxConcurrency are capped.
	Concurrency   int
	RatePerSecond float64
}

type Deps struct {
	Extractor URLExtractor
	Embedder  ai.Embedder
	Catalog   catalog.Source
	Durations DurationResolver
	Logger    *zap.Logger
}

type Service struct {
	cfg     Config
	deps    Deps
	limiter *rate.Limiter
	logger  *zap.Logger
}

func New(cfg Config, deps Deps) (*Service, error) {
	switch {
	case deps.Extractor == nil:
		return nil, errors.New("extractor is required")
	case deps.Embedder == nil:
		return nil, errors.New("embedder is required")
	case deps.Catalog == nil:
		return nil, errors.New("catalog source is required")
	case deps.Durations == nil:
		return nil, errors.New("duration resolver is required")
	}

	if cfg.DefaultTopN <= 0 {
		cfg.DefaultTopN = DefaultTopN
	}
	if cfg.Concurrency <= 0 || cfg.Concurrency > MaxConcurrency {
		cfg.Concurrency = MaxConcurrency
	}

	limit := rate.Inf
	if cfg.RatePerSecond == 0 {
		cfg.RatePerSecond = defaultRatePerSec
	}
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	return &Service{
		cfg:     cfg,
		deps:    deps,
		limiter: rate.NewLimiter(limit, cfg.Concurrency),
		logger:  logger.OrNop(deps.Logger),
	}, nil
}

// Recommend runs extraction (for URL input), embedding, catalog load, ranking
// and duration augmentation in that order. Failures before ranking return an
// *Error; duration lookups that fail leave the duration unknown.
func (s *Service) Recommend(ctx context.Context, req Request) (res *Result, err error) {
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = string(KindOf(err))
		}
		metrics.RecommendRequests.WithLabelValues(outcome).Inc()
	}()

	req.JobDescription = strings.TrimSpace(req.JobDescription)
	req.JobURL = strings.TrimSpace(req.JobURL)

	topN, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	result := &Result{Input: InputKindText, Query: req.JobDescription}

	if req.JobURL != "" {
		if req.JobDescription != "" {
			s.logger.Info("both job description and url supplied, using url",
				zap.String(logger.FieldURL, req.JobURL),
			)
		}
		result.Input = InputKindURL

		err = s.stage(StageExtract, func() error {
			text, err := s.deps.Extractor.ExtractURL(ctx, req.JobURL)
			if err != nil {
				return fail(KindInput, StageExtract, err)
			}
			result.Query = text
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	log := s.logger.With(
		zap.String("input", result.Input),
		zap.String("query", utils.TruncateForLog(result.Query, queryLogLength)),
		zap.Int("top_n", topN),
	)

	var query []float64
	err = s.stage(StageEmbed, func() error {
		vector, err := s.deps.Embedder.Embed(ctx, result.Query)
		if err != nil {
			return fail(KindUpstream, StageEmbed, err)
		}
		if len(vector) == 0 {
			return fail(KindUpstream, StageEmbed, errors.New("empty embedding"))
		}
		query = vector
		return nil
	})
	if err != nil {
		return nil, err
	}

	var cat *catalog.Catalog
	err = s.stage(StageCatalog, func() error {
		loaded, err := s.deps.Catalog.Catalog(ctx)
		if err != nil {
			return fail(KindCatalog, StageCatalog, err)
		}
		if loaded.Len() == 0 {
			return fail(KindCatalog, StageCatalog, catalog.ErrEmptyCatalog)
		}
		cat = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.CatalogSize = cat.Len()

	if dims := len(cat.Entries[0].Embedding); dims != len(query) {
		log.Warn("query and catalog embedding dimensions differ",
			zap.Int("query_dims", len(query)),
			zap.Int("catalog_dims", dims),
		)
	}

	var matches []ranking.Match
	_ = s.stage(StageRank, func() error {
		matches = ranking.Rank(query, cat.Vectors(), topN)
		return nil
	})

	result.Recommendations = make([]Recommendation, len(matches))
	for i, m := range matches {
		result.Recommendations[i] = fromEntry(cat.Entries[m.Index], m.Score)
	}

	_ = s.stage(StageAugment, func() error {
		s.augment(ctx, result.Recommendations)
		return nil
	})

	log.Info("recommendations ready",
		zap.Int("catalog_size", result.CatalogSize),
		zap.Int("results", len(result.Recommendations)),
	)

	return result, nil
}

func (s *Service) validate(req Request) (int, error) {
	if req.JobDescription == "" && req.JobURL == "" {
		return 0, fail(KindInput, StageValidate, errors.New("either job description or job url is required"))
	}
	if req.TopN < 0 {
		return 0, fail(KindInput, StageValidate, fmt.Errorf("top_n must be positive, got %d", req.TopN))
	}
	if req.TopN == 0 {
		return s.cfg.DefaultTopN, nil
	}
	return req.TopN, nil
}

// stage runs fn and records how long it took.
func (s *Service) stage(name Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecommendStageDuration.WithLabelValues(string(name)).Observe(time.Since(start).Seconds())

	if err != nil {
		s.logger.Warn("recommendation stage failed", zap.String("stage", string(name)), zap.Error(err))
	}
	return err
}

func fromEntry(e catalog.Entry, score float64) Recommendation {
	types := make([]string, len(e.TestTypes))
	copy(types, e.TestTypes)

	return Recommendation{
		Name:            e.Name,
		URL:             e.URL,
		Description:     e.Description,
		TestTypes:       types,
		RemoteSupport:   e.RemoteSupport,
		AdaptiveSupport: e.AdaptiveSupport,
		Similarity:      score,
	}
}
