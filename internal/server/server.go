// Package server exposes the recommender over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/recommend"
)

const (
	requestIDHeader = "X-Request-ID"
	maxRequestBytes = 1 << 20
	shutdownTimeout = 15 * time.Second

	msgInputRequired     = "Job description or URL is required"
	msgNoRecommendations = "No recommendations found"
)

// Recommender is satisfied by recommend.Service.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Result, error)
}

type recommendRequest struct {
	JobDescription string `mapstructure:"job_description"`
	JobURL         string `mapstructure:"job_url"`
	TopN           int    `mapstructure:"top_n"`
}

// Assessment is one entry of the recommendation response.
type Assessment struct {
	URL             string   `json:"url"`
	AdaptiveSupport string   `json:"adaptive_support"`
	Description     string   `json:"description"`
	Duration        int      `json:"duration"`
	RemoteSupport   string   `json:"remote_support"`
	TestType        []string `json:"test_type"`
	Name            string   `json:"name"`
	Similarity      float64  `json:"similarity"`
}

type recommendResponse struct {
	RecommendedAssessments []Assessment `json:"recommended_assessments"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	recommender Recommender
	logger      *zap.Logger
	mux         *http.ServeMux
}

func New(recommender Recommender, log *zap.Logger) *Handler {
	h := &Handler{
		recommender: recommender,
		logger:      logger.OrNop(log),
		mux:         http.NewServeMux(),
	}

	h.mux.HandleFunc("GET /{$}", h.health)
	h.mux.HandleFunc("POST /recommend", h.recommend)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, id)

	start := time.Now()
	h.mux.ServeHTTP(w, r)

	h.logger.Debug("request served",
		zap.String("request_id", id),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Duration("took", time.Since(start)),
	)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) recommend(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if strings.TrimSpace(req.JobDescription) == "" && strings.TrimSpace(req.JobURL) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInputRequired})
		return
	}

	result, err := h.recommender.Recommend(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		h.logger.Warn("recommendation failed",
			zap.String("request_id", w.Header().Get(requestIDHeader)),
			zap.Int("status", status),
			zap.Error(err),
		)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	if len(result.Recommendations) == 0 {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: msgNoRecommendations})
		return
	}

	resp := recommendResponse{RecommendedAssessments: make([]Assessment, 0, len(result.Recommendations))}
	for _, rec := range result.Recommendations {
		resp.RecommendedAssessments = append(resp.RecommendedAssessments, toAssessment(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeRequest accepts loosely typed JSON, e.g. top_n given as a string.
func decodeRequest(w http.ResponseWriter, r *http.Request) (recommend.Request, error) {
	var raw map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&raw); err != nil {
		return recommend.Request{}, fmt.Errorf("invalid JSON body: %w", err)
	}

	var req recommendRequest
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &req,
	})
	if err != nil {
		return recommend.Request{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return recommend.Request{}, fmt.Errorf("invalid request: %w", err)
	}

	return recommend.Request{
		JobDescription: req.JobDescription,
		JobURL:         req.JobURL,
		TopN:           req.TopN,
	}, nil
}

func statusFor(err error) int {
	switch recommend.KindOf(err) {
	case recommend.KindInput:
		return http.StatusBadRequest
	case recommend.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func toAssessment(rec recommend.Recommendation) Assessment {
	types := rec.TestTypes
	if types == nil {
		types = []string{}
	}

	return Assessment{
		URL:             rec.URL,
		AdaptiveSupport: yesNo(rec.AdaptiveSupport),
		Description:     rec.Description,
		Duration:        rec.Duration.Minutes,
		RemoteSupport:   yesNo(rec.RemoteSupport),
		TestType:        types,
		Name:            rec.Name,
		Similarity:      rec.Similarity,
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	log = logger.OrNop(log)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
