package analyzer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Bahjat/phishguard/backend/internal/model"
	"github.com/Bahjat/phishguard/backend/internal/pipeline"
	"github.com/Bahjat/phishguard/backend/internal/platform/errs"
	"github.com/Bahjat/phishguard/backend/internal/platform/requestid"
	"github.com/Bahjat/phishguard/backend/internal/stats"
)

// Service orchestrates an AnalysisProvider, logs results and keeps the
// session statistics.
type Service struct {
	provider    AnalysisProvider
	session     *stats.Session
	concurrency int
	logger      *slog.Logger
}

// NewService creates a Service backed by the given provider. Batches run at
// most batchConcurrency analyses at once.
func NewService(provider AnalysisProvider, session *stats.Session, batchConcurrency int, logger *slog.Logger) *Service {
	return &Service{
		provider:    provider,
		session:     session,
		concurrency: batchConcurrency,
		logger:      logger,
	}
}

// Analyze delegates to the provider, logs the outcome and counts the verdict.
func (s *Service) Analyze(ctx context.Context, rawURL string) (*model.AnalysisResult, error) {
	logger := s.logger.With("url", rawURL, "request_id", requestid.FromContext(ctx))

	result, err := s.provider.Analyze(ctx, rawURL)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && errs.KindOf(err) != errs.InvalidInput {
			err = &errs.AppError{
				Kind:    errs.Timeout,
				Message: "Analysis timed out. The target URL may be slow to respond.",
				Cause:   err,
			}
		}

		if errs.KindOf(err) == errs.InvalidInput {
			logger.Info("analysis rejected", "error", err)
		} else {
			logger.Error("analysis failed", "error", err, "kind", errs.KindOf(err).String())
		}
		return nil, err
	}

	s.session.Record(result.IsPhishing, result.Confidence)

	logger.Info("analysis complete",
		"is_phishing", result.IsPhishing,
		"confidence", result.Confidence,
		"risk_level", result.RiskLevel,
		"final_url", result.NetworkInfo.FinalURL,
		"redirects", len(result.NetworkInfo.RedirectChain),
		"analysis_time_ms", result.AnalysisTimeMs,
	)
	return result, nil
}

// AnalyzeBatch analyzes urls concurrently and returns one outcome per URL in
// input order. Each URL is logged and counted as if submitted alone.
func (s *Service) AnalyzeBatch(ctx context.Context, urls []string) []pipeline.Outcome {
	s.logger.Info("batch started", "size", len(urls), "request_id", requestid.FromContext(ctx))
	return pipeline.NewBatch(s, s.concurrency).Run(ctx, urls)
}

// Stats returns the session statistics.
func (s *Service) Stats() model.SessionStats {
	return s.session.Snapshot()
}

// ModelLoaded reports whether the provider has a classifier.
func (s *Service) ModelLoaded() bool {
	return s.provider.Ready()
}
