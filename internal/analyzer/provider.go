package analyzer

import (
	"context"

	"github.com/Bahjat/phishguard/backend/internal/model"
)

// AnalysisProvider defines the contract for any URL analysis engine.
type AnalysisProvider interface {
	Analyze(ctx context.Context, rawURL string) (*model.AnalysisResult, error)
	// Ready reports whether the provider can classify, i.e. a model is loaded.
	Ready() bool
}
