package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

var errWidthMismatch = errors.New("classifier: feature width mismatch")

type linearModel struct {
	Intercept float64   `json:"intercept"`
	Weights   []float64 `json:"weights"`
}

// Linear is a logistic-regression model whose positive class is
// LabelLegitimate: p(legitimate) = sigmoid(intercept + w·x).
type Linear struct {
	intercept float64
	weights   []float64
}

// LoadLinear reads {"intercept": b, "weights": [...]} and checks that the
// model expects width features.
func LoadLinear(r io.Reader, width int) (*Linear, error) {
	var m linearModel
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("classifier: decode linear model: %w", err)
	}
	if len(m.Weights) != width {
		return nil, fmt.Errorf("%w: model has %d weights, vector has %d columns", errWidthMismatch, len(m.Weights), width)
	}
	for i, w := range m.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("classifier: weight %d is not finite", i)
		}
	}
	return &Linear{intercept: m.Intercept, weights: m.Weights}, nil
}

// LoadLinearFile is LoadLinear over the file at path.
func LoadLinearFile(path string, width int) (*Linear, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("classifier: open model: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadLinear(f, width)
}

// Classify scores features locally. ctx is unused.
func (l *Linear) Classify(_ context.Context, features []float64) (Prediction, error) {
	if len(features) != len(l.weights) {
		return Prediction{}, fmt.Errorf("%w: got %d, want %d", errWidthMismatch, len(features), len(l.weights))
	}
	z := l.intercept
	for i, x := range features {
		z += l.weights[i] * x
	}
	legit := 1 / (1 + math.Exp(-z))
	return fromProbabilities([]float64{1 - legit, legit})
}
