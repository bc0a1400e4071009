// Package classifier is the boundary to the pre-trained phishing model.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Labels returned by the model.
const (
	LabelPhishing   = 0
	LabelLegitimate = 1
)

var errBadPrediction = errors.New("classifier: invalid prediction")

// Prediction is the model's verdict on one feature vector.
type Prediction struct {
	Label      int
	Confidence float64
}

// IsPhishing reports whether the label is LabelPhishing.
func (p Prediction) IsPhishing() bool {
	return p.Label == LabelPhishing
}

// Classifier scores a feature vector.
type Classifier interface {
	Classify(ctx context.Context, features []float64) (Prediction, error)
}

func (p Prediction) validate() error {
	if p.Label != LabelPhishing && p.Label != LabelLegitimate {
		return fmt.Errorf("%w: label %d", errBadPrediction, p.Label)
	}
	if math.IsNaN(p.Confidence) || p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v", errBadPrediction, p.Confidence)
	}
	return nil
}

// fromProbabilities turns [p(phishing), p(legitimate)] into a Prediction.
func fromProbabilities(probs []float64) (Prediction, error) {
	if len(probs) != 2 {
		return Prediction{}, fmt.Errorf("%w: %d probabilities, want 2", errBadPrediction, len(probs))
	}
	p := Prediction{Label: LabelPhishing, Confidence: probs[0]}
	if probs[1] > probs[0] {
		p = Prediction{Label: LabelLegitimate, Confidence: probs[1]}
	}
	return p, p.validate()
}
