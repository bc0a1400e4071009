package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var errRemoteStatus = errors.New("classifier: model server returned an error status")

type remoteRequest struct {
	Features     []float64 `json:"features"`
	FeatureNames []string  `json:"feature_names,omitempty"`
}

type remoteResponse struct {
	Label         *int      `json:"label"`
	Confidence    *float64  `json:"confidence"`
	Probabilities []float64 `json:"probabilities"`
}

// Remote calls a model server over HTTP. The server receives
// {"features": [...], "feature_names": [...]} and answers with either
// {"label": 0|1, "confidence": x} or {"probabilities": [p0, p1]}.
type Remote struct {
	url    string
	names  []string
	client *http.Client
}

// NewRemote returns a Remote posting to url. names is sent with every
// request so the server can check column order; it may be nil.
func NewRemote(url string, names []string, client *http.Client) *Remote {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Remote{url: url, names: names, client: client}
}

// Classify posts features to the model server.
func (r *Remote) Classify(ctx context.Context, features []float64) (Prediction, error) {
	payload, err := json.Marshal(remoteRequest{Features: features, FeatureNames: r.names})
	if err != nil {
		return Prediction{}, fmt.Errorf("classifier: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return Prediction{}, fmt.Errorf("classifier: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("classifier: call model server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Prediction{}, fmt.Errorf("%w: %d", errRemoteStatus, resp.StatusCode)
	}

	var out remoteResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return Prediction{}, fmt.Errorf("classifier: decode response: %w", err)
	}

	if out.Label != nil && out.Confidence != nil {
		p := Prediction{Label: *out.Label, Confidence: *out.Confidence}
		return p, p.validate()
	}
	return fromProbabilities(out.Probabilities)
}
