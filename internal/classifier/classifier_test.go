package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRemote_Classify(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantLabel int
		wantConf  float64
	}{
		{name: "label and confidence", response: `{"label":0,"confidence":0.93}`, wantLabel: LabelPhishing, wantConf: 0.93},
		{name: "legitimate", response: `{"label":1,"confidence":0.71}`, wantLabel: LabelLegitimate, wantConf: 0.71},
		{name: "probabilities phishing", response: `{"probabilities":[0.8,0.2]}`, wantLabel: LabelPhishing, wantConf: 0.8},
		{name: "probabilities legitimate", response: `{"probabilities":[0.35,0.65]}`, wantLabel: LabelLegitimate, wantConf: 0.65},
		{name: "tie goes to phishing", response: `{"probabilities":[0.5,0.5]}`, wantLabel: LabelPhishing, wantConf: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s, want POST", r.Method)
				}
				var req remoteRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode request: %v", err)
				}
				if len(req.Features) != 3 || len(req.FeatureNames) != 3 {
					t.Errorf("request = %+v, want 3 features and 3 names", req)
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = fmt.Fprint(w, tt.response)
			}))
			defer ts.Close()

			r := NewRemote(ts.URL, []string{"a", "b", "c"}, ts.Client())
			p, err := r.Classify(context.Background(), []float64{1, 2, 3})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Label != tt.wantLabel || p.Confidence != tt.wantConf {
				t.Errorf("Prediction = %+v, want {%d %v}", p, tt.wantLabel, tt.wantConf)
			}
		})
	}
}

func TestRemote_Classify_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response string
		wantErr  error
	}{
		{name: "server error", status: http.StatusInternalServerError, response: `boom`, wantErr: errRemoteStatus},
		{name: "bad label", status: http.StatusOK, response: `{"label":2,"confidence":0.9}`, wantErr: errBadPrediction},
		{name: "confidence out of range", status: http.StatusOK, response: `{"label":1,"confidence":1.5}`, wantErr: errBadPrediction},
		{name: "missing fields", status: http.StatusOK, response: `{}`, wantErr: errBadPrediction},
		{name: "three probabilities", status: http.StatusOK, response: `{"probabilities":[0.1,0.2,0.7]}`, wantErr: errBadPrediction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.response)
			}))
			defer ts.Close()

			_, err := NewRemote(ts.URL, nil, ts.Client()).Classify(context.Background(), []float64{0})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRemote_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	if _, err := NewRemote(url, nil, nil).Classify(context.Background(), []float64{0}); err == nil {
		t.Error("expected error for closed server, got nil")
	}
}

func TestLinear(t *testing.T) {
	l, err := LoadLinear(strings.NewReader(`{"intercept":0.5,"weights":[1,-2,0]}`), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name      string
		features  []float64
		wantLabel int
	}{
		{name: "positive score is legitimate", features: []float64{1, 0, 9}, wantLabel: LabelLegitimate},
		{name: "negative score is phishing", features: []float64{0, 3, 0}, wantLabel: LabelPhishing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := l.Classify(context.Background(), tt.features)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Label != tt.wantLabel {
				t.Errorf("Label = %d, want %d", p.Label, tt.wantLabel)
			}
			if p.Confidence < 0.5 || p.Confidence > 1 {
				t.Errorf("Confidence = %v, want within [0.5, 1]", p.Confidence)
			}
		})
	}

	if _, err := l.Classify(context.Background(), []float64{1}); !errors.Is(err, errWidthMismatch) {
		t.Errorf("error = %v, want errWidthMismatch", err)
	}
}

func TestLoadLinear_Errors(t *testing.T) {
	tests := []struct {
		name  string
		model string
	}{
		{"bad json", `{`},
		{"wrong width", `{"intercept":0,"weights":[1,2]}`},
		{"no weights", `{"intercept":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadLinear(strings.NewReader(tt.model), 3); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadLinearFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(`{"intercept":-1,"weights":[0,0]}`), 0o600); err != nil {
		t.Fatalf("write model: %v", err)
	}
	l, err := LoadLinearFile(path, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := l.Classify(context.Background(), []float64{5, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsPhishing() {
		t.Errorf("Prediction = %+v, want phishing for negative intercept", p)
	}

	if _, err := LoadLinearFile(filepath.Join(t.TempDir(), "missing.json"), 2); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
