package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/Bahjat/phishguard/backend/internal/model"
	"github.com/Bahjat/phishguard/backend/internal/platform/errs"
	"github.com/Bahjat/phishguard/backend/internal/platform/logger"
	"github.com/Bahjat/phishguard/backend/internal/platform/middleware"
	"github.com/Bahjat/phishguard/backend/internal/stats"
)

// mockProvider implements AnalysisProvider for testing.
type mockProvider struct {
	result *model.AnalysisResult
	err    error
	errFor map[string]error
	ready  bool
}

func (m *mockProvider) Analyze(_ context.Context, rawURL string) (*model.AnalysisResult, error) {
	if err, ok := m.errFor[rawURL]; ok {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	res := *m.result
	res.URL = rawURL
	return &res, nil
}

func (m *mockProvider) Ready() bool { return m.ready }

func newTestRouter(provider AnalysisProvider) (*mux.Router, *Service) {
	log := logger.Discard()
	svc := NewService(provider, stats.NewSession(), 3, log)
	transport := NewTransport(svc, "v1", log)
	router := mux.NewRouter()
	router.Use(middleware.RequestID, middleware.CORS([]string{"http://localhost:3000"}))
	transport.RegisterRoutes(router)
	return router, svc
}

func phishingResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		URL:            "https://paypa1.com",
		IsPhishing:     true,
		Confidence:     0.99,
		RiskLevel:      model.RiskHigh,
		RiskIndicators: []string{"Domain imitates paypal.com (similarity 90.00)"},
		NetworkInfo:    model.NetworkInfo{RedirectChain: []model.Hop{}, FinalURL: "https://paypa1.com"},
	}
}

func post(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlePredict_Success(t *testing.T) {
	router, svc := newTestRouter(&mockProvider{result: phishingResult(), ready: true})

	rec := post(router, "/api/v1/predict", `{"url": "https://paypa1.com"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	var result model.AnalysisResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.IsPhishing || result.RiskLevel != model.RiskHigh {
		t.Errorf("result = %+v, want a high-risk phishing verdict", result)
	}

	if got := svc.Stats(); got.TotalAnalyzed != 1 || got.PhishingDetected != 1 {
		t.Errorf("stats = %+v, want one phishing analysis recorded", got)
	}
}

func TestHandlePredict_BadRequests(t *testing.T) {
	router, svc := newTestRouter(&mockProvider{result: phishingResult()})

	tests := []struct {
		name string
		body string
	}{
		{"empty url", `{"url": ""}`},
		{"blank url", `{"url": "   "}`},
		{"missing body", ``},
		{"malformed json", `{invalid json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(router, "/api/v1/predict", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}

	if got := svc.Stats().TotalAnalyzed; got != 0 {
		t.Errorf("TotalAnalyzed = %d, want 0", got)
	}
}

func TestHandlePredict_ErrorKinds(t *testing.T) {
	tests := []struct {
		kind errs.Kind
		want int
	}{
		{errs.InvalidInput, http.StatusBadRequest},
		{errs.Internal, http.StatusInternalServerError},
		{errs.ClassifierFailed, http.StatusBadGateway},
		{errs.Timeout, http.StatusGatewayTimeout},
		{errs.Unknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			router, _ := newTestRouter(&mockProvider{
				err: &errs.AppError{Kind: tt.kind, Message: "failure message"},
			})

			rec := post(router, "/api/v1/predict", `{"url": "ftp://bad"}`)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			var body model.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error: %v", err)
			}
			if body.StatusCode != tt.want || body.Message != "failure message" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestHandlePredict_PlainError(t *testing.T) {
	router, _ := newTestRouter(&mockProvider{err: fmt.Errorf("boom")})

	rec := post(router, "/api/v1/predict", `{"url": "https://example.com"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Error("internal error text leaked to the client")
	}
}

func TestHandlePredict_WrongMethod(t *testing.T) {
	router, _ := newTestRouter(&mockProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/predict", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandlePredict_Preflight(t *testing.T) {
	router, _ := newTestRouter(&mockProvider{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/predict", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestHandleBatch(t *testing.T) {
	provider := &mockProvider{
		result: phishingResult(),
		errFor: map[string]error{
			"ftp://x.com": &errs.AppError{Kind: errs.InvalidInput, Message: "Only http and https URLs are supported."},
		},
	}
	router, svc := newTestRouter(provider)

	rec := post(router, "/api/v1/predict/batch", `{"urls": ["https://a.com", "ftp://x.com", "https://b.com"]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp batchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 3 || resp.Failed != 1 || len(resp.Results) != 3 {
		t.Fatalf("response = %+v, want 3 results with 1 failure", resp)
	}

	wantURLs := []string{"https://a.com", "ftp://x.com", "https://b.com"}
	for i, item := range resp.Results {
		if item.URL != wantURLs[i] {
			t.Errorf("item %d URL = %q, want %q", i, item.URL, wantURLs[i])
		}
	}
	if resp.Results[1].Error == nil || resp.Results[1].Error.StatusCode != http.StatusBadRequest || resp.Results[1].Result != nil {
		t.Errorf("item 1 = %+v, want a 400 error", resp.Results[1])
	}
	if resp.Results[0].Result == nil || resp.Results[0].Result.URL != "https://a.com" {
		t.Errorf("item 0 = %+v, want a result", resp.Results[0])
	}

	if got := svc.Stats().TotalAnalyzed; got != 2 {
		t.Errorf("TotalAnalyzed = %d, want 2", got)
	}
}

func TestHandleBatch_Validation(t *testing.T) {
	router, _ := newTestRouter(&mockProvider{result: phishingResult()})

	urls := make([]string, 51)
	for i := range urls {
		urls[i] = fmt.Sprintf("%q", fmt.Sprintf("https://site%d.com", i))
	}

	tests := []struct {
		name string
		body string
	}{
		{"no urls", `{"urls": []}`},
		{"missing field", `{}`},
		{"too many", `{"urls": [` + strings.Join(urls, ",") + `]}`},
		{"malformed", `{"urls": "https://a.com"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(router, "/api/v1/predict/batch", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	for _, ready := range []bool{true, false} {
		router, _ := newTestRouter(&mockProvider{ready: ready})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var health model.Health
		if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if health.Status != "healthy" || health.ModelLoaded != ready || health.Version != Version {
			t.Errorf("health = %+v, want healthy with model_loaded %v", health, ready)
		}
		if _, err := time.Parse(time.RFC3339, health.Timestamp); err != nil {
			t.Errorf("Timestamp %q: %v", health.Timestamp, err)
		}
	}
}

func TestHandleStats(t *testing.T) {
	router, _ := newTestRouter(&mockProvider{result: phishingResult()})

	post(router, "/api/v1/predict", `{"url": "https://a.com"}`)
	post(router, "/api/v1/predict", `{"url": "https://b.com"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var got model.SessionStats
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.TotalAnalyzed != 2 || got.PhishingDetected != 2 || got.LegitimateDetected != 0 || got.AvgConfidence != 0.99 {
		t.Errorf("stats = %+v", got)
	}
}

func TestService_TimeoutWrapsError(t *testing.T) {
	svc := NewService(&mockProvider{err: &errs.AppError{Kind: errs.ClassifierFailed, Message: "down"}},
		stats.NewSession(), 1, logger.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := svc.Analyze(ctx, "https://example.com")
	if errs.KindOf(err) != errs.Timeout {
		t.Errorf("KindOf = %v, want %v", errs.KindOf(err), errs.Timeout)
	}
}
