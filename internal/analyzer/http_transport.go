package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/Bahjat/phishguard/backend/internal/model"
	"github.com/Bahjat/phishguard/backend/internal/pipeline"
	"github.com/Bahjat/phishguard/backend/internal/platform/errs"
)

// Version is the service version reported by the health endpoint.
const Version = "1.0.0"

const (
	analyzeTimeout = 60 * time.Second
	batchTimeout   = 5 * time.Minute
	maxRequestBody = 1 << 20 // 1 MB
)

var (
	errURLRequired   = errors.New("the \"url\" field is required")
	errURLsRequired  = errors.New("the \"urls\" field must contain at least one URL")
	errBatchTooLarge = fmt.Errorf("a batch may contain at most %d URLs", pipeline.MaxBatchSize)
)

// Transport handles HTTP requests for URL analysis.
type Transport struct {
	service    *Service
	apiVersion string
	logger     *slog.Logger
	now        func() time.Time
}

// NewTransport creates an HTTP transport backed by the given service. Routes
// are served under /api/<apiVersion>.
func NewTransport(service *Service, apiVersion string, logger *slog.Logger) *Transport {
	return &Transport{service: service, apiVersion: apiVersion, logger: logger, now: time.Now}
}

// RegisterRoutes attaches the transport's handlers to the given router.
// OPTIONS is accepted on every route so that router middleware can answer
// CORS preflight requests.
func (t *Transport) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", t.handleRoot).Methods(http.MethodGet)

	api := r.PathPrefix("/api/" + t.apiVersion).Subrouter()
	api.HandleFunc("/predict", t.handlePredict).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/predict/batch", t.handleBatch).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/health", t.handleHealth).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/stats", t.handleStats).Methods(http.MethodGet, http.MethodOptions)
}

type predictRequest struct {
	URL string `json:"url"`
}

func (r predictRequest) validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return errURLRequired
	}
	return nil
}

type batchRequest struct {
	URLs []string `json:"urls"`
}

func (r batchRequest) validate() error {
	switch {
	case len(r.URLs) == 0:
		return errURLsRequired
	case len(r.URLs) > pipeline.MaxBatchSize:
		return errBatchTooLarge
	}
	return nil
}

type batchResponse struct {
	Results []model.BatchItem `json:"results"`
	Total   int               `json:"total"`
	Failed  int               `json:"failed"`
}

func (t *Transport) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.renderError(w, http.StatusBadRequest, "Invalid request body. Please send a JSON object with a \"url\" field.")
		return
	}

	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	result, err := t.service.Analyze(ctx, req.URL)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, http.StatusOK, result)
}

func (t *Transport) handleBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.renderError(w, http.StatusBadRequest, "Invalid request body. Please send a JSON object with a \"urls\" array.")
		return
	}

	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), batchTimeout)
	defer cancel()

	outcomes := t.service.AnalyzeBatch(ctx, req.URLs)

	resp := batchResponse{Results: make([]model.BatchItem, len(outcomes)), Total: len(outcomes)}
	for i, o := range outcomes {
		item := model.BatchItem{URL: o.URL, Result: o.Result}
		if o.Err != nil {
			status, message := errorStatus(o.Err)
			item.Error = &model.ErrorResponse{
				Error:      http.StatusText(status),
				StatusCode: status,
				Message:    message,
			}
			resp.Failed++
		}
		resp.Results[i] = item
	}

	t.renderJSON(w, http.StatusOK, resp)
}

func (t *Transport) handleHealth(w http.ResponseWriter, _ *http.Request) {
	t.renderJSON(w, http.StatusOK, model.Health{
		Status:      "healthy",
		ModelLoaded: t.service.ModelLoaded(),
		Version:     Version,
		Timestamp:   t.now().UTC().Format(time.RFC3339),
	})
}

func (t *Transport) handleStats(w http.ResponseWriter, _ *http.Request) {
	t.renderJSON(w, http.StatusOK, t.service.Stats())
}

func (t *Transport) handleRoot(w http.ResponseWriter, _ *http.Request) {
	t.renderJSON(w, http.StatusOK, map[string]string{
		"name":    "Phishing Detection API",
		"version": Version,
		"health":  "/api/" + t.apiVersion + "/health",
	})
}

func (t *Transport) handleServiceError(w http.ResponseWriter, err error) {
	status, message := errorStatus(err)
	t.renderError(w, status, message)
}

// errorStatus maps an analysis error to an HTTP status and user message.
func errorStatus(err error) (int, string) {
	var appErr *errs.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "An unexpected error occurred."
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case errs.InvalidInput:
		status = http.StatusBadRequest
	case errs.ClassifierFailed, errs.Unreachable:
		status = http.StatusBadGateway
	case errs.Timeout:
		status = http.StatusGatewayTimeout
	case errs.Internal, errs.ParsingFailed, errs.Unknown:
		// 500 Internal Server Error
	}
	return status, appErr.Message
}

func (t *Transport) renderJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		t.logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (t *Transport) renderError(w http.ResponseWriter, status int, message string) {
	t.renderJSON(w, status, model.ErrorResponse{
		Error:      http.StatusText(status),
		StatusCode: status,
		Message:    message,
	})
}
