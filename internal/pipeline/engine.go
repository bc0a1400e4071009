// Package pipeline runs one URL through normalization, fetching, feature
// extraction, network resolution and classification.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Bahjat/phishguard/backend/internal/classifier"
	"github.com/Bahjat/phishguard/backend/internal/content"
	"github.com/Bahjat/phishguard/backend/internal/fetch"
	"github.com/Bahjat/phishguard/backend/internal/lexical"
	"github.com/Bahjat/phishguard/backend/internal/model"
	"github.com/Bahjat/phishguard/backend/internal/netinfo"
	"github.com/Bahjat/phishguard/backend/internal/platform/errs"
	"github.com/Bahjat/phishguard/backend/internal/platform/requestid"
	"github.com/Bahjat/phishguard/backend/internal/vector"
)

// deadlineGrace is added to the scraping timeout to form the request deadline.
const deadlineGrace = 2 * time.Second

// NetworkResolver resolves a host to IP and location without failing.
type NetworkResolver interface {
	Resolve(ctx context.Context, host string) netinfo.Lookup
}

// Deps are the collaborators of an Engine. All are required.
type Deps struct {
	Fetcher    fetch.Fetcher
	Extractor  *lexical.Extractor
	Resolver   NetworkResolver
	Assembler  *vector.Assembler
	Classifier classifier.Classifier
	Logger     *slog.Logger
}

// Options tune an Engine.
type Options struct {
	// ScrapingTimeout bounds the fetch; the whole analysis gets two more seconds.
	ScrapingTimeout time.Duration
	// LookalikeThreshold is the similarity index at or above which a domain
	// that is not in the reference corpus is flagged as impersonation.
	LookalikeThreshold float64
}

// Engine analyzes URLs. It holds only read-only state and is safe for
// concurrent use.
type Engine struct {
	deps  Deps
	opts  Options
	grace time.Duration
	now   func() time.Time
}

// NewEngine returns an Engine.
func NewEngine(deps Deps, opts Options) *Engine {
	return &Engine{deps: deps, opts: opts, grace: deadlineGrace, now: time.Now}
}

// Ready reports whether a classifier is wired in.
func (e *Engine) Ready() bool {
	return e.deps.Classifier != nil
}

// Analyze runs the full pipeline for rawURL. Only invalid input, a broken
// feature vector, or an unavailable classifier produce an error; network and
// parsing failures degrade the features instead.
func (e *Engine) Analyze(ctx context.Context, rawURL string) (*model.AnalysisResult, error) {
	start := e.now()
	logger := e.deps.Logger.With("request_id", requestid.FromContext(ctx))

	normalized, err := lexical.Normalize(rawURL)
	if err != nil {
		return nil, err
	}
	logger = logger.With("url", normalized)

	// Every blocking stage, the classifier included, shares one deadline.
	stageCtx, cancel := context.WithTimeout(ctx, e.opts.ScrapingTimeout+e.grace)
	defer cancel()

	var (
		wg         sync.WaitGroup
		fetched    *fetch.Result
		structural lexical.StructuralFeatures
	)
	wg.Go(func() { fetched = e.deps.Fetcher.Fetch(stageCtx, normalized) })
	wg.Go(func() { structural = e.deps.Extractor.Extract(normalized) })
	wg.Wait()

	if fetched.Err != fetch.ErrNone {
		logger.Info("fetch degraded", "reason", fetched.Err.String(), "error", fetched.Cause)
	}

	host := fetched.Host()
	if host == "" {
		host = structural.Host
	}

	var (
		page   content.Features
		lookup netinfo.Lookup
	)
	wg.Go(func() { page = content.Extract(fetched.Body, fetched.FinalURL, fetched.Live()) })
	wg.Go(func() { lookup = e.deps.Resolver.Resolve(stageCtx, host) })
	wg.Wait()

	if page.Degraded {
		logger.Warn("content parsing degraded")
	}

	vec, err := e.deps.Assembler.Assemble(structural, page, e.deps.Assembler.EncodeTLD(structural.TLD))
	if err != nil {
		logger.Error("feature vector assembly failed", "error", err)
		return nil, err
	}

	pred, err := e.deps.Classifier.Classify(stageCtx, vec)
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.ClassifierFailed,
			Message: "The classification model is unavailable. Please try again later.",
			Cause:   err,
		}
	}

	v := decide(pred, structural, e.opts.LookalikeThreshold)
	if v.lookalike {
		logger.Warn("lookalike override", "similarity", structural.URLSimilarityIndex, "closest", structural.ClosestDomain)
	}

	return &model.AnalysisResult{
		URL:            normalized,
		IsPhishing:     v.isPhishing,
		Confidence:     v.confidence,
		RiskLevel:      v.level,
		RiskIndicators: riskIndicators(structural, page, fetched, v),
		Features:       toModelFeatures(structural, page),
		NetworkInfo: model.NetworkInfo{
			RedirectChain: fetched.Chain,
			FinalURL:      fetched.FinalURL,
			IPAddress:     lookup.IP,
			Location:      lookup.Location,
		},
		DetectionTimestamp: start.UTC().Format(time.RFC3339),
		AnalysisTimeMs:     e.now().Sub(start).Milliseconds(),
	}, nil
}

func toModelFeatures(s lexical.StructuralFeatures, c content.Features) model.Features {
	return model.Features{
		URLSimilarityIndex:   s.URLSimilarityIndex,
		CharContinuationRate: s.CharContinuationRate,
		URLCharProb:          s.URLCharProb,
		LetterRatio:          s.LetterRatio,
		DigitRatio:           s.DigitRatio,
		SpecialChars:         s.NoOfOtherSpecialChars,
		SpecialCharRatio:     s.SpecialCharRatio,
		IsHTTPS:              s.IsHTTPS,
		NoOfDotInURL:         s.NoOfDotInURL,
		NoOfDashInURL:        s.NoOfDashInURL,
		NoOfDigitsInURL:      s.NoOfDigitsInURL,
		NoOfPathSegments:     s.NoOfPathSegments,
		TLD:                  s.TLD,
		Domain:               s.Domain,
		IsSafeMatch:          s.IsSafeMatch,

		URLIsLive:        c.URLIsLive,
		HasTitle:         c.HasTitle,
		DomainTitleMatch: c.DomainTitleMatch,
		URLTitleMatch:    c.URLTitleMatch,
		HasFavicon:       c.HasFavicon,
		HasRobots:        c.Robots,
		IsResponsive:     c.IsResponsive,
		HasDescription:   c.HasDescription,
		HasSocialNet:     c.HasSocialNet,
		HasSubmitButton:  c.HasSubmitButton,
		HasHiddenFields:  c.HasHiddenFields,
		HasPayment:       c.Pay,
		HasCopyright:     c.HasCopyrightInfo,
		NoOfJS:           c.NoOfJS,
		NoOfSelfRef:      c.NoOfSelfRef,
		Title:            c.Title,
	}
}
