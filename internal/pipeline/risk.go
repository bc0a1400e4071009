package pipeline

import (
	"fmt"
	"unicode/utf8"

	"github.com/Bahjat/phishguard/backend/internal/classifier"
	"github.com/Bahjat/phishguard/backend/internal/content"
	"github.com/Bahjat/phishguard/backend/internal/fetch"
	"github.com/Bahjat/phishguard/backend/internal/lexical"
	"github.com/Bahjat/phishguard/backend/internal/model"
)

const (
	highConfidence     = 0.8
	moderateConfidence = 0.5

	lowSimilarity       = 50.0
	lookalikeConfidence = 0.99

	// Short labels sit within a couple of edits of many unrelated brands
	// (king/bing, idea/ikea), so they never trigger the lookalike rule.
	minLookalikeLabel = 6
	maxLookalikeEdits = 2
	trustedLegitimate = 0.98

	maxDashes    = 3
	maxDots      = 5
	maxRedirects = 2
)

// Risk indicator texts.
const (
	IndicatorUnreachable     = "Site unreachable"
	IndicatorTimeout         = "Site did not respond before the timeout"
	IndicatorRedirectLoop    = "Redirect loop detected"
	IndicatorTooManyRedirect = "Too many redirects"
	IndicatorNoHTML          = "Site returned no HTML content"
	IndicatorAtSymbol        = "URL contains @ symbol (possible credential phishing)"
	IndicatorDashes          = "Excessive dashes in URL"
	IndicatorDots            = "Excessive dots in URL (possible subdomain spoofing)"
	IndicatorNoHTTPS         = "Connection is not encrypted (no HTTPS)"
	IndicatorLowSimilarity   = "Domain does not resemble any known legitimate domain"
	IndicatorNoFavicon       = "Missing favicon"
	IndicatorNoCopyright     = "No copyright information found"
	IndicatorNoTitle         = "Missing page title"
	IndicatorHiddenFields    = "Contains hidden form fields"
	IndicatorPayNoSocial     = "Payment-related content without social media presence"
	IndicatorFormNoDesc      = "Submit form on a page without a description"
)

// verdict is the final decision after the model and the lookalike rule.
type verdict struct {
	isPhishing bool
	confidence float64
	level      model.RiskLevel
	lookalike  bool
}

// decide applies the lookalike override to the model's prediction. A domain
// whose registrable label is one or two edits away from a reference domain's
// label, and that scores at least threshold against the corpus, is treated
// as impersonation unless the model is all but certain it is legitimate.
// threshold <= 0 disables the override.
func decide(p classifier.Prediction, s lexical.StructuralFeatures, threshold float64) verdict {
	trusted := !p.IsPhishing() && p.Confidence >= trustedLegitimate
	if !trusted && isLookalike(s, threshold) {
		return verdict{
			isPhishing: true,
			confidence: max(p.Confidence, lookalikeConfidence),
			level:      model.RiskHigh,
			lookalike:  true,
		}
	}
	return verdict{
		isPhishing: p.IsPhishing(),
		confidence: p.Confidence,
		level:      riskLevel(p.IsPhishing(), p.Confidence),
	}
}

func isLookalike(s lexical.StructuralFeatures, threshold float64) bool {
	if threshold <= 0 || s.IsSafeMatch != 0 || s.URLSimilarityIndex < threshold {
		return false
	}
	if utf8.RuneCountInString(s.DomainLabel) < minLookalikeLabel {
		return false
	}
	return s.LabelDistance >= 1 && s.LabelDistance <= maxLookalikeEdits
}

// riskLevel buckets confidence. For a legitimate verdict high confidence
// means low risk; for a phishing verdict it means high risk.
func riskLevel(isPhishing bool, confidence float64) model.RiskLevel {
	switch {
	case confidence >= highConfidence:
		if isPhishing {
			return model.RiskHigh
		}
		return model.RiskLow
	case confidence >= moderateConfidence:
		return model.RiskMedium
	default:
		if isPhishing {
			return model.RiskLow
		}
		return model.RiskHigh
	}
}

// riskIndicators lists the human-readable factors behind a verdict. Page
// content indicators are only reported for live pages.
func riskIndicators(s lexical.StructuralFeatures, c content.Features, f *fetch.Result, v verdict) []string {
	out := []string{}

	switch f.Err {
	case fetch.ErrUnreachable:
		out = append(out, IndicatorUnreachable)
	case fetch.ErrTimeout:
		out = append(out, IndicatorTimeout)
	case fetch.ErrRedirectLoop:
		out = append(out, IndicatorRedirectLoop)
	case fetch.ErrTooManyRedirects:
		out = append(out, IndicatorTooManyRedirect)
	case fetch.ErrNone:
		if c.URLIsLive == 1 {
			break
		}
		if f.StatusCode < 200 || f.StatusCode >= 300 {
			out = append(out, fmt.Sprintf("Site is not live (HTTP %d)", f.StatusCode))
		} else {
			out = append(out, IndicatorNoHTML)
		}
	}

	if s.NoOfAtSymbolInURL > 0 {
		out = append(out, IndicatorAtSymbol)
	}
	if s.NoOfDashInURL > maxDashes {
		out = append(out, IndicatorDashes)
	}
	if s.NoOfDotInURL > maxDots {
		out = append(out, IndicatorDots)
	}
	if s.IsHTTPS == 0 {
		out = append(out, IndicatorNoHTTPS)
	}
	if v.lookalike {
		out = append(out, fmt.Sprintf("Domain imitates %s (similarity %.2f)", s.ClosestDomain, s.URLSimilarityIndex))
	} else if s.IsSafeMatch == 0 && s.URLSimilarityIndex < lowSimilarity {
		out = append(out, IndicatorLowSimilarity)
	}
	if n := len(f.Chain); n > maxRedirects {
		out = append(out, fmt.Sprintf("Multiple redirects detected (%d hops)", n))
	}

	if c.URLIsLive == 0 {
		return out
	}
	if c.HasFavicon == 0 {
		out = append(out, IndicatorNoFavicon)
	}
	if c.HasCopyrightInfo == 0 {
		out = append(out, IndicatorNoCopyright)
	}
	if c.HasTitle == 0 {
		out = append(out, IndicatorNoTitle)
	}
	if c.HasHiddenFields == 1 {
		out = append(out, IndicatorHiddenFields)
	}
	if c.Pay == 1 && c.HasSocialNet == 0 {
		out = append(out, IndicatorPayNoSocial)
	}
	if c.HasSubmitButton == 1 && c.HasDescription == 0 {
		out = append(out, IndicatorFormNoDesc)
	}
	return out
}
