package lexical

import (
	"math"
	"net/netip"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"

	"github.com/Bahjat/phishguard/backend/internal/tld"
)

// commonURLChars are the URL punctuation characters that do not count as
// "other" special characters.
const commonURLChars = ".-_~:/?#[]@!$&'()*+,;="

// Expected character-class frequencies of a typical legitimate URL.
var expectedFreq = struct {
	letters, digits, dots, slashes, hyphens, others float64
}{0.60, 0.15, 0.05, 0.10, 0.05, 0.05}

// StructuralFeatures are the features derived from the URL string alone.
type StructuralFeatures struct {
	URLSimilarityIndex    float64
	IsSafeMatch           int
	ClosestDomain         string
	// DomainLabel is Domain without its public suffix ("paypa1" for
	// paypa1.com). LabelDistance is its edit distance to the label of
	// ClosestDomain, or -1 when nothing was compared.
	DomainLabel           string
	LabelDistance         int
	CharContinuationRate  float64
	URLCharProb           float64
	LetterRatio           float64
	DigitRatio            float64
	NoOfOtherSpecialChars int
	SpecialCharRatio      float64
	IsHTTPS               int
	NoOfDotInURL          int
	NoOfDashInURL         int
	NoOfDigitsInURL       int
	NoOfPathSegments      int
	NoOfAtSymbolInURL     int
	Host                  string
	Domain                string
	TLD                   string
}

// Extractor computes StructuralFeatures. It holds only read-only reference
// data and is safe for concurrent use.
type Extractor struct {
	registry *tld.Registry
	corpus   *Corpus
}

// NewExtractor returns an Extractor over the given registry and corpus.
func NewExtractor(registry *tld.Registry, corpus *Corpus) *Extractor {
	return &Extractor{registry: registry, corpus: corpus}
}

// Extract computes the structural features of a URL already accepted by
// Normalize. It performs no I/O.
func (x *Extractor) Extract(normalized string) StructuralFeatures {
	var f StructuralFeatures

	if u, err := url.Parse(normalized); err == nil {
		f.Host = strings.ToLower(u.Hostname())
		f.IsHTTPS = boolToInt(strings.EqualFold(u.Scheme, "https"))
		for _, seg := range strings.Split(u.Path, "/") {
			if seg != "" {
				f.NoOfPathSegments++
			}
		}
	}

	f.TLD = x.tldOf(f.Host)
	f.Domain = registrableDomain(f.Host)
	f.DomainLabel = registrableLabel(f.Domain)
	f.LabelDistance = -1

	f.NoOfDotInURL = strings.Count(normalized, ".")
	f.NoOfDashInURL = strings.Count(normalized, "-")
	f.NoOfAtSymbolInURL = strings.Count(normalized, "@")

	x.scoreSimilarity(&f)
	f.CharContinuationRate = charContinuationRate(normalized)
	countClasses(normalized, &f)

	return f
}

func (x *Extractor) scoreSimilarity(f *StructuralFeatures) {
	if x.corpus == nil || x.corpus.Len() == 0 || f.Host == "" {
		return
	}
	if x.corpus.Match(f.Host) {
		f.URLSimilarityIndex = 100
		f.IsSafeMatch = 1
		f.ClosestDomain = f.Domain
		f.LabelDistance = 0
		return
	}

	// A page on a shared host is scored by its full host name, otherwise
	// every blog on wordpress.com would look exactly like wordpress.com.
	target := strings.TrimPrefix(f.Domain, "www.")
	if x.corpus.userHosted(f.Host) {
		target = strings.TrimPrefix(f.Host, "www.")
	}
	closest, score := x.corpus.Closest(target)
	f.ClosestDomain = closest
	f.URLSimilarityIndex = clamp(score, 0, 100)
	if closest != "" {
		f.LabelDistance = levenshtein([]rune(f.DomainLabel), []rune(registrableLabel(closest)))
	}
}

// tldOf returns the host's top-level domain. Multi-label public suffixes
// such as co.uk win when the registry knows them.
func (x *Extractor) tldOf(host string) string {
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return ""
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		if addr.Is6() {
			return ""
		}
	} else if suffix, _ := publicsuffix.PublicSuffix(host); strings.Contains(suffix, ".") && x.registry != nil && x.registry.Contains(suffix) {
		return suffix
	}
	return host[strings.LastIndexByte(host, '.')+1:]
}

func registrableDomain(host string) string {
	if host == "" {
		return ""
	}
	if _, err := netip.ParseAddr(host); err == nil {
		return host
	}
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return d
}

// registrableLabel strips the public suffix from a registrable domain.
// IP literals and bare suffixes are returned unchanged.
func registrableLabel(domain string) string {
	if _, err := netip.ParseAddr(domain); err == nil {
		return domain
	}
	suffix, _ := publicsuffix.PublicSuffix(domain)
	if label, ok := strings.CutSuffix(domain, "."+suffix); ok && label != "" {
		return label
	}
	return domain
}

// charContinuationRate is the share of characters that sit in a run of two
// or more identical consecutive characters.
func charContinuationRate(s string) float64 {
	rs := []rune(s)
	if len(rs) == 0 {
		return 0
	}
	inRun := 0
	for i := 0; i < len(rs); {
		j := i + 1
		for j < len(rs) && rs[j] == rs[i] {
			j++
		}
		if n := j - i; n >= 2 {
			inRun += n
		}
		i = j
	}
	return round(float64(inRun)/float64(len(rs)), 6)
}

func countClasses(s string, f *StructuralFeatures) {
	total := utf8.RuneCountInString(s)
	if total == 0 {
		return
	}

	var letters, digits, dots, slashes, hyphens, nonAlnum int
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		default:
			nonAlnum++
			if !strings.ContainsRune(commonURLChars, r) {
				f.NoOfOtherSpecialChars++
			}
		}
		switch r {
		case '.':
			dots++
		case '/':
			slashes++
		case '-':
			hyphens++
		}
	}
	others := total - letters - digits - dots - slashes - hyphens

	n := float64(total)
	diff := math.Abs(float64(letters)/n-expectedFreq.letters) +
		math.Abs(float64(digits)/n-expectedFreq.digits) +
		math.Abs(float64(dots)/n-expectedFreq.dots) +
		math.Abs(float64(slashes)/n-expectedFreq.slashes) +
		math.Abs(float64(hyphens)/n-expectedFreq.hyphens) +
		math.Abs(float64(others)/n-expectedFreq.others)

	f.URLCharProb = round(max(0, 1-diff), 6)
	f.LetterRatio = round(float64(letters)/n, 3)
	f.DigitRatio = round(float64(digits)/n, 3)
	f.NoOfDigitsInURL = digits
	f.SpecialCharRatio = round(float64(nonAlnum)/n, 3)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
