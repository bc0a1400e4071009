package lexical

import (
	"math"
	"strings"
	"testing"

	"github.com/Bahjat/phishguard/backend/internal/tld"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	reg, err := tld.LoadRegistry(strings.NewReader(`["ac","co.uk","com","de","uk"]`))
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	corpus, err := LoadCorpus(strings.NewReader("paypal.com\ngoogle.com\n"))
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	return NewExtractor(reg, corpus)
}

func defaultRegistry(t *testing.T) *tld.Registry {
	t.Helper()
	reg, err := tld.DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	return reg
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExtract_ExampleDotCom(t *testing.T) {
	f := newTestExtractor(t).Extract("https://example.com")

	if f.NoOfDotInURL != 1 {
		t.Errorf("NoOfDotInURL = %d, want 1", f.NoOfDotInURL)
	}
	if f.NoOfDashInURL != 0 || f.NoOfAtSymbolInURL != 0 || f.NoOfDigitsInURL != 0 {
		t.Errorf("dash/at/digit counts = %d/%d/%d, want 0/0/0", f.NoOfDashInURL, f.NoOfAtSymbolInURL, f.NoOfDigitsInURL)
	}
	if f.NoOfPathSegments != 0 {
		t.Errorf("NoOfPathSegments = %d, want 0", f.NoOfPathSegments)
	}
	if f.IsHTTPS != 1 {
		t.Errorf("IsHTTPS = %d, want 1", f.IsHTTPS)
	}
	if f.TLD != "com" {
		t.Errorf("TLD = %q, want %q", f.TLD, "com")
	}
	if f.Domain != "example.com" {
		t.Errorf("Domain = %q, want %q", f.Domain, "example.com")
	}
	if !approx(f.LetterRatio, 0.789) {
		t.Errorf("LetterRatio = %v, want 0.789", f.LetterRatio)
	}
	if !approx(f.SpecialCharRatio, 0.211) {
		t.Errorf("SpecialCharRatio = %v, want 0.211", f.SpecialCharRatio)
	}
	if !approx(f.URLCharProb, 0.6) {
		t.Errorf("URLCharProb = %v, want 0.6", f.URLCharProb)
	}
	if f.NoOfOtherSpecialChars != 0 {
		t.Errorf("NoOfOtherSpecialChars = %d, want 0", f.NoOfOtherSpecialChars)
	}
	if f.IsSafeMatch != 0 {
		t.Errorf("IsSafeMatch = %d, want 0", f.IsSafeMatch)
	}
	if f.URLSimilarityIndex < 0 || f.URLSimilarityIndex > 100 {
		t.Errorf("URLSimilarityIndex = %v, out of [0,100]", f.URLSimilarityIndex)
	}
}

func TestExtract_Similarity(t *testing.T) {
	x := newTestExtractor(t)

	tests := []struct {
		name      string
		url       string
		wantScore float64
		wantSafe  int
		wantNear  string
	}{
		{"exact match", "https://paypal.com/", 100, 1, "paypal.com"},
		{"www subdomain", "https://www.paypal.com/", 100, 1, "paypal.com"},
		{"deep subdomain", "https://accounts.google.com/signin", 100, 1, "google.com"},
		{"one substitution", "http://paypa1.com/login", 90, 0, "paypal.com"},
		{"lookalike with www", "http://www.paypa1.com/", 90, 0, "paypal.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := x.Extract(tt.url)
			if !approx(f.URLSimilarityIndex, tt.wantScore) {
				t.Errorf("URLSimilarityIndex = %v, want %v", f.URLSimilarityIndex, tt.wantScore)
			}
			if f.IsSafeMatch != tt.wantSafe {
				t.Errorf("IsSafeMatch = %d, want %d", f.IsSafeMatch, tt.wantSafe)
			}
			if f.ClosestDomain != tt.wantNear {
				t.Errorf("ClosestDomain = %q, want %q", f.ClosestDomain, tt.wantNear)
			}
		})
	}
}

func TestExtract_UserHostedPage(t *testing.T) {
	corpus, err := LoadCorpus(strings.NewReader("paypal.com\nwordpress.com\n"))
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	x := NewExtractor(defaultRegistry(t), corpus)

	f := x.Extract("https://paypal-login.wordpress.com/verify")
	if f.IsSafeMatch != 0 {
		t.Errorf("IsSafeMatch = %d, want 0", f.IsSafeMatch)
	}
	if f.URLSimilarityIndex >= 100 {
		t.Errorf("URLSimilarityIndex = %v, want below 100", f.URLSimilarityIndex)
	}

	f = x.Extract("https://wordpress.com/")
	if f.IsSafeMatch != 1 || !approx(f.URLSimilarityIndex, 100) {
		t.Errorf("wordpress.com: IsSafeMatch = %d, URLSimilarityIndex = %v, want 1 and 100", f.IsSafeMatch, f.URLSimilarityIndex)
	}
}

func TestExtract_DomainLabel(t *testing.T) {
	x := newTestExtractor(t)

	tests := []struct {
		name         string
		url          string
		wantLabel    string
		wantDistance int
	}{
		{"safe match", "https://www.paypal.com/", "paypal", 0},
		{"one substitution", "http://paypa1.com/", "paypa1", 1},
		{"multi-label suffix", "http://paypal.co.uk/", "paypal", 0},
		{"ip host", "http://192.168.1.10/", "192.168.1.10", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := x.Extract(tt.url)
			if f.DomainLabel != tt.wantLabel {
				t.Errorf("DomainLabel = %q, want %q", f.DomainLabel, tt.wantLabel)
			}
			if tt.wantDistance >= 0 && f.LabelDistance != tt.wantDistance {
				t.Errorf("LabelDistance = %d, want %d", f.LabelDistance, tt.wantDistance)
			}
		})
	}
}

func TestExtract_Deterministic(t *testing.T) {
	x := newTestExtractor(t)
	const u = "http://secure-login.paypa1.com.verify-account.example.de/a/b/c?id=42@x"
	first := x.Extract(u)
	for range 10 {
		if got := x.Extract(u); got != first {
			t.Fatalf("Extract not deterministic: %+v != %+v", got, first)
		}
	}
	if first.NoOfAtSymbolInURL != 1 {
		t.Errorf("NoOfAtSymbolInURL = %d, want 1", first.NoOfAtSymbolInURL)
	}
	if first.NoOfPathSegments != 3 {
		t.Errorf("NoOfPathSegments = %d, want 3", first.NoOfPathSegments)
	}
	if first.NoOfDigitsInURL != 3 {
		t.Errorf("NoOfDigitsInURL = %d, want 3", first.NoOfDigitsInURL)
	}
}

func TestExtract_TLD(t *testing.T) {
	x := newTestExtractor(t)

	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/", "com"},
		{"https://bbc.co.uk/news", "co.uk"},
		{"https://example.de", "de"},
		{"https://example.zz", "zz"},
		{"http://192.168.0.1/login", "1"},
		{"http://[2001:db8::1]/", ""},
		{"https://localhost/", "localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := x.Extract(tt.url).TLD; got != tt.want {
				t.Errorf("TLD = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract_MultiLabelSuffixFallsBackToLastLabel(t *testing.T) {
	x := NewExtractor(defaultRegistry(t), nil)
	if got := x.Extract("https://bbc.co.uk/").TLD; got != "uk" {
		t.Errorf("TLD = %q, want %q", got, "uk")
	}
}

func TestExtract_NilCorpus(t *testing.T) {
	f := NewExtractor(defaultRegistry(t), nil).Extract("https://paypal.com")
	if f.URLSimilarityIndex != 0 || f.IsSafeMatch != 0 {
		t.Errorf("similarity = %v safe = %d, want 0 and 0", f.URLSimilarityIndex, f.IsSafeMatch)
	}
}

func TestCharContinuationRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"a", 0},
		{"abc", 0},
		{"aaa", 1},
		{"aabbc", 0.8},
		{"http://goooogle.com", 0.421053},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := charContinuationRate(tt.in); !approx(got, tt.want) {
				t.Errorf("charContinuationRate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOtherSpecialChars(t *testing.T) {
	x := newTestExtractor(t)
	f := x.Extract("http://example.com/%7Euser/%20")
	if f.NoOfOtherSpecialChars != 2 {
		t.Errorf("NoOfOtherSpecialChars = %d, want 2", f.NoOfOtherSpecialChars)
	}
}
