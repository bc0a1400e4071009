// Package content derives presence and count features from a fetched HTML page.
package content

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	socialDomains = []string{
		"facebook.com", "twitter.com", "x.com", "instagram.com", "linkedin.com",
		"youtube.com", "tiktok.com", "pinterest.com",
	}

	copyrightMarkers = []string{"©", "&copy;", "&#169;", "copyright", "(c)", "all rights reserved"}

	paymentPattern = regexp.MustCompile(`\b(payment|pay|credit card|debit card|checkout|billing|purchase|buy now)\b`)
)

// Features are the content features of one page. Title is informational
// and never vectorized.
type Features struct {
	URLIsLive        int
	HasTitle         int
	DomainTitleMatch float64
	URLTitleMatch    float64
	HasFavicon       int
	Robots           int
	IsResponsive     int
	HasDescription   int
	HasSocialNet     int
	HasSubmitButton  int
	HasHiddenFields  int
	Pay              int
	HasCopyrightInfo int
	NoOfJS           int
	NoOfSelfRef      int
	Title            string

	// Degraded is set when the document could not be parsed and every
	// feature other than URLIsLive fell back to zero.
	Degraded bool
}

// Extract parses body and computes Features against finalURL. A nil body or
// a page that is not live yields the zero Features. Extract never panics.
func Extract(body []byte, finalURL string, live bool) (f Features) {
	if body == nil || !live {
		return Features{}
	}

	defer func() {
		if r := recover(); r != nil {
			f = Features{URLIsLive: 1, Degraded: true}
		}
	}()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Features{URLIsLive: 1, Degraded: true}
	}

	base, _ := url.Parse(finalURL)
	host := ""
	if base != nil {
		host = strings.ToLower(base.Hostname())
	}

	f.URLIsLive = 1
	f.Title = strings.TrimSpace(doc.Find("title").First().Text())
	f.HasTitle = boolToInt(f.Title != "")
	if f.Title != "" {
		f.DomainTitleMatch = wordOverlap(domainWords(host), f.Title)
		f.URLTitleMatch = wordOverlap(urlWords(finalURL), f.Title)
	}

	f.HasFavicon = boolToInt(hasFavicon(doc))
	f.Robots = boolToInt(metaNamed(doc, "robots").Length() > 0)
	f.IsResponsive = boolToInt(metaNamed(doc, "viewport").Length() > 0)
	f.HasDescription = boolToInt(metaNamed(doc, "description").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.AttrOr("content", "")) != ""
	}).Length() > 0)

	f.HasSubmitButton = boolToInt(withType(doc.Find("button, input"), "submit").Length() > 0)
	f.HasHiddenFields = boolToInt(withType(doc.Find("input"), "hidden").Length() > 0)
	f.NoOfJS = doc.Find("script").Length()

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if isSocialLink(href) {
			f.HasSocialNet = 1
		}
		if isSelfRef(href, host) {
			f.NoOfSelfRef++
		}
	})

	raw := strings.ToLower(string(body))
	text := strings.ToLower(doc.Text())
	f.Pay = boolToInt(paymentPattern.MatchString(raw))
	f.HasCopyrightInfo = boolToInt(containsAny(raw, copyrightMarkers) || containsAny(text, copyrightMarkers))

	return f
}

func hasFavicon(doc *goquery.Document) bool {
	return doc.Find("link[rel]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(strings.ToLower(s.AttrOr("rel", "")), "icon")
	}).Length() > 0
}

func metaNamed(doc *goquery.Document, name string) *goquery.Selection {
	return doc.Find("meta[name]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.EqualFold(strings.TrimSpace(s.AttrOr("name", "")), name)
	})
}

func withType(sel *goquery.Selection, typ string) *goquery.Selection {
	return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.EqualFold(strings.TrimSpace(s.AttrOr("type", "")), typ)
	})
}

func isSocialLink(href string) bool {
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return false
	}
	h := strings.ToLower(u.Hostname())
	for _, d := range socialDomains {
		if h == d || strings.HasSuffix(h, "."+d) {
			return true
		}
	}
	return false
}

// isSelfRef reports whether href stays on host: fragments, relative links,
// and absolute links whose host matches ignoring a leading "www.".
func isSelfRef(href, host string) bool {
	if href == "" {
		return false
	}
	if strings.HasPrefix(href, "#") {
		return true
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return true
	}
	if u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "" {
		return false
	}
	return host != "" && trimWWW(strings.ToLower(u.Hostname())) == trimWWW(host)
}

// domainWords splits a host into its labels, dropping "www" and "com".
func domainWords(host string) []string {
	host = strings.TrimSuffix(trimWWW(host), ".com")
	return strings.Fields(strings.ReplaceAll(host, ".", " "))
}

func urlWords(raw string) []string {
	s := strings.ToLower(raw)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "https://"), "http://")
	s = trimWWW(s)
	s = strings.NewReplacer("/", " ", "-", " ").Replace(s)
	return strings.Fields(s)
}

// wordOverlap is the share of distinct words that also appear in title,
// rounded to two decimals.
func wordOverlap(words []string, title string) float64 {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	if len(set) == 0 {
		return 0
	}
	titleWords := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(title)) {
		titleWords[w] = struct{}{}
	}
	matches := 0
	for w := range set {
		if _, ok := titleWords[w]; ok {
			matches++
		}
	}
	score := float64(matches) / float64(len(set))
	return float64(int(score*100+0.5)) / 100
}

func trimWWW(s string) string {
	return strings.TrimPrefix(s, "www.")
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
