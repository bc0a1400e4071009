package lexical

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed legit_domains.txt
var defaultCorpusText []byte

var errEmptyCorpus = errors.New("lexical: reference corpus is empty")

// userContentHosts serve pages published by arbitrary users under their own
// subdomains. Only the bare domain of these counts as a safe match.
var userContentHosts = map[string]struct{}{
	"wordpress.com":   {},
	"tumblr.com":      {},
	"medium.com":      {},
	"blogspot.com":    {},
	"wixsite.com":     {},
	"weebly.com":      {},
	"substack.com":    {},
	"squarespace.com": {},
	"webflow.io":      {},
}

// Corpus is the read-only list of known-legitimate registrable domains that
// url_similarity_index is measured against.
type Corpus struct {
	domains []string
	set     map[string]struct{}
}

// LoadCorpus reads one domain per line. Blank lines and lines starting with
// '#' are skipped; entries are lower-cased and de-duplicated in file order.
func LoadCorpus(r io.Reader) (*Corpus, error) {
	c := &Corpus{set: make(map[string]struct{})}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.ToLower(strings.TrimSpace(sc.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "www.")
		if _, dup := c.set[line]; dup {
			continue
		}
		c.set[line] = struct{}{}
		c.domains = append(c.domains, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("lexical: read corpus: %w", err)
	}
	if len(c.domains) == 0 {
		return nil, errEmptyCorpus
	}
	return c, nil
}

// LoadCorpusFile loads the corpus from path, or the embedded default when
// path is empty.
func LoadCorpusFile(path string) (*Corpus, error) {
	if path == "" {
		return DefaultCorpus()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lexical: open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadCorpus(f)
}

// DefaultCorpus returns the corpus bundled with the binary.
func DefaultCorpus() (*Corpus, error) {
	return LoadCorpus(bytes.NewReader(defaultCorpusText))
}

// Len returns the number of domains.
func (c *Corpus) Len() int { return len(c.domains) }

// Match reports whether host is a corpus domain or a subdomain of one.
// Subdomains of user-content hosts such as wordpress.com never match.
func (c *Corpus) Match(host string) bool {
	host = strings.TrimPrefix(strings.TrimSuffix(strings.ToLower(host), "."), "www.")
	if _, ok := c.set[host]; ok {
		return true
	}
	for parent := host; ; {
		i := strings.IndexByte(parent, '.')
		if i < 0 {
			return false
		}
		parent = parent[i+1:]
		if _, ok := c.set[parent]; ok {
			_, shared := userContentHosts[parent]
			return !shared
		}
	}
}

// userHosted reports whether host is a subdomain of a user-content host in
// the corpus.
func (c *Corpus) userHosted(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for parent := range userContentHosts {
		if _, ok := c.set[parent]; ok && strings.HasSuffix(host, "."+parent) {
			return true
		}
	}
	return false
}

// Closest returns the corpus domain most similar to domain and its score.
// Ties keep the earlier corpus entry so the result is deterministic.
func (c *Corpus) Closest(domain string) (string, float64) {
	var best string
	bestScore := -1.0
	for _, d := range c.domains {
		if s := similarity(domain, d); s > bestScore {
			best, bestScore = d, s
		}
	}
	if bestScore < 0 {
		return "", 0
	}
	return best, bestScore
}
