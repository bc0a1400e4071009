package lexical

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCorpus(t *testing.T) {
	c, err := LoadCorpus(strings.NewReader("# header\n\nPayPal.com\nwww.google.com\npaypal.com\n  github.com  \n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	for _, host := range []string{"paypal.com", "google.com", "www.google.com", "api.github.com", "GITHUB.COM."} {
		if !c.Match(host) {
			t.Errorf("Match(%q) = false, want true", host)
		}
	}
	for _, host := range []string{"paypa1.com", "notgoogle.com", "com", ""} {
		if c.Match(host) {
			t.Errorf("Match(%q) = true, want false", host)
		}
	}
}

func TestCorpusMatch_UserContentHosts(t *testing.T) {
	c, err := LoadCorpus(strings.NewReader("paypal.com\nwordpress.com\nmedium.com\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		host string
		want bool
	}{
		{"wordpress.com", true},
		{"www.wordpress.com", true},
		{"medium.com", true},
		{"www.paypal.com", true},
		{"paypal-login.wordpress.com", false},
		{"www.secure-paypal.wordpress.com", false},
		{"verify.medium.com", false},
	}
	for _, tt := range tests {
		if got := c.Match(tt.host); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}

	if !c.userHosted("paypal-login.wordpress.com") {
		t.Error("userHosted(paypal-login.wordpress.com) = false, want true")
	}
	if c.userHosted("wordpress.com") || c.userHosted("paypal.com") {
		t.Error("userHosted reported a registrable domain as user hosted")
	}
}

func TestLoadCorpus_Empty(t *testing.T) {
	_, err := LoadCorpus(strings.NewReader("# only a comment\n\n"))
	if !errors.Is(err, errEmptyCorpus) {
		t.Errorf("error = %v, want %v", err, errEmptyCorpus)
	}
}

func TestLoadCorpusFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domains.txt")
	if err := os.WriteFile(path, []byte("example.org\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	c, err := LoadCorpusFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 1 || !c.Match("example.org") {
		t.Errorf("corpus = %+v, want only example.org", c.domains)
	}

	if _, err := LoadCorpusFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestDefaultCorpus(t *testing.T) {
	c, err := DefaultCorpus()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() < 50 {
		t.Errorf("Len = %d, want a populated corpus", c.Len())
	}
	for _, host := range []string{"paypal.com", "www.google.com", "login.microsoftonline.com"} {
		if !c.Match(host) {
			t.Errorf("Match(%q) = false, want true", host)
		}
	}
}

func TestCorpus_Closest(t *testing.T) {
	c, err := LoadCorpus(strings.NewReader("amazon.com\napple.com\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	near, score := c.Closest("arnazon.com")
	if near != "amazon.com" {
		t.Errorf("Closest = %q, want %q", near, "amazon.com")
	}
	if score != 81.82 {
		t.Errorf("score = %v, want 81.82", score)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 100},
		{"abc", "abc", 100},
		{"abc", "", 0},
		{"abc", "xyz", 0},
		{"kitten", "sitting", 57.14},
		{"paypa1.com", "paypal.com", 90},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if got := similarity(tt.a, tt.b); got != tt.want {
				t.Errorf("similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := similarity(tt.b, tt.a); got != tt.want {
				t.Errorf("similarity not symmetric for %q, %q: %v", tt.a, tt.b, got)
			}
		})
	}
}

func TestLevenshtein(t *testing.T) {
	if d := levenshtein([]rune("flaw"), []rune("lawn")); d != 2 {
		t.Errorf("levenshtein(flaw, lawn) = %d, want 2", d)
	}
	if d := levenshtein([]rune("gumbo"), []rune("gambol")); d != 2 {
		t.Errorf("levenshtein(gumbo, gambol) = %d, want 2", d)
	}
}
