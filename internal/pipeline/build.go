package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/Bahjat/phishguard/backend/internal/classifier"
	"github.com/Bahjat/phishguard/backend/internal/fetch"
	"github.com/Bahjat/phishguard/backend/internal/lexical"
	"github.com/Bahjat/phishguard/backend/internal/netinfo"
	"github.com/Bahjat/phishguard/backend/internal/platform/config"
	"github.com/Bahjat/phishguard/backend/internal/tld"
	"github.com/Bahjat/phishguard/backend/internal/vector"
)

// FromConfig builds an Engine and all of its collaborators from cfg. The
// reference data is loaded once here and shared read-only by every request.
func FromConfig(cfg config.Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.RequireModel(); err != nil {
		return nil, err
	}

	registry, err := tld.LoadRegistryFile(cfg.TLDRegistryPath)
	if err != nil {
		return nil, err
	}
	corpus, err := lexical.LoadCorpusFile(cfg.CorpusPath)
	if err != nil {
		return nil, err
	}
	assembler := vector.NewAssembler(tld.NewEncoder(registry))

	var clf classifier.Classifier
	if cfg.ModelURL != "" {
		clf = classifier.NewRemote(cfg.ModelURL, assembler.FeatureNames(), nil)
	} else {
		linear, err := classifier.LoadLinearFile(cfg.ModelPath, assembler.Width())
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
		clf = linear
	}

	var geo netinfo.Locator
	if cfg.GeoEnabled {
		geo = netinfo.NewGeoClient(cfg.GeoBaseURL, nil)
	}
	resolver := netinfo.NewResolver(
		netinfo.NewDNSLookup(cfg.DNSServers, cfg.DNSTimeout),
		geo,
		cfg.DNSTimeout,
		logger,
	)

	logger.Info("analysis engine ready",
		"tlds", registry.Len(),
		"reference_domains", corpus.Len(),
		"features", assembler.Width(),
		"remote_model", cfg.ModelURL != "",
	)

	return NewEngine(Deps{
		Fetcher: fetch.NewClient(fetch.Options{
			Timeout:      cfg.ScrapingTimeout,
			MaxRedirects: cfg.MaxRedirects,
			AllowPrivate: cfg.AllowPrivateTargets,
		}),
		Extractor:  lexical.NewExtractor(registry, corpus),
		Resolver:   resolver,
		Assembler:  assembler,
		Classifier: clf,
		Logger:     logger,
	}, Options{
		ScrapingTimeout:    cfg.ScrapingTimeout,
		LookalikeThreshold: cfg.LookalikeThreshold,
	}), nil
}
