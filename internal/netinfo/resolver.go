// Package netinfo resolves the final host of an analysis to an IP address
// and a geolocation. Failures are logged and reported as nil fields.
package netinfo

import (
	"context"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/Bahjat/phishguard/backend/internal/fetch"
	"github.com/Bahjat/phishguard/backend/internal/model"
	"github.com/Bahjat/phishguard/backend/internal/platform/requestid"
)

// AddrLookup resolves a hostname to one address.
type AddrLookup interface {
	LookupIP(ctx context.Context, host string) (netip.Addr, error)
}

// Locator geolocates an address.
type Locator interface {
	Locate(ctx context.Context, addr netip.Addr) (*model.Location, error)
}

// Lookup is the outcome of Resolve. Either field may be nil.
type Lookup struct {
	IP       *string
	Location *model.Location
}

// Resolver combines address lookup and geolocation under one timeout.
type Resolver struct {
	dns     AddrLookup
	geo     Locator
	timeout time.Duration
	logger  *slog.Logger
}

// NewResolver returns a Resolver. geo may be nil to disable geolocation.
func NewResolver(lookup AddrLookup, geo Locator, timeout time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{dns: lookup, geo: geo, timeout: timeout, logger: logger}
}

// Resolve never fails: a lookup error yields a nil IP, a geolocation error a
// nil Location. It returns within the resolver timeout.
func (r *Resolver) Resolve(ctx context.Context, host string) Lookup {
	var out Lookup
	host = strings.Trim(host, "[]")
	if host == "" {
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	logger := r.logger.With("host", host, "request_id", requestid.FromContext(ctx))

	addr, err := netip.ParseAddr(host)
	if err != nil {
		addr, err = r.dns.LookupIP(ctx, host)
		if err != nil {
			logger.Warn("address resolution failed", "error", err)
			return out
		}
	}
	ip := addr.String()
	out.IP = &ip

	if r.geo == nil || !fetch.IsPublicAddress(addr) {
		return out
	}
	loc, err := r.geo.Locate(ctx, addr)
	if err != nil {
		logger.Warn("geolocation failed", "ip", ip, "error", err)
		return out
	}
	out.Location = loc
	return out
}
