package netinfo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const resolvConfPath = "/etc/resolv.conf"

var (
	errNoAddress = errors.New("no A or AAAA record")
	errNXDomain  = errors.New("domain does not exist")
)

// DNSLookup resolves hostnames with direct A/AAAA queries against a fixed
// set of nameservers. With no nameservers it uses the system resolver.
type DNSLookup struct {
	servers  []string
	client   *dns.Client
	fallback *net.Resolver
}

// NewDNSLookup queries servers ("ip" or "ip:port"). An empty list means the
// nameservers from /etc/resolv.conf. timeout bounds each exchange.
func NewDNSLookup(servers []string, timeout time.Duration) *DNSLookup {
	if len(servers) == 0 {
		servers = systemServers()
	}

	addrs := make([]string, 0, len(servers))
	for _, s := range servers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(s, "53")
		}
		addrs = append(addrs, s)
	}

	return &DNSLookup{
		servers:  addrs,
		client:   &dns.Client{Net: "udp", Timeout: timeout},
		fallback: net.DefaultResolver,
	}
}

func systemServers() []string {
	conf, err := dns.ClientConfigFromFile(resolvConfPath)
	if err != nil || len(conf.Servers) == 0 {
		return nil
	}
	out := make([]string, 0, len(conf.Servers))
	for _, s := range conf.Servers {
		out = append(out, net.JoinHostPort(s, conf.Port))
	}
	return out
}

// LookupIP returns the first IPv4 address of host, or the first IPv6
// address when there is no A record.
func (l *DNSLookup) LookupIP(ctx context.Context, host string) (netip.Addr, error) {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if len(l.servers) == 0 {
		return l.lookupSystem(ctx, host)
	}

	var lastErr error
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		addr, err := l.query(ctx, host, qtype)
		if err == nil {
			return addr, nil
		}
		if errors.Is(err, errNXDomain) {
			return netip.Addr{}, fmt.Errorf("lookup %s: %w", host, err)
		}
		lastErr = err
	}
	return netip.Addr{}, fmt.Errorf("lookup %s: %w", host, lastErr)
}

// query asks each server in turn until one answers authoritatively for qtype.
func (l *DNSLookup) query(ctx context.Context, host string, qtype uint16) (netip.Addr, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	lastErr := errNoAddress
	for _, server := range l.servers {
		if err := ctx.Err(); err != nil {
			return netip.Addr{}, err
		}
		resp, _, err := l.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = fmt.Errorf("%s via %s: %w", dns.TypeToString[qtype], server, err)
			continue
		}
		switch resp.Rcode {
		case dns.RcodeSuccess:
		case dns.RcodeNameError:
			return netip.Addr{}, errNXDomain
		default:
			lastErr = fmt.Errorf("%s via %s: rcode %s", dns.TypeToString[qtype], server, dns.RcodeToString[resp.Rcode])
			continue
		}
		if addr, ok := firstAddress(resp.Answer, qtype); ok {
			return addr, nil
		}
		return netip.Addr{}, errNoAddress
	}
	return netip.Addr{}, lastErr
}

func firstAddress(answer []dns.RR, qtype uint16) (netip.Addr, bool) {
	for _, rr := range answer {
		var ip net.IP
		switch v := rr.(type) {
		case *dns.A:
			if qtype == dns.TypeA {
				ip = v.A
			}
		case *dns.AAAA:
			if qtype == dns.TypeAAAA {
				ip = v.AAAA
			}
		}
		if addr, ok := netip.AddrFromSlice(ip); ok {
			return addr.Unmap(), true
		}
	}
	return netip.Addr{}, false
}

func (l *DNSLookup) lookupSystem(ctx context.Context, host string) (netip.Addr, error) {
	addrs, err := l.fallback.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return netip.Addr{}, err
	}
	for _, a := range addrs {
		if a.Unmap().Is4() {
			return a.Unmap(), nil
		}
	}
	if len(addrs) > 0 {
		return addrs[0], nil
	}
	return netip.Addr{}, fmt.Errorf("lookup %s: %w", host, errNoAddress)
}
