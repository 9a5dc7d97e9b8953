package probe

import (
	"context"
	"net"
	"strings"
	"sync"

	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
)

// Resolver is the subset of *net.Resolver the probes use.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
}

type DNSProbe struct {
	resolver Resolver
	logger   logging.Logger
}

func NewDNSProbe(resolver Resolver, logger logging.Logger) *DNSProbe {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &DNSProbe{resolver: resolver, logger: logger.With(logging.Field{Key: "probe", Value: "dns"})}
}

// Probe resolves each record type independently; a failed lookup leaves
// that type empty.
func (p *DNSProbe) Probe(ctx context.Context, host string) *model.DNSRecords {
	var (
		wg    sync.WaitGroup
		a     []string
		aaaa  []string
		mx    []model.MXRecord
		txt   []string
		ns    []string
		dmarc string
	)

	wg.Add(6)
	go func() { defer wg.Done(); a = p.ips(ctx, "ip4", host) }()
	go func() { defer wg.Done(); aaaa = p.ips(ctx, "ip6", host) }()
	go func() {
		defer wg.Done()
		mx = make([]model.MXRecord, 0)
		recs, err := p.resolver.LookupMX(ctx, host)
		p.soft("mx", err)
		for _, r := range recs {
			mx = append(mx, model.MXRecord{Exchange: strings.TrimSuffix(r.Host, "."), Priority: r.Pref})
		}
	}()
	go func() {
		defer wg.Done()
		recs, err := p.resolver.LookupTXT(ctx, host)
		p.soft("txt", err)
		txt = append(make([]string, 0, len(recs)), recs...)
	}()
	go func() {
		defer wg.Done()
		ns = make([]string, 0)
		recs, err := p.resolver.LookupNS(ctx, host)
		p.soft("ns", err)
		for _, r := range recs {
			ns = append(ns, strings.TrimSuffix(r.Host, "."))
		}
	}()
	go func() {
		defer wg.Done()
		recs, err := p.resolver.LookupTXT(ctx, "_dmarc."+host)
		p.soft("dmarc", err)
		dmarc = firstWithPrefix(recs, "v=DMARC1")
	}()
	wg.Wait()

	return &model.DNSRecords{
		A:     a,
		AAAA:  aaaa,
		MX:    mx,
		TXT:   txt,
		NS:    ns,
		SPF:   firstWithPrefix(txt, "v=spf1"),
		DMARC: dmarc,
	}
}

func (p *DNSProbe) ips(ctx context.Context, network, host string) []string {
	out := make([]string, 0)
	ips, err := p.resolver.LookupIP(ctx, network, host)
	p.soft(network, err)
	for _, ip := range ips {
		out = append(out, ip.String())
	}
	return out
}

func (p *DNSProbe) soft(kind string, err error) {
	if err != nil {
		p.logger.Debug("dns lookup failed", logging.Field{Key: "type", Value: kind}, logging.Field{Key: "error", Value: err})
	}
}

func firstWithPrefix(values []string, prefix string) string {
	for _, v := range values {
		if strings.HasPrefix(v, prefix) {
			return v
		}
	}
	return ""
}

// FirstAddress returns the first IPv4 address of host, falling back to IPv6.
// IP literals are returned as is.
func FirstAddress(ctx context.Context, r Resolver, host string) (ipv4, ipv6 net.IP, err error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			return ip, nil, nil
		}
		return nil, ip, nil
	}
	if v4, _ := r.LookupIP(ctx, "ip4", host); len(v4) > 0 {
		ipv4 = v4[0]
	}
	if v6, _ := r.LookupIP(ctx, "ip6", host); len(v6) > 0 {
		ipv6 = v6[0]
	}
	if ipv4 == nil && ipv6 == nil {
		return nil, nil, ErrNoAddress
	}
	return ipv4, ipv6, nil
}
