package probe

import (
	"context"
	"strings"
	"time"

	"github.com/likexian/whois"
	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
	"github.com/raysh454/sitelens/internal/utils"
)

// WhoisClient returns the raw WHOIS text for a domain.
type WhoisClient interface {
	Whois(ctx context.Context, domain string) (string, error)
}

// LikexianWhois queries registrars over the WHOIS protocol. The library has
// no context support, so callers bound it with Run.
type LikexianWhois struct {
	client *whois.Client
}

func NewLikexianWhois(timeout time.Duration) *LikexianWhois {
	c := whois.NewClient()
	c.SetTimeout(timeout)
	return &LikexianWhois{client: c}
}

func (w *LikexianWhois) Whois(ctx context.Context, domain string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return w.client.Whois(domain)
}

// whoisAliases lists the field names registrars use for each fact, most
// common first. Keys are matched case-insensitively.
var whoisAliases = map[string][]string{
	"domain":      {"Domain Name", "domain"},
	"registrar":   {"Registrar", "registrar", "Sponsoring Registrar", "Registrar Name"},
	"created":     {"Created Date", "Creation Date", "created", "Registration Time", "Registered on"},
	"expires":     {"Registry Expiry Date", "Expiration Date", "Registrar Registration Expiration Date", "expires", "Expiry date", "paid-till"},
	"updated":     {"Updated Date", "updated", "Last Modified", "last-modified"},
	"nameServers": {"Name Server", "nserver", "Nameservers", "Name Servers"},
	"status":      {"Domain Status", "status"},
	"registrant":  {"Registrant Organization", "Registrant Name", "org", "registrant"},
	"country":     {"Registrant Country", "country"},
	"email":       {"Registrar Abuse Contact Email", "abuse-mailbox"},
	"dnssec":      {"DNSSEC", "dnssec"},
}

var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
	"2006/01/02",
}

type WhoisProbe struct {
	client WhoisClient
	logger logging.Logger
	now    func() time.Time
}

func NewWhoisProbe(client WhoisClient, logger logging.Logger) *WhoisProbe {
	return &WhoisProbe{
		client: client,
		logger: logger.With(logging.Field{Key: "probe", Value: "whois"}),
		now:    time.Now,
	}
}

// Probe looks up the registrable domain of host. Lookup errors degrade to a
// record with registrar "Unavailable"; a response with no recognisable
// fields degrades to "Unknown".
func (p *WhoisProbe) Probe(ctx context.Context, host string) *model.WhoisData {
	domain := utils.RegistrableDomain(host)
	raw, err := p.client.Whois(ctx, domain)
	if err != nil {
		p.logger.Debug("whois lookup failed",
			logging.Field{Key: "domain", Value: domain},
			logging.Field{Key: "error", Value: err})
		return &model.WhoisData{
			Domain:      domain,
			Registrar:   "Unavailable",
			NameServers: []string{},
			Status:      []string{},
			Emails:      []string{},
			QueriedAt:   p.now(),
		}
	}
	return ParseWhois(domain, raw, p.now())
}

// ParseWhois extracts facts from raw WHOIS text through the alias table and
// keeps the raw text alongside them.
func ParseWhois(domain, raw string, now time.Time) *model.WhoisData {
	fields := whoisFields(raw)
	data := &model.WhoisData{
		Domain:      domain,
		Registrar:   "Unknown",
		NameServers: []string{},
		Status:      []string{},
		Emails:      []string{},
		Raw:         raw,
		QueriedAt:   now,
	}
	if len(fields) == 0 {
		return data
	}

	first := func(fact string) string {
		if v := lookupAll(fields, fact); len(v) > 0 {
			return v[0]
		}
		return ""
	}

	if v := first("domain"); v != "" {
		data.Domain = strings.ToLower(v)
	}
	if v := first("registrar"); v != "" {
		data.Registrar = v
	}
	data.CreatedDate = first("created")
	data.ExpiryDate = first("expires")
	data.UpdatedDate = first("updated")
	data.Registrant = first("registrant")
	data.Country = first("country")
	data.DNSSEC = first("dnssec")

	for _, ns := range lookupAll(fields, "nameServers") {
		data.NameServers = append(data.NameServers, strings.ToLower(ns))
	}
	data.NameServers = utils.Dedupe(data.NameServers)
	for _, st := range lookupAll(fields, "status") {
		// "clientTransferProhibited https://icann.org/epp#..." keeps the code only.
		if code, _, _ := strings.Cut(st, " "); code != "" {
			data.Status = append(data.Status, code)
		}
	}
	data.Status = utils.Dedupe(data.Status)
	data.Emails = append(data.Emails, lookupAll(fields, "email")...)

	if created, ok := parseWhoisDate(data.CreatedDate); ok {
		data.DomainAgeDays = int(now.Sub(created).Hours() / 24)
	}
	return data
}

// whoisFields collects "Key: Value" lines, lower-casing keys. Comment and
// notice lines are skipped.
func whoisFields(raw string) map[string][]string {
	out := make(map[string][]string)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%") || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ">>>") {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "" || value == "" || strings.Contains(key, " of ") {
			continue
		}
		out[key] = append(out[key], value)
	}
	return out
}

func lookupAll(fields map[string][]string, fact string) []string {
	for _, alias := range whoisAliases[fact] {
		if v, ok := fields[strings.ToLower(alias)]; ok {
			return v
		}
	}
	return nil
}

func parseWhoisDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range whoisDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
