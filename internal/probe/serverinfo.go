package probe

import (
	"context"
	"net"
	"net/http"

	"github.com/oschwald/geoip2-golang"
	"github.com/raysh454/sitelens/internal/logging"
	"github.com/raysh454/sitelens/internal/model"
)

// GeoLocator maps an IP address to a location.
type GeoLocator interface {
	Locate(ip net.IP) (*model.GeoLocation, error)
}

// MaxMindLocator reads a GeoLite2/GeoIP2 City database.
type MaxMindLocator struct {
	db *geoip2.Reader
}

func OpenMaxMind(path string) (*MaxMindLocator, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &MaxMindLocator{db: db}, nil
}

func (m *MaxMindLocator) Locate(ip net.IP) (*model.GeoLocation, error) {
	rec, err := m.db.City(ip)
	if err != nil {
		return nil, err
	}
	loc := &model.GeoLocation{
		Country:     rec.Country.Names["en"],
		CountryCode: rec.Country.IsoCode,
		City:        rec.City.Names["en"],
		Continent:   rec.Continent.Names["en"],
		Latitude:    rec.Location.Latitude,
		Longitude:   rec.Location.Longitude,
		Timezone:    rec.Location.TimeZone,
	}
	if len(rec.Subdivisions) > 0 {
		loc.Region = rec.Subdivisions[0].Names["en"]
	}
	return loc, nil
}

func (m *MaxMindLocator) Close() error {
	return m.db.Close()
}

type cdnHeader struct {
	header   string
	provider string
}

// cdnHeaders are checked in order; the first header present wins.
var cdnHeaders = []cdnHeader{
	{"Cf-Ray", "Cloudflare"},
	{"X-Amz-Cf-Id", "CloudFront"},
	{"X-Akamai-Transformed", "Akamai"},
	{"X-Fastly-Request-Id", "Fastly"},
	{"X-Cdn", ""},
}

// DetectCDN applies the ordered CDN header list. A bare X-CDN header names
// the provider by its value, or "CDN" when empty.
func DetectCDN(h http.Header) (provider string, ok bool) {
	for _, c := range cdnHeaders {
		v := h.Get(c.header)
		if v == "" {
			continue
		}
		if c.provider != "" {
			return c.provider, true
		}
		return v, true
	}
	return "", false
}

type ServerInfoProbe struct {
	resolver Resolver
	geo      GeoLocator
	logger   logging.Logger
}

// NewServerInfoProbe builds the probe. geo may be nil, in which case no
// location is reported.
func NewServerInfoProbe(resolver Resolver, geo GeoLocator, logger logging.Logger) *ServerInfoProbe {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &ServerInfoProbe{resolver: resolver, geo: geo, logger: logger.With(logging.Field{Key: "probe", Value: "serverinfo"})}
}

func (p *ServerInfoProbe) Probe(ctx context.Context, host string, headers http.Header) *model.ServerInfo {
	info := &model.ServerInfo{
		ServerSoftware: headers.Get("Server"),
		PoweredBy:      headers.Get("X-Powered-By"),
	}
	info.CDNProvider, info.CDNDetected = DetectCDN(headers)

	v4, v6, err := FirstAddress(ctx, p.resolver, host)
	if err != nil {
		p.logger.Debug("no address for host", logging.Field{Key: "host", Value: host})
		return info
	}
	if v4 != nil {
		info.IP = v4.String()
	}
	if v6 != nil {
		info.IPv6 = v6.String()
	}

	if p.geo != nil && v4 != nil {
		loc, err := p.geo.Locate(v4)
		if err != nil {
			p.logger.Debug("geolocation failed", logging.Field{Key: "ip", Value: info.IP}, logging.Field{Key: "error", Value: err})
		} else {
			info.Location = loc
		}
	}
	return info
}
