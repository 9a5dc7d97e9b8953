package model

import "time"

type RobotsRule struct {
	UserAgent string   `json:"userAgent"`
	Allow     []string `json:"allow"`
	Disallow  []string `json:"disallow"`
}

// RobotsTxt is never omitted: a failed fetch yields Exists=false plus Errors.
type RobotsTxt struct {
	Exists     bool         `json:"exists"`
	Content    string       `json:"content,omitempty"`
	Rules      []RobotsRule `json:"rules"`
	Sitemaps   []string     `json:"sitemaps"`
	CrawlDelay int          `json:"crawlDelay,omitempty"`
	Errors     []string     `json:"errors"`
}

type SitemapURL struct {
	Loc        string `json:"loc"`
	LastMod    string `json:"lastmod,omitempty"`
	ChangeFreq string `json:"changefreq,omitempty"`
	Priority   string `json:"priority,omitempty"`
}

// Sitemap is never omitted: a failed fetch yields Exists=false plus Errors.
type Sitemap struct {
	Exists       bool         `json:"exists"`
	URL          string       `json:"url"`
	IsIndex      bool         `json:"isIndex"`
	URLCount     int          `json:"urlCount"`
	LastModified string       `json:"lastModified,omitempty"`
	URLs         []SitemapURL `json:"urls"`
	Images       int          `json:"images"`
	Videos       int          `json:"videos"`
	Errors       []string     `json:"errors"`
}

type CertificateLink struct {
	Issuer    string    `json:"issuer"`
	Subject   string    `json:"subject"`
	ValidFrom time.Time `json:"validFrom"`
	ValidTo   time.Time `json:"validTo"`
}

type TLSCertificate struct {
	Valid              bool              `json:"valid"`
	Issuer             string            `json:"issuer,omitempty"`
	Subject            string            `json:"subject,omitempty"`
	ValidFrom          time.Time         `json:"validFrom"`
	ValidTo            time.Time         `json:"validTo"`
	DaysUntilExpiry    int               `json:"daysUntilExpiry"`
	SerialNumber       string            `json:"serialNumber,omitempty"`
	SignatureAlgorithm string            `json:"signatureAlgorithm,omitempty"`
	KeySize            int               `json:"keySize,omitempty"`
	Version            int               `json:"version,omitempty"`
	SubjectAltNames    []string          `json:"subjectAltNames"`
	Chain              []CertificateLink `json:"chain"`
	CipherSuite        string            `json:"cipherSuite,omitempty"`
	Protocol           string            `json:"protocol,omitempty"`
	Grade              string            `json:"grade"`
	Warnings           []string          `json:"warnings"`
}

type WhoisData struct {
	Domain         string    `json:"domain"`
	Registrar      string    `json:"registrar"`
	CreatedDate    string    `json:"createdDate,omitempty"`
	ExpiryDate     string    `json:"expiryDate,omitempty"`
	UpdatedDate    string    `json:"updatedDate,omitempty"`
	NameServers    []string  `json:"nameServers"`
	Status         []string  `json:"status"`
	Registrant     string    `json:"registrant,omitempty"`
	Country        string    `json:"country,omitempty"`
	Emails         []string  `json:"emails"`
	DNSSEC         string    `json:"dnssec,omitempty"`
	DomainAgeDays  int       `json:"domainAgeDays,omitempty"`
	Raw            string    `json:"raw,omitempty"`
	QueriedAt      time.Time `json:"queriedAt"`
}

type MXRecord struct {
	Exchange string `json:"exchange"`
	Priority uint16 `json:"priority"`
}

type DNSRecords struct {
	A      []string   `json:"a"`
	AAAA   []string   `json:"aaaa"`
	MX     []MXRecord `json:"mx"`
	TXT    []string   `json:"txt"`
	NS     []string   `json:"ns"`
	SPF    string     `json:"spf,omitempty"`
	DMARC  string     `json:"dmarc,omitempty"`
	DNSSEC bool       `json:"dnssec"`
}

type GeoLocation struct {
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"countryCode,omitempty"`
	Region      string  `json:"region,omitempty"`
	City        string  `json:"city,omitempty"`
	Continent   string  `json:"continent,omitempty"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
	Timezone    string  `json:"timezone,omitempty"`
	ISP         string  `json:"isp,omitempty"`
}

type ServerInfo struct {
	IP             string       `json:"ip,omitempty"`
	IPv6           string       `json:"ipv6,omitempty"`
	Location       *GeoLocation `json:"location,omitempty"`
	ServerSoftware string       `json:"serverSoftware,omitempty"`
	PoweredBy      string       `json:"poweredBy,omitempty"`
	CDNDetected    bool         `json:"cdnDetected"`
	CDNProvider    string       `json:"cdnProvider,omitempty"`
}

type HistoricalData struct {
	WaybackAvailable bool   `json:"waybackAvailable"`
	FirstSnapshot    string `json:"firstSnapshot,omitempty"`
	LastSnapshot     string `json:"lastSnapshot,omitempty"`
	ArchiveURL       string `json:"archiveUrl,omitempty"`
}

type Uptime struct {
	IsOnline     bool            `json:"isOnline"`
	ResponseCode int             `json:"responseCode"`
	// ResponseTime is in milliseconds.
	ResponseTime   int64           `json:"responseTime"`
	LastChecked    time.Time       `json:"lastChecked"`
	HistoricalData *HistoricalData `json:"historicalData,omitempty"`
}

type HSTSHeader struct {
	Present           bool   `json:"present"`
	Value             string `json:"value,omitempty"`
	MaxAge            int    `json:"maxAge,omitempty"`
	IncludeSubDomains bool   `json:"includeSubDomains"`
	Preload           bool   `json:"preload"`
}

type CSPHeader struct {
	Present    bool     `json:"present"`
	Value      string   `json:"value,omitempty"`
	Directives []string `json:"directives"`
}

type HeaderValue struct {
	Present bool   `json:"present"`
	Value   string `json:"value,omitempty"`
}

type SecurityHeaderSet struct {
	StrictTransportSecurity HSTSHeader  `json:"strictTransportSecurity"`
	ContentSecurityPolicy   CSPHeader   `json:"contentSecurityPolicy"`
	XFrameOptions           HeaderValue `json:"xFrameOptions"`
	XContentTypeOptions     HeaderValue `json:"xContentTypeOptions"`
	ReferrerPolicy          HeaderValue `json:"referrerPolicy"`
	PermissionsPolicy       HeaderValue `json:"permissionsPolicy"`
	XXSSProtection          HeaderValue `json:"xXssProtection"`
	ExpectCT                HeaderValue `json:"expectCt"`
}

type SecurityHeaders struct {
	Score           int               `json:"score"`
	MaxScore        int               `json:"maxScore"`
	Grade           string            `json:"grade"`
	Headers         SecurityHeaderSet `json:"headers"`
	MissingHeaders  []string          `json:"missingHeaders"`
	Warnings        []string          `json:"warnings"`
	Recommendations []string          `json:"recommendations"`
}
