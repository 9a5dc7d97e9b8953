package model

// WebsiteOverview is the merged result of every analyzer and probe. A nil
// field means the category was not computed or timed out; a non-nil field
// with empty contents means it was computed and found nothing.
type WebsiteOverview struct {
	Technologies  *Technologies  `json:"technologies,omitempty"`
	Security      *SecurityFacts `json:"security,omitempty"`
	Performance   *Performance   `json:"performance,omitempty"`
	SEO           *SEOFacts      `json:"seo,omitempty"`
	Accessibility *Accessibility `json:"accessibility,omitempty"`
	Privacy       *Privacy       `json:"privacy,omitempty"`
	Mobile        *Mobile        `json:"mobile,omitempty"`
	PWA           *PWA           `json:"pwa,omitempty"`
	Ecommerce     *Ecommerce     `json:"ecommerce,omitempty"`
	Social        *SocialLinks   `json:"social,omitempty"`
	Structure     *Structure     `json:"structure,omitempty"`
	Content       *Content       `json:"content,omitempty"`
	Contacts      *Contacts      `json:"contacts,omitempty"`
	Forms         *Forms         `json:"forms,omitempty"`
	Media         *Media         `json:"media,omitempty"`
	APIs          *APIFlags      `json:"apis,omitempty"`
	Screenshots   *Screenshots   `json:"screenshots,omitempty"`

	SSLCertificate *TLSCertificate `json:"sslCertificate,omitempty"`
	RobotsTxt      *RobotsTxt      `json:"robotsTxt,omitempty"`
	Sitemap        *Sitemap        `json:"sitemap,omitempty"`
	ConsoleErrors  *ConsoleErrors  `json:"consoleErrors,omitempty"`

	SocialPreviews     *SocialPreviews     `json:"socialPreviews,omitempty"`
	CarbonFootprint    *CarbonFootprint    `json:"carbonFootprint,omitempty"`
	PageWeight         *PageWeight         `json:"pageWeight,omitempty"`
	ThirdPartyServices *ThirdPartyServices `json:"thirdPartyServices,omitempty"`

	WhoisData       *WhoisData       `json:"whoisData,omitempty"`
	DNSRecords      *DNSRecords      `json:"dnsRecords,omitempty"`
	ServerInfo      *ServerInfo      `json:"serverInfo,omitempty"`
	SecurityHeaders *SecurityHeaders `json:"securityHeaders,omitempty"`
	Uptime          *Uptime          `json:"uptime,omitempty"`

	ContactInfo       *ContactInfo       `json:"contactInfo,omitempty"`
	SocialMedia       *SocialMedia       `json:"socialMedia,omitempty"`
	StructuredData    *StructuredData    `json:"structuredData,omitempty"`
	I18n              *I18n              `json:"i18n,omitempty"`
	ExternalLinks     *ExternalLinks     `json:"externalLinks,omitempty"`
	InternalLinks     *InternalLinks     `json:"internalLinks,omitempty"`
	EnhancedTechStack *EnhancedTechStack `json:"enhancedTechStack,omitempty"`
}

// ─── Page-level facts ──────────────────────────────────────────────────

type Technologies struct {
	Frameworks        []string `json:"frameworks"`
	Libraries         []string `json:"libraries"`
	CMS               []string `json:"cms"`
	CMSVersion        string   `json:"cmsVersion,omitempty"`
	Analytics         []string `json:"analytics"`
	TagManagers       []string `json:"tagManagers"`
	Hosting           []string `json:"hosting"`
	CDNProvider       string   `json:"cdnProvider,omitempty"`
	PaymentGateways   []string `json:"paymentGateways"`
	ChatWidgets       []string `json:"chatWidgets"`
	ABTesting         []string `json:"abTesting"`
	Fonts             []string `json:"fonts"`
	MapServices       []string `json:"mapServices"`
	VideoPlayers      []string `json:"videoPlayers"`
	EmailServices     []string `json:"emailServices"`
	EcommercePlatform string   `json:"ecommercePlatform,omitempty"`

	// Fingerprints maps a technology name to its categories as reported by
	// the wappalyzer fingerprint database.
	Fingerprints map[string][]string `json:"fingerprints,omitempty"`
}

type SecurityFacts struct {
	HTTPS                bool              `json:"https"`
	HasCSP               bool              `json:"hasCSP"`
	HasHSTS              bool              `json:"hasHSTS"`
	HasXFrameOptions     bool              `json:"hasXFrameOptions"`
	SubresourceIntegrity bool              `json:"subresourceIntegrity"`
	MixedContent         []string          `json:"mixedContent"`
	Headers              map[string]string `json:"headers"`
}

// PerformanceSource says where the performance numbers came from.
type PerformanceSource string

const (
	PerformanceEstimated PerformanceSource = "estimate"
	PerformanceMeasured  PerformanceSource = "browser"
)

type ResourceCount struct {
	Scripts int `json:"scripts"`
	Styles  int `json:"styles"`
	Images  int `json:"images"`
	Total   int `json:"total"`
}

type Performance struct {
	// LoadTime is in milliseconds.
	LoadTime        int64             `json:"loadTime"`
	PageSize        int               `json:"pageSize"`
	ResourceCount   ResourceCount     `json:"resourceCount"`
	Compression     bool              `json:"compression"`
	Caching         map[string]string `json:"caching"`
	RenderBlocking  []string          `json:"renderBlocking"`
	Recommendations []string          `json:"recommendations"`
	Metrics         *NavigationTiming `json:"metrics,omitempty"`
	WebVitals       *WebVitals        `json:"webVitals,omitempty"`
	Source          PerformanceSource `json:"source"`
}

type Headings struct {
	H1 int `json:"h1"`
	H2 int `json:"h2"`
	H3 int `json:"h3"`
	H4 int `json:"h4"`
	H5 int `json:"h5"`
	H6 int `json:"h6"`
}

type Pagination struct {
	Next string `json:"next,omitempty"`
	Prev string `json:"prev,omitempty"`
}

type SEOFacts struct {
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Keywords       []string          `json:"keywords"`
	CanonicalURL   string            `json:"canonicalUrl,omitempty"`
	OGTags         map[string]string `json:"ogTags"`
	TwitterTags    map[string]string `json:"twitterTags"`
	StructuredData []any             `json:"structuredData"`
	SchemaTypes    []string          `json:"schemaTypes"`
	Breadcrumbs    bool              `json:"breadcrumbs"`
	Headings       Headings          `json:"headings"`
	ImageAltTags   int               `json:"imageAltTags"`
	InternalLinks  int               `json:"internalLinks"`
	ExternalLinks  int               `json:"externalLinks"`
	MetaRobots     string            `json:"metaRobots,omitempty"`
	Hreflang       map[string]string `json:"hreflang"`
	Pagination     Pagination        `json:"pagination"`
	WordCount      int               `json:"wordCount"`
	// ReadingTime is in minutes at 200 words per minute.
	ReadingTime int `json:"readingTime"`
}

type TouchTargets struct {
	Size  string `json:"size"`
	Count int    `json:"count"`
}

// Accessibility holds presence checks plus a simplified WCAG ladder. The
// level is an approximation and not the outcome of a conformance audit.
type Accessibility struct {
	HasAriaLabels     bool         `json:"hasAriaLabels"`
	HasAltText        bool         `json:"hasAltText"`
	ColorContrast     string       `json:"colorContrast"`
	KeyboardNavigable bool         `json:"keyboardNavigable"`
	FormLabels        bool         `json:"formLabels"`
	HeadingStructure  bool         `json:"headingStructure"`
	LandmarkRoles     bool         `json:"landmarkRoles"`
	FocusIndicators   bool         `json:"focusIndicators"`
	SkipLinks         bool         `json:"skipLinks"`
	Lang              bool         `json:"lang"`
	TouchTargets      TouchTargets `json:"touchTargets"`
	WCAG              WCAGLadder   `json:"wcag"`
}

type WCAGLadder struct {
	LevelA   bool `json:"levelA"`
	LevelAA  bool `json:"levelAA"`
	LevelAAA bool `json:"levelAAA"`
}

type CookieBuckets struct {
	Total       int `json:"total"`
	Essential   int `json:"essential"`
	Analytics   int `json:"analytics"`
	Marketing   int `json:"marketing"`
	Preferences int `json:"preferences"`
}

type Privacy struct {
	HasCookieConsent  bool          `json:"hasCookieConsent"`
	HasPrivacyPolicy  bool          `json:"hasPrivacyPolicy"`
	PrivacyPolicyURL  string        `json:"privacyPolicyUrl,omitempty"`
	HasTermsOfService bool          `json:"hasTermsOfService"`
	TermsURL          string        `json:"termsUrl,omitempty"`
	GDPRCompliant     bool          `json:"gdprCompliant"`
	CCPACompliant     bool          `json:"ccpaCompliant"`
	Cookies           CookieBuckets `json:"cookies"`
	Trackers          []string      `json:"trackers"`
}

type Mobile struct {
	HasViewport      bool   `json:"hasViewport"`
	Viewport         string `json:"viewport,omitempty"`
	MobileFriendly   bool   `json:"mobileFriendly"`
	ResponsiveDesign bool   `json:"responsiveDesign"`
	TouchOptimized   bool   `json:"touchOptimized"`
}

type PWA struct {
	HasManifest      bool   `json:"hasManifest"`
	ManifestURL      string `json:"manifestUrl,omitempty"`
	HasServiceWorker bool   `json:"hasServiceWorker"`
	IsInstallable    bool   `json:"isInstallable"`
	OfflineSupport   bool   `json:"offlineSupport"`
}

type Ecommerce struct {
	IsEcommerce      bool   `json:"isEcommerce"`
	Platform         string `json:"platform,omitempty"`
	HasCart          bool   `json:"hasCart"`
	HasReviews       bool   `json:"hasReviews"`
	HasProductSchema bool   `json:"hasProductSchema"`
	ProductCount     int    `json:"productCount"`
	Currency         string `json:"currency,omitempty"`
}

// SocialLinks holds profile links found in anchors, keyed by platform, plus
// the page's Open Graph tags.
type SocialLinks struct {
	Links map[string]string `json:"links"`
	Meta  map[string]string `json:"meta"`
}

type Structure struct {
	HasRobotsTxt bool   `json:"hasRobotsTxt"`
	HasSitemap   bool   `json:"hasSitemap"`
	Responsive   bool   `json:"responsive"`
	Language     string `json:"language"`
}

type Content struct {
	WordCount        int  `json:"wordCount"`
	ReadingTime      int  `json:"readingTime"`
	HeadingHierarchy bool `json:"headingHierarchy"`
	DuplicateContent bool `json:"duplicateContent"`
}

type Contacts struct {
	Emails []string `json:"emails"`
	Phones []string `json:"phones"`
}

type Forms struct {
	Total           int `json:"total"`
	LoginForms      int `json:"loginForms"`
	SearchForms     int `json:"searchForms"`
	ContactForms    int `json:"contactForms"`
	NewsletterForms int `json:"newsletterForms"`
}

type Media struct {
	Videos  int      `json:"videos"`
	Audio   int      `json:"audio"`
	Iframes int      `json:"iframes"`
	Embeds  []string `json:"embeds"`
}

type APIFlags struct {
	HasGraphQL       bool   `json:"hasGraphQL"`
	HasWebSocket     bool   `json:"hasWebSocket"`
	HasREST          bool   `json:"hasREST"`
	SwaggerURL       string `json:"swaggerUrl,omitempty"`
	APIDocumentation string `json:"apiDocumentation,omitempty"`
}

type ConsoleErrors struct {
	Errors        []ConsoleMessage `json:"errors"`
	ErrorCount    int              `json:"errorCount"`
	WarningCount  int              `json:"warningCount"`
	NetworkErrors []NetworkError   `json:"networkErrors"`
}

// ─── Content and link analyzers ────────────────────────────────────────

type ContactForm struct {
	Action string   `json:"url"`
	Method string   `json:"method"`
	Fields []string `json:"fields"`
}

type SocialProfile struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Handle   string `json:"handle,omitempty"`
	Verified bool   `json:"verified"`
}

type ContactInfo struct {
	Emails       []string        `json:"emails"`
	Phones       []string        `json:"phones"`
	Addresses    []string        `json:"addresses"`
	ContactForms []ContactForm   `json:"contactForms"`
	SocialLinks  []SocialProfile `json:"socialLinks"`
}

type SocialMedia struct {
	Platforms        []SocialProfile `json:"platforms"`
	TotalPlatforms   int             `json:"totalPlatforms"`
	HasOfficialLinks bool            `json:"hasOfficialLinks"`
}

type SchemaBlock struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

type StructuredData struct {
	HasStructuredData    bool          `json:"hasStructuredData"`
	Types                []string      `json:"types"`
	Schemas              []SchemaBlock `json:"schemas"`
	ValidationErrors     []string      `json:"validationErrors"`
	RichSnippetsEligible bool          `json:"richSnippetsEligible"`
}

type HreflangTag struct {
	Lang string `json:"lang"`
	URL  string `json:"url"`
}

type I18n struct {
	PrimaryLanguage   string        `json:"primaryLanguage,omitempty"`
	DetectedLanguages []string      `json:"detectedLanguages"`
	HreflangTags      []HreflangTag `json:"hreflangTags"`
	HasHreflang       bool          `json:"hasHreflang"`
	HasTranslations   bool          `json:"hasTranslations"`
	RTLSupport        bool          `json:"rtlSupport"`
}

type LinkCategories struct {
	Social      []string `json:"social"`
	CDN         []string `json:"cdn"`
	Analytics   []string `json:"analytics"`
	Advertising []string `json:"advertising"`
	Affiliate   []string `json:"affiliate"`
	Sponsored   []string `json:"sponsored"`
	Other       []string `json:"other"`
}

type ExternalLinks struct {
	Total         int            `json:"total"`
	Domains       []string       `json:"domains"`
	Categorized   LinkCategories `json:"categorized"`
	FollowedLinks int            `json:"followedLinks"`
	NofollowLinks int            `json:"nofollowLinks"`
}

type InternalLinks struct {
	Total          int      `json:"total"`
	Unique         int      `json:"unique"`
	MaxDepth       int      `json:"maxDepth"`
	OrphanPages    []string `json:"orphanPages"`
	BrokenInternal []string `json:"brokenInternal"`
	RedirectChains []string `json:"redirectChains"`
}

type BackendStack struct {
	Language     string   `json:"language,omitempty"`
	Framework    string   `json:"framework,omitempty"`
	DetectedFrom []string `json:"detectedFrom"`
}

type DatabaseHints struct {
	Evidence []string `json:"evidence"`
}

type ServerStack struct {
	Software string `json:"software,omitempty"`
	Version  string `json:"version,omitempty"`
}

type SecurityStack struct {
	WAF string `json:"waf,omitempty"`
}

type EnhancedTechStack struct {
	Backend   BackendStack   `json:"backend"`
	Database  DatabaseHints  `json:"database"`
	Server    ServerStack    `json:"server"`
	Security  SecurityStack  `json:"security"`
	Marketing MarketingStack `json:"marketing"`
}

type MarketingStack struct {
	Analytics   []string `json:"analytics"`
	TagManager  []string `json:"tagManager"`
	Advertising []string `json:"advertising"`
	Email       []string `json:"email"`
}

type ThirdPartyServices struct {
	Analytics   []string `json:"analytics"`
	Advertising []string `json:"advertising"`
	Social      []string `json:"social"`
	CDN         []string `json:"cdn"`
	Support     []string `json:"support"`
	Payments    []string `json:"payments"`
	Total       int      `json:"total"`
}

// ─── Estimates ─────────────────────────────────────────────────────────

type SocialPreview struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	URL         string `json:"url,omitempty"`
	Type        string `json:"type,omitempty"`
	Card        string `json:"card,omitempty"`
	Site        string `json:"site,omitempty"`
}

type SocialPreviews struct {
	Facebook SocialPreview `json:"facebook"`
	Twitter  SocialPreview `json:"twitter"`
	LinkedIn SocialPreview `json:"linkedin"`
}

// CarbonFootprint is an estimate derived from transferred bytes using fixed
// energy and grid-intensity constants.
type CarbonFootprint struct {
	CO2Grams      float64 `json:"co2Grams"`
	EnergyKWh     float64 `json:"energyKwh"`
	Rating        string  `json:"rating"`
	CleanerThan   int     `json:"cleanerThan"`
	Comparison    string  `json:"comparison"`
	BytesAnalyzed int     `json:"bytesAnalyzed"`
}

// PageWeight is an estimate using fixed per-resource byte multipliers.
type PageWeight struct {
	Total  int `json:"total"`
	HTML   int `json:"html"`
	CSS    int `json:"css"`
	JS     int `json:"js"`
	Images int `json:"images"`
	Fonts  int `json:"fonts"`
	Videos int `json:"videos"`
	Other  int `json:"other"`

	Requests         int      `json:"requests"`
	LargestResources []string `json:"largestResources"`
}
