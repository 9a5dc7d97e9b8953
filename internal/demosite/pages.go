package demosite

// PageVersion is one version of a page: body, headers and cookies.
type PageVersion struct {
	Body        string
	ContentType string
	Status      int
	Headers     map[string]string
	Cookies     []CookieDef
}

// CookieDef defines a cookie to be set.
type CookieDef struct {
	Name     string
	Value    string
	Path     string
	HttpOnly bool
	Secure   bool
	SameSite string // "Strict", "Lax", "None", or ""
}

// PageDefinition holds all versions of a single path.
type PageDefinition struct {
	Path        string
	Description string
	Versions    map[int]PageVersion
}

// GetAllPages returns all demo page definitions.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		homePage(),
		aboutPage(),
		shopPage(),
		robotsTxt(),
		sitemapXML(),
		productsAPI(),
	}
}

// ===== HOME PAGE =====
// v1 is a bare page, v2 adds analytics and partial hardening, v3 is a
// fully hardened storefront with more APIs.
func homePage() PageDefinition {
	return PageDefinition{
		Path:        "/",
		Description: "Home page; security headers and tracking scripts change per version",
		Versions: map[int]PageVersion{
			1: {
				Body: `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>Demo Site</title>
    <meta name="description" content="A small site for trying out SiteLens">
    <script src="/static/app.js"></script>
</head>
<body>
    <h1>Welcome to Demo Site</h1>
    <nav>
        <a href="/">Home</a> |
        <a href="/about">About</a> |
        <a href="/shop">Shop</a>
    </nav>
    <img src="/static/hero.jpg">
    <script>
        fetch("/api/products").then(r => r.json()).then(console.log);
    </script>
</body>
</html>`,
				Headers: map[string]string{
					"Server": "demosite/1.0",
				},
			},
			2: {
				Body: `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Demo Site</title>
    <meta name="description" content="A small site for trying out SiteLens">
    <meta property="og:title" content="Demo Site">
    <meta property="og:image" content="/static/og.png">
    <link rel="stylesheet" href="/static/site.css">
    <script async src="https://www.googletagmanager.com/gtag/js?id=G-DEMO123"></script>
    <script src="https://code.jquery.com/jquery-3.7.1.min.js"></script>
    <script src="/static/app.js"></script>
</head>
<body>
    <h1>Welcome to Demo Site</h1>
    <nav>
        <a href="/">Home</a> |
        <a href="/about">About</a> |
        <a href="/shop">Shop</a>
    </nav>
    <img src="/static/hero.jpg" alt="Hero">
    <a href="https://twitter.com/demosite">Twitter</a>
    <script>
        window.dataLayer = window.dataLayer || [];
        function gtag(){dataLayer.push(arguments);}
        gtag('js', new Date());
        fetch("/api/products").then(r => r.json()).then(console.log);
        $.get("/api/cart");
    </script>
</body>
</html>`,
				Headers: map[string]string{
					"Server":          "demosite/1.0",
					"X-Frame-Options": "SAMEORIGIN",
				},
				Cookies: []CookieDef{
					{Name: "_ga", Value: "GA1.1.12345", Path: "/"},
				},
			},
			3: {
				Body: `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Demo Site - Shop Smarter</title>
    <meta name="description" content="A small site for trying out SiteLens">
    <meta property="og:title" content="Demo Site">
    <meta property="og:image" content="/static/og.png">
    <meta name="twitter:card" content="summary_large_image">
    <link rel="manifest" href="/manifest.json">
    <link rel="stylesheet" href="/static/site.css">
    <link rel="stylesheet" href="https://fonts.googleapis.com/css2?family=Inter">
    <script async src="https://www.googletagmanager.com/gtag/js?id=G-DEMO123"></script>
    <script src="https://js.stripe.com/v3/"></script>
    <script src="/static/app.js" integrity="sha384-demo" crossorigin="anonymous"></script>
    <script type="application/ld+json">
    {"@context": "https://schema.org", "@type": "Organization", "name": "Demo Site", "url": "/"}
    </script>
</head>
<body>
    <header>
        <h1>Welcome to Demo Site</h1>
        <nav aria-label="Main">
            <a href="/">Home</a> |
            <a href="/about">About</a> |
            <a href="/shop">Shop</a>
        </nav>
    </header>
    <main>
        <img src="/static/hero.jpg" alt="Hero" loading="lazy">
        <form action="/api/newsletter" method="post">
            <label for="email">Email</label>
            <input type="email" id="email" name="email">
            <button type="submit">Subscribe</button>
        </form>
    </main>
    <footer>
        <a href="https://twitter.com/demosite">Twitter</a>
        <a href="https://github.com/demosite">GitHub</a>
        <a href="mailto:hello@demosite.test">hello@demosite.test</a>
    </footer>
    <script>
        fetch("/api/products?page=1").then(r => r.json()).then(console.log);
        fetch("/api/cart", {method: "POST", body: JSON.stringify({id: 1})});
        const ws = new WebSocket("wss://" + location.host + "/ws/updates");
    </script>
</body>
</html>`,
				Headers: map[string]string{
					"Server":                    "demosite/1.1",
					"X-Frame-Options":           "DENY",
					"X-Content-Type-Options":    "nosniff",
					"Content-Security-Policy":   "default-src 'self'; script-src 'self' https://js.stripe.com https://www.googletagmanager.com",
					"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
					"Referrer-Policy":           "strict-origin-when-cross-origin",
					"Permissions-Policy":        "camera=(), microphone=()",
					"Cache-Control":             "public, max-age=300",
				},
				Cookies: []CookieDef{
					{Name: "_ga", Value: "GA1.1.12345", Path: "/"},
					{Name: "session", Value: "s3cr3t", Path: "/", HttpOnly: true, Secure: true, SameSite: "Strict"},
				},
			},
		},
	}
}

// ===== ABOUT PAGE =====
func aboutPage() PageDefinition {
	return PageDefinition{
		Path:        "/about",
		Description: "About page; a deep scan target with its own API calls",
		Versions: map[int]PageVersion{
			1: {
				Body: `<!DOCTYPE html>
<html lang="en">
<head><title>About - Demo Site</title></head>
<body>
    <h1>About us</h1>
    <p>We sell demo things. Call +1 555 0100.</p>
    <script>fetch("/api/team")</script>
</body>
</html>`,
			},
		},
	}
}

// ===== SHOP PAGE =====
func shopPage() PageDefinition {
	return PageDefinition{
		Path:        "/shop",
		Description: "Storefront; disappears in v3 to exercise 404 handling",
		Versions: map[int]PageVersion{
			1: {
				Body: `<!DOCTYPE html>
<html lang="en">
<head><title>Shop - Demo Site</title></head>
<body>
    <h1>Shop</h1>
    <div class="product" itemscope itemtype="https://schema.org/Product">
        <span itemprop="name">Demo Mug</span>
        <span class="price">$12.00</span>
        <button class="add-to-cart">Add to cart</button>
    </div>
    <a href="/cart">Cart</a>
    <script>fetch("/api/cart")</script>
</body>
</html>`,
			},
			3: {
				Status: 404,
				Body:   `<!DOCTYPE html><html><head><title>Not Found</title></head><body>Gone.</body></html>`,
			},
		},
	}
}

func robotsTxt() PageDefinition {
	return PageDefinition{
		Path:        "/robots.txt",
		Description: "robots.txt referencing the sitemap",
		Versions: map[int]PageVersion{
			1: {
				ContentType: "text/plain",
				Body: `User-agent: *
Disallow: /admin
Sitemap: /sitemap.xml
`,
			},
		},
	}
}

func sitemapXML() PageDefinition {
	return PageDefinition{
		Path:        "/sitemap.xml",
		Description: "XML sitemap",
		Versions: map[int]PageVersion{
			1: {
				ContentType: "application/xml",
				Body: `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
    <url><loc>/</loc></url>
    <url><loc>/about</loc></url>
    <url><loc>/shop</loc></url>
</urlset>`,
			},
		},
	}
}

func productsAPI() PageDefinition {
	return PageDefinition{
		Path:        "/api/products",
		Description: "JSON API the home page calls",
		Versions: map[int]PageVersion{
			1: {
				ContentType: "application/json",
				Body:        `[{"id":1,"name":"Demo Mug","price":12}]`,
			},
		},
	}
}
