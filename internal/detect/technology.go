package detect

import (
	"regexp"

	"github.com/raysh454/sitelens/internal/model"
)

const htmlOrScripts = SourceHTML | SourceScripts

var frameworkTable = Table{
	sig("React", htmlOrScripts, "react"),
	sig("Vue.js", htmlOrScripts, "vue"),
	sig("Angular", htmlOrScripts, "angular"),
	sig("Next.js", htmlOrScripts, "next", "_next"),
	sig("Nuxt.js", htmlOrScripts, "nuxt"),
	sig("Svelte", htmlOrScripts, "svelte"),
	sig("Ember.js", htmlOrScripts, "ember"),
	sig("Backbone.js", htmlOrScripts, "backbone"),
}

var libraryTable = Table{
	sig("jQuery", htmlOrScripts, "jquery"),
	sig("Bootstrap", SourceHTML|SourceStyles, "bootstrap"),
	sig("Tailwind CSS", SourceHTML|SourceStyles, "tailwind"),
	sig("Lodash", SourceScripts, "lodash"),
	sig("Axios", SourceScripts, "axios"),
	sig("Moment.js", SourceScripts, "moment"),
	sig("Day.js", SourceScripts, "dayjs"),
	sig("Chart.js", SourceScripts, "chart"),
	sig("D3.js", SourceScripts, "d3"),
	sig("Three.js", SourceScripts, "three"),
}

var cmsTable = Table{
	sig("WordPress", SourceHTML, "wordpress", "wp-content"),
	sig("Drupal", SourceHTML, "drupal"),
	sig("Joomla", SourceHTML, "joomla"),
	sig("Wix", SourceHTML, "wix.com"),
	sig("Squarespace", SourceHTML, "squarespace"),
	sig("Shopify", SourceHTML, "shopify"),
	sig("Webflow", SourceHTML, "webflow"),
	sig("Contentful", SourceHTML, "contentful"),
	sig("Ghost", SourceHTML, "ghost"),
	sig("Strapi", SourceHTML, "strapi"),
}

var wordpressVersion = regexp.MustCompile(`wordpress\s*([\d.]+)`)

var analyticsTable = Table{
	sig("Google Analytics", SourceHTML, "google-analytics", "gtag"),
	sig("Facebook Pixel", SourceHTML, "facebook.net/en_us/fbevents"),
	sig("Hotjar", SourceHTML, "hotjar"),
	sig("Mixpanel", SourceHTML, "mixpanel"),
	sig("Segment", SourceHTML, "segment"),
	sig("Amplitude", SourceHTML, "amplitude"),
	sig("Matomo", SourceHTML, "matomo", "piwik"),
	sig("Plausible", SourceHTML, "plausible"),
	sig("Heap", SourceHTML, "heap"),
	sig("Microsoft Clarity", SourceHTML, "clarity.ms"),
}

var tagManagerTable = Table{
	sig("Google Tag Manager", SourceHTML, "googletagmanager"),
	sig("Segment", SourceHTML, "segment"),
}

var hostingTable = Table{
	sig("Vercel", SourceHeaders, "x-vercel-id", "server: vercel"),
	sig("Netlify", SourceHeaders, "x-nf-request-id", "server: netlify"),
	sig("GitHub Pages", SourceHeaders, "x-github-request-id", "server: github.com"),
	sig("Heroku", SourceHeaders, "herokuapp", "via: 1.1 vegur"),
	sig("Firebase Hosting", SourceHTML|SourceScripts, "firebaseapp.com", ".web.app/"),
	sig("Fly.io", SourceHeaders, "fly-request-id"),
}

// cdnTable is evaluated first-match-wins; its order is the provider priority.
var cdnTable = Table{
	sig("Cloudflare", SourceHTML|SourceHeaders, "cloudflare"),
	sig("Akamai", SourceHTML|SourceHeaders, "akamai"),
	sig("Fastly", SourceHTML|SourceHeaders, "fastly"),
	sig("AWS CloudFront", SourceHTML|SourceHeaders, "amazonaws.com", "cloudfront"),
	sig("Azure CDN", SourceHTML, "azureedge.net"),
	sig("jsDelivr", SourceHTML, "jsdelivr"),
	sig("unpkg", SourceHTML, "unpkg"),
	sig("cdnjs", SourceHTML, "cdnjs"),
}

var paymentTable = Table{
	sig("Stripe", SourceHTML, "stripe"),
	sig("PayPal", SourceHTML, "paypal"),
	sig("Square", SourceHTML, "squareup", "square.js", "squarecdn"),
	sig("Braintree", SourceHTML, "braintree"),
	sig("Authorize.Net", SourceHTML, "authorize.net"),
	sig("Razorpay", SourceHTML, "razorpay"),
	sig("Mollie", SourceHTML, "mollie"),
}

var chatTable = Table{
	sig("Intercom", SourceHTML, "intercom"),
	sig("Drift", SourceHTML, "drift"),
	sig("Tawk.to", SourceHTML, "tawk.to"),
	sig("Zendesk", SourceHTML, "zendesk"),
	sig("LiveChat", SourceHTML, "livechat"),
	sig("Crisp", SourceHTML, "crisp"),
	sig("Freshchat", SourceHTML, "freshchat", "freshworks"),
	sig("Facebook Messenger", SourceHTML, "messenger"),
}

var abTestingTable = Table{
	sig("Optimizely", SourceHTML, "optimizely"),
	sig("VWO", SourceHTML, "vwo"),
	sig("AB Tasty", SourceHTML, "ab-tasty"),
	sig("Google Optimize", SourceHTML, "google-optimize"),
}

var fontTable = Table{
	sig("Google Fonts", SourceHTML, "fonts.googleapis"),
	sig("Adobe Fonts", SourceHTML, "typekit"),
	sig("Fonts.com", SourceHTML, "fonts.com"),
	sig("Font Awesome", SourceHTML, "fontawesome"),
}

var mapTable = Table{
	sig("Google Maps", SourceHTML, "maps.googleapis"),
	sig("Mapbox", SourceHTML, "mapbox"),
	sig("OpenStreetMap", SourceHTML, "openstreetmap", "leaflet"),
}

var videoTable = Table{
	sig("YouTube", SourceHTML, "youtube", "youtube.com/embed"),
	sig("Vimeo", SourceHTML, "vimeo", "player.vimeo"),
	sig("Wistia", SourceHTML, "wistia"),
	sig("JW Player", SourceHTML, "jwplayer"),
	sig("Video.js", SourceHTML, "videojs", "video-js"),
}

var emailTable = Table{
	sig("Mailchimp", SourceHTML, "mailchimp"),
	sig("SendGrid", SourceHTML, "sendgrid"),
	sig("Mailgun", SourceHTML, "mailgun"),
	sig("Klaviyo", SourceHTML, "klaviyo"),
	sig("ConvertKit", SourceHTML, "convertkit"),
}

// ecommerceTable is evaluated last-match-wins, with Shopify from the CMS
// table as the starting value.
var ecommerceTable = Table{
	sig("WooCommerce", SourceHTML, "woocommerce"),
	sig("Magento", SourceHTML, "magento"),
	sig("BigCommerce", SourceHTML, "bigcommerce"),
	sig("PrestaShop", SourceHTML, "prestashop"),
}

// DetectTechnologies runs every technology table against in. Categories are
// independent: a page may match several frameworks at once. The CDN provider
// is single-valued and follows cdnTable order.
func DetectTechnologies(in *Input) *model.Technologies {
	tech := &model.Technologies{
		Frameworks:      frameworkTable.Match(in),
		Libraries:       libraryTable.Match(in),
		CMS:             cmsTable.Match(in),
		Analytics:       analyticsTable.Match(in),
		TagManagers:     tagManagerTable.Match(in),
		Hosting:         hostingTable.Match(in),
		CDNProvider:     cdnTable.First(in),
		PaymentGateways: paymentTable.Match(in),
		ChatWidgets:     chatTable.Match(in),
		ABTesting:       abTestingTable.Match(in),
		Fonts:           fontTable.Match(in),
		MapServices:     mapTable.Match(in),
		VideoPlayers:    videoTable.Match(in),
		EmailServices:   emailTable.Match(in),
	}

	if m := wordpressVersion.FindStringSubmatch(in.HTML()); m != nil && contains(tech.CMS, "WordPress") {
		tech.CMSVersion = m[1]
	}
	if contains(tech.CMS, "Shopify") {
		tech.EcommercePlatform = "Shopify"
	}
	if p := ecommerceTable.Last(in); p != "" {
		tech.EcommercePlatform = p
	}
	if tech.EcommercePlatform == "WooCommerce" && !contains(tech.CMS, "WooCommerce") {
		tech.CMS = append(tech.CMS, "WooCommerce")
	}
	return tech
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
