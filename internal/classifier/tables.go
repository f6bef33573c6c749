package classifier

// blockedDomains covers social platforms, maps and directories, review sites,
// booking SaaS, generic site builders and link aggregators.
var blockedDomains = []string{
	// social
	"facebook.com", "fb.com", "instagram.com", "twitter.com", "x.com", "tiktok.com",
	"youtube.com", "pinterest.com", "linkedin.com", "snapchat.com", "threads.net",
	// maps and search
	"google.com", "goo.gl", "g.page", "bing.com", "apple.com", "mapquest.com", "waze.com",
	// directories and reviews
	"yelp.com", "yellowpages.com", "tripadvisor.com", "foursquare.com", "bbb.org",
	"manta.com", "chamberofcommerce.com", "nextdoor.com", "groupon.com", "angi.com",
	"superpages.com", "citysearch.com", "hotfrog.com", "merchantcircle.com", "birdeye.com",
	"nailsalonsnearme.com", "allbiz.com", "cylex.us.com", "n49.com", "loc8nearme.com",
	// booking platforms
	"vagaro.com", "styleseat.com", "booksy.com", "fresha.com", "schedulicity.com",
	"squareup.com", "square.site", "setmore.com", "mindbodyonline.com", "glossgenius.com",
	"salonbiz.com", "booker.com", "zenoti.com",
	// site builders and link pages
	"wixsite.com", "weebly.com", "godaddysites.com", "business.site", "blogspot.com",
	"wordpress.com", "sites.google.com", "linktr.ee", "beacons.ai", "carrd.co",
}

// genericWords are single words too generic to identify one business.
var genericWords = map[string]struct{}{
	"nails":     {},
	"nail":      {},
	"salon":     {},
	"salons":    {},
	"spa":       {},
	"spas":      {},
	"beauty":    {},
	"hair":      {},
	"nailsalon": {},
	"nailspa":   {},
}

// Long tokens are distinctive enough to match anywhere in the domain name.
var longSuspiciousTokens = []string{"review", "directory", "listing", "search"}

// Short tokens only match as a hyphen segment or glued to a generic word,
// so "mapleleafnails" and "findlaynailbar" are not rejected.
var shortSuspiciousTokens = []string{"map", "maps", "guide", "find", "local", "city"}

var positiveKeywords = map[string]int{
	"services":            8,
	"pricing":             8,
	"price list":          8,
	"prices":              6,
	"menu":                5,
	"manicure":            8,
	"pedicure":            8,
	"acrylic":             5,
	"gel":                 4,
	"nail salon":          5,
	"book now":            8,
	"book an appointment": 6,
	"appointment":         6,
	"walk-ins":            5,
	"gift card":           4,
	"our team":            3,
	"about us":            3,
	"contact us":          3,
	"hours":               3,
}

var negativeKeywords = map[string]int{
	"directory":           -15,
	"business listing":    -20,
	"write a review":      -15,
	"claim this business": -20,
	"similar businesses":  -15,
	"nearby businesses":   -10,
	"add a business":      -15,
	"best nail salons":    -15,
	"top 10":              -10,
	"near me":             -10,
	"sponsored":           -5,
	"terms of service":    -5,
}

// directoryPatterns are re-checked after a page passes classification.
var directoryPatterns = []string{
	"claim this business",
	"write a review",
	"business listing",
	"similar businesses",
	"nearby businesses",
	"add a business",
	"people also viewed",
	"sponsored results",
	"see all results",
}
