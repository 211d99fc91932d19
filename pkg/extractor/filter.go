package extractor

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// FilterLinks keeps the links worth showing for a page: root-relative paths,
// plain http:// links and anything ending in .html. The input is not modified.
func FilterLinks(links []string) []string {
	kept := make([]string, 0, len(links))
	for _, link := range links {
		if strings.HasPrefix(link, "/") || strings.HasPrefix(link, "http://") || strings.HasSuffix(link, ".html") {
			kept = append(kept, link)
		}
	}
	return kept
}

// SameSiteLinks narrows links to those belonging to mainHost: root-relative
// paths, and absolute or protocol-relative http(s) links whose registrable
// domain matches the main host's.
func SameSiteLinks(links []string, mainHost string) []string {
	main, err := url.Parse(mainHost)
	if err != nil {
		return nil
	}
	site := siteKey(main.Hostname())

	kept := make([]string, 0, len(links))
	for _, link := range links {
		if IsRootRelative(link) {
			kept = append(kept, link)
			continue
		}
		// page-relative links such as "page.html" are never same-site
		raw, err := url.Parse(link)
		if err != nil || (!raw.IsAbs() && !strings.HasPrefix(link, "//")) {
			continue
		}
		u := main.ResolveReference(raw)
		if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
			continue
		}
		if siteKey(u.Hostname()) == site {
			kept = append(kept, link)
		}
	}
	return kept
}

// FilterSameSite applies FilterLinks and then SameSiteLinks
func FilterSameSite(links []string, mainHost string) []string {
	return SameSiteLinks(FilterLinks(links), mainHost)
}

// IsRootRelative reports whether link is a path on the current host.
// Protocol-relative links ("//host/path") are not.
func IsRootRelative(link string) bool {
	return strings.HasPrefix(link, "/") && !strings.HasPrefix(link, "//")
}

// Resolve joins a root-relative path onto mainHost and drops any fragment,
// producing the form used as the visited-set key.
func Resolve(mainHost, path string) string {
	if i := strings.IndexByte(path, '#'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		path = "/"
	}
	return strings.TrimSuffix(mainHost, "/") + path
}

// SameSite reports whether two hosts share a registrable domain
func SameSite(a, b string) bool {
	return siteKey(a) == siteKey(b)
}

// siteKey returns the eTLD+1 of host, or the host itself for IP addresses
// and names without a public suffix.
func siteKey(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
