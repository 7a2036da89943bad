package fetch

import (
	"net/url"
	"strings"
)

// ResolveURL turns a link found on a page into an absolute URL using the
// page's scheme and host. Absolute links are returned unchanged and
// protocol-relative links get https. It returns "" for an empty link.
func ResolveURL(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}

	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
	}
	if refURL.Scheme != "" {
		// mailto:, tel: and friends are already absolute
		return ref
	}
	if !strings.HasPrefix(ref, "/") && !strings.HasSuffix(baseURL.Path, "/") && baseURL.Path != "" {
		// listing URLs are usually directories even without a trailing slash
		baseURL.Path += "/"
	}
	return baseURL.ResolveReference(refURL).String()
}
