package utils

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

var urlRegex = regexp.MustCompile(`https?://[^\s]+`)

// ExtractURLs returns every http(s) URL occurrence in content, in order.
func ExtractURLs(content string) []string {
	return urlRegex.FindAllString(content, -1)
}

// HostOf parses raw and returns its lowercased, punycoded host.
func HostOf(raw string) (string, error) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	host := strings.ToLower(parsed.Hostname())
	asciiHost, err := idna.ToASCII(host)
	if err == nil {
		host = asciiHost
	}
	return host, nil
}

// AllowedDomain reports whether host or any parent domain is in allow.
func AllowedDomain(host string, allow map[string]struct{}) bool {
	host = strings.ToLower(host)
	for host != "" {
		if _, ok := allow[host]; ok {
			return true
		}
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			return false
		}
		host = host[idx+1:]
	}
	return false
}
