package utils

import "testing"

func TestExtractURLs(t *testing.T) {
	urls := ExtractURLs("see https://example.com/a and http://other.org")
	if len(urls) != 2 {
		t.Fatalf("expected 2 urls, got %d", len(urls))
	}
	if urls[0] != "https://example.com/a" {
		t.Fatalf("unexpected first url %q", urls[0])
	}
}

func TestExtractURLsNone(t *testing.T) {
	if urls := ExtractURLs("no links here"); len(urls) != 0 {
		t.Fatalf("expected no urls, got %v", urls)
	}
}

func TestHostOf(t *testing.T) {
	host, err := HostOf("https://Example.COM/path?x=1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host != "example.com" {
		t.Fatalf("expected example.com, got %q", host)
	}
}

func TestHostOfIDN(t *testing.T) {
	host, err := HostOf("https://bücher.example/x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host != "xn--bcher-kva.example" {
		t.Fatalf("expected punycode host, got %q", host)
	}
}

func TestAllowedDomain(t *testing.T) {
	allow := map[string]struct{}{"example.com": {}}
	if !AllowedDomain("example.com", allow) {
		t.Fatalf("exact match should be allowed")
	}
	if !AllowedDomain("docs.example.com", allow) {
		t.Fatalf("subdomain should be allowed")
	}
	if AllowedDomain("example.org", allow) {
		t.Fatalf("example.org should not be allowed")
	}
}
