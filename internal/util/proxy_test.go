package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewProxyFunc_Explicit(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "", "internal.local")

	req, _ := http.NewRequest(http.MethodGet, "https://oauth.reddit.com/user/spez", nil)
	u, err := proxy(req)
	if err != nil {
		t.Fatalf("proxy failed: %v", err)
	}
	if u == nil || u.Host != "proxy.local:3128" {
		t.Errorf("expected proxy.local:3128, got %v", u)
	}

	req, _ = http.NewRequest(http.MethodGet, "https://internal.local/x", nil)
	u, err = proxy(req)
	if err != nil {
		t.Fatalf("proxy failed: %v", err)
	}
	if u != nil {
		t.Errorf("expected no proxy for NO_PROXY host, got %v", u)
	}
}

func TestUserAgentTransport(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	client := &http.Client{Transport: &UserAgentTransport{UserAgent: "persona-test/1.0"}}
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()

	if got != "persona-test/1.0" {
		t.Errorf("expected User-Agent persona-test/1.0, got %q", got)
	}
}
