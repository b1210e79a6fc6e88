package xapi

import (
	"testing"
	"time"
)

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("", 0)

	if client.baseURL != DefaultBaseURL {
		t.Errorf("expected base URL %s, got %s", DefaultBaseURL, client.baseURL)
	}
	if client.timeout != 30*time.Second {
		t.Errorf("expected a 30s default timeout, got %v", client.timeout)
	}
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	client := NewClient("http://example.test/", time.Second)

	if client.baseURL != "http://example.test" {
		t.Errorf("expected trimmed base URL, got %s", client.baseURL)
	}
}
