package webhook

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://crm.example.com/hooks/leads", false},
		{"http", "http://example.com/webhook", false},
		{"with port and query", "https://example.com:8443/in?source=buscacontatos", false},
		{"localhost is well-formed", "http://localhost:9000/hook", false},
		{"empty", "", true},
		{"relative", "/hooks/leads", true},
		{"no scheme", "example.com/hook", true},
		{"ftp scheme", "ftp://example.com/file", true},
		{"javascript", "javascript:alert(1)", true},
		{"missing host", "https:///webhook", true},
		{"spaces", "not a url", true},
		{"too long", "https://example.com/" + strings.Repeat("a", MaxURLLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateURL(tt.url)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidURL) {
					t.Errorf("ValidateURL(%q) error = %v, want ErrInvalidURL", tt.url, err)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateURL(%q) unexpected error = %v", tt.url, err)
			}
		})
	}
}

func TestValidateDeliveryTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"localhost", "https://localhost/webhook", ErrLocalhostBlocked},
		{"sub localhost", "https://app.localhost/webhook", ErrLocalhostBlocked},
		{".local domain", "https://printer.local/webhook", ErrLocalhostBlocked},
		{"loopback literal", "http://127.0.0.1:8080/webhook", ErrPrivateIP},
		{"private literal", "http://192.168.0.10/webhook", ErrPrivateIP},
		{"ipv6 loopback", "http://[::1]/webhook", ErrPrivateIP},
		{"public literal", "https://93.184.216.34/webhook", nil},
		{"malformed", "nope", ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateDeliveryTarget(context.Background(), tt.url)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDeliveryTarget(%q) error = %v, want %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestIsBlockedIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ip      string
		blocked bool
	}{
		{"private 10.x", "10.0.0.1", true},
		{"private 172.16.x", "172.16.0.1", true},
		{"private 192.168.x", "192.168.1.1", true},
		{"loopback", "127.0.0.1", true},
		{"link-local", "169.254.1.1", true},
		{"cgnat", "100.64.0.1", true},
		{"unspecified", "0.0.0.0", true},
		{"ipv6 private", "fd00::1", true},
		{"public IP", "8.8.8.8", false},
		{"public IPv6", "2001:4860:4860::8888", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ip := net.ParseIP(tt.ip)
			if ip == nil {
				t.Fatalf("failed to parse IP: %s", tt.ip)
			}
			if got := isBlockedIP(ip); got != tt.blocked {
				t.Errorf("isBlockedIP(%q) = %v, want %v", tt.ip, got, tt.blocked)
			}
		})
	}
}

func TestExtractHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/webhook?token=secret", "example.com"},
		{"https://api.example.com:443/v1", "api.example.com:443"},
		{"invalid-url", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := ExtractHost(tt.url); got != tt.want {
				t.Errorf("ExtractHost(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
