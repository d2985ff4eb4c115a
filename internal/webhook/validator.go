package webhook

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidURL is returned when a target is not a well-formed absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid webhook URL")
	// ErrPrivateIP is returned when a target resolves to a private address.
	ErrPrivateIP = errors.New("private IP addresses not allowed")
	// ErrLocalhostBlocked is returned when a target names localhost.
	ErrLocalhostBlocked = errors.New("localhost not allowed")
)

// MaxURLLength bounds accepted target URLs.
const MaxURLLength = 2048

// BlockedCIDRs contains private/internal IP ranges.
var BlockedCIDRs = []string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"100.64.0.0/10",  // Carrier-grade NAT
	"169.254.0.0/16", // Link-local
	"0.0.0.0/8",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
}

var (
	blockedNetworks []*net.IPNet
	validate        = validator.New()
)

func init() {
	for _, cidr := range BlockedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err == nil {
			blockedNetworks = append(blockedNetworks, network)
		}
	}
}

// ValidateURL accepts a well-formed absolute http or https URL with a host.
// This is the check applied when a webhook is registered.
func ValidateURL(targetURL string) error {
	targetURL = strings.TrimSpace(targetURL)
	if len(targetURL) > MaxURLLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidURL, MaxURLLength)
	}
	if err := validate.Var(targetURL, "required,http_url"); err != nil {
		return fmt.Errorf("%w: must be an absolute http or https URL", ErrInvalidURL)
	}

	parsed, err := url.Parse(targetURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if parsed.Hostname() == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

// ValidateDeliveryTarget blocks localhost and private networks before a delivery.
// Hosts that fail to resolve are left for the HTTP client to report.
func ValidateDeliveryTarget(ctx context.Context, targetURL string) error {
	if err := ValidateURL(targetURL); err != nil {
		return err
	}
	parsed, _ := url.Parse(strings.TrimSpace(targetURL))
	host := parsed.Hostname()

	if isLocalhostHostname(host) {
		return ErrLocalhostBlocked
	}

	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return ErrPrivateIP
		}
		return nil
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil //nolint:nilerr
	}
	for _, addr := range addrs {
		if isBlockedIP(addr.IP) {
			return ErrPrivateIP
		}
	}
	return nil
}

func isLocalhostHostname(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	return host == "localhost" ||
		strings.HasSuffix(host, ".localhost") ||
		strings.HasSuffix(host, ".local")
}

func isBlockedIP(ip net.IP) bool {
	if ip.IsUnspecified() || ip.IsLoopback() {
		return true
	}
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ExtractHost extracts host from URL for safe logging.
// Full URLs may carry secrets in path or query and are never logged.
func ExtractHost(targetURL string) string {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return "(invalid)"
	}
	return parsed.Host
}
