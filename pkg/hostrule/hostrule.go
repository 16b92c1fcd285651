// Package hostrule turns a page host into the value stored for a rule.
package hostrule

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"clash-rulesync/internal/entity"
)

var (
	ipv4Pattern = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
	ipv6Pattern = regexp.MustCompile(`^([0-9a-fA-F]{0,4}:){2,7}[0-9a-fA-F]{0,4}$`)

	// Second-level labels that make the registrable domain three labels long.
	secondLevelLabels = map[string]bool{
		"co":  true,
		"com": true,
		"net": true,
		"org": true,
		"gov": true,
		"edu": true,
		"ac":  true,
	}

	ErrPortRequired = errors.New("DST-PORT needs a port")
	ErrEmptyHost    = errors.New("empty host")
)

// IsIPAddress is a shape check only: octets are not range-checked.
func IsIPAddress(host string) bool {
	return ipv4Pattern.MatchString(host) || ipv6Pattern.MatchString(host)
}

// ExtractRootDomain keeps the last two labels, or three when the
// second-to-last label is a common second-level label such as "co" in co.uk.
func ExtractRootDomain(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}
	if len(parts) >= 3 && secondLevelLabels[parts[len(parts)-2]] {
		return strings.Join(parts[len(parts)-3:], ".")
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

// DeriveValue computes what gets written after "TYPE," in the rule line.
func DeriveValue(host, port string, matchType entity.MatchType) (string, error) {
	switch matchType {
	case entity.MatchIPCIDR:
		if host == "" {
			return "", ErrEmptyHost
		}
		return host + "/32", nil
	case entity.MatchDstPort:
		if port == "" {
			return "", ErrPortRequired
		}
		return port, nil
	case entity.MatchDomainSuffix:
		if host == "" {
			return "", ErrEmptyHost
		}
		if IsIPAddress(host) {
			return host, nil
		}
		return ExtractRootDomain(host), nil
	default:
		if host == "" {
			return "", ErrEmptyHost
		}
		return host, nil
	}
}

// SuggestMatchTypes lists the match types that make sense for a target,
// preferred type first.
func SuggestMatchTypes(host, port string) []entity.MatchType {
	var types []entity.MatchType
	if IsIPAddress(host) {
		types = []entity.MatchType{entity.MatchIPCIDR}
	} else {
		types = []entity.MatchType{entity.MatchDomainSuffix, entity.MatchDomain, entity.MatchDomainKeyword}
	}
	if port != "" {
		types = append(types, entity.MatchDstPort)
	}
	return types
}

func DefaultMatchType(host string) entity.MatchType {
	if IsIPAddress(host) {
		return entity.MatchIPCIDR
	}
	return entity.MatchDomainSuffix
}

// Target is a host with the port as written in the page URL.
type Target struct {
	Host string
	Port string
}

// FromURL accepts a full URL or a bare host[:port]. IPv6 brackets are
// stripped; the port is empty unless it appears explicitly.
func FromURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, ErrEmptyHost
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("parse %q: %w", raw, err)
	}
	host := u.Hostname()
	if host == "" {
		return Target{}, ErrEmptyHost
	}
	return Target{Host: host, Port: u.Port()}, nil
}
