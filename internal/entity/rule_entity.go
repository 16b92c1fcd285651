package entity

import "fmt"

type Classification string

const (
	ClassificationProxy  Classification = "PROXY"
	ClassificationDirect Classification = "DIRECT"
)

func (c Classification) Valid() bool {
	return c == ClassificationProxy || c == ClassificationDirect
}

// Key is the lower-case name used for storage keys and public file names.
func (c Classification) Key() string {
	if c == ClassificationProxy {
		return "proxy"
	}
	return "direct"
}

func ParseClassification(s string) (Classification, error) {
	switch s {
	case "PROXY", "proxy", "Proxy":
		return ClassificationProxy, nil
	case "DIRECT", "direct", "Direct":
		return ClassificationDirect, nil
	}
	return "", fmt.Errorf("unknown classification %q (valid: proxy, direct)", s)
}

type MatchType string

const (
	MatchDomain        MatchType = "DOMAIN"
	MatchDomainSuffix  MatchType = "DOMAIN-SUFFIX"
	MatchDomainKeyword MatchType = "DOMAIN-KEYWORD"
	MatchIPCIDR        MatchType = "IP-CIDR"
	MatchDstPort       MatchType = "DST-PORT"
	MatchProcessName   MatchType = "PROCESS-NAME"
	MatchGeoIP         MatchType = "GEOIP"
	MatchGeoSite       MatchType = "GEOSITE"
)

var MatchTypes = []MatchType{
	MatchDomain,
	MatchDomainSuffix,
	MatchDomainKeyword,
	MatchIPCIDR,
	MatchDstPort,
	MatchProcessName,
	MatchGeoIP,
	MatchGeoSite,
}

func (m MatchType) Valid() bool {
	for _, known := range MatchTypes {
		if m == known {
			return true
		}
	}
	return false
}

// Rule is a view-model record recomputed from rule-file text on every read.
// The (Classification, MatchType, Value) triple is its only identity.
type Rule struct {
	Classification Classification `json:"type"`
	MatchType      MatchType      `json:"matchType"`
	Value          string         `json:"domain"`
}

// RuleSet holds the raw text of both rule files.
type RuleSet struct {
	Proxy  string `json:"proxy"`
	Direct string `json:"direct"`
}

func (s RuleSet) Text(c Classification) string {
	if c == ClassificationProxy {
		return s.Proxy
	}
	return s.Direct
}

func (s *RuleSet) SetText(c Classification, text string) {
	if c == ClassificationProxy {
		s.Proxy = text
		return
	}
	s.Direct = text
}
