package dto

import (
	"clash-rulesync/internal/entity"
	"clash-rulesync/pkg/ruletext"
)

// AddRuleRequest is what the operator asks for: a page URL or bare host, and
// where it should go. MatchType is derived from the host when empty. With Raw
// set, Target is stored as the rule value unchanged (CIDRs, GEOSITE names).
type AddRuleRequest struct {
	Target         string                `json:"target" validate:"required"`
	Classification entity.Classification `json:"classification" validate:"required,oneof=PROXY DIRECT"`
	MatchType      entity.MatchType      `json:"matchType"`
	Raw            bool                  `json:"raw"`
}

type RefreshOutcome struct {
	Target   string `json:"target"`
	Provider string `json:"provider"`
	Error    string `json:"error,omitempty"`
}

func (o RefreshOutcome) OK() bool {
	return o.Error == ""
}

type AddRuleResponse struct {
	Rule    entity.Rule      `json:"rule"`
	Refresh []RefreshOutcome `json:"refresh"`
}

type MutationResponse struct {
	Refresh []RefreshOutcome `json:"refresh"`
}

type RuleListResponse struct {
	Rules       []entity.Rule  `json:"rules"`
	ProxyStats  ruletext.Stats `json:"proxyStats"`
	DirectStats ruletext.Stats `json:"directStats"`
}

type SetupResult struct {
	Changed   bool     `json:"changed"`
	Restarted bool     `json:"restarted"`
	Actions   []string `json:"actions"`
}
