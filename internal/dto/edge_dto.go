package dto

// EdgeAddRuleRequest is the POST /api/rules body. Domain holds any rule
// value (host, CIDR, port).
type EdgeAddRuleRequest struct {
	Domain    string `json:"domain" validate:"required"`
	Type      string `json:"type" validate:"required,oneof=PROXY DIRECT"`
	MatchType string `json:"matchType" validate:"required"`
}

// EdgeSaveRulesRequest is the PUT /api/rules body.
type EdgeSaveRulesRequest struct {
	Direct *string `json:"direct" validate:"required"`
	Proxy  *string `json:"proxy" validate:"required"`
}

type EdgeRulesResponse struct {
	Direct string `json:"direct"`
	Proxy  string `json:"proxy"`
}
