package cli

import (
	"fmt"
	"strings"

	"clash-rulesync/internal/entity"
)

// classFlags is the --proxy/--direct pair shared by several commands.
type classFlags struct {
	proxy  bool
	direct bool
}

// resolve returns the selected classification. With required unset, neither
// flag means both files ("").
func (f classFlags) resolve(required bool) (entity.Classification, error) {
	switch {
	case f.proxy && f.direct:
		return "", fmt.Errorf("--proxy and --direct are mutually exclusive")
	case f.proxy:
		return entity.ClassificationProxy, nil
	case f.direct:
		return entity.ClassificationDirect, nil
	case required:
		return "", fmt.Errorf("one of --proxy or --direct is required")
	}
	return "", nil
}

// parseRuleArg splits "TYPE,value" as it appears in a rule line.
func parseRuleArg(arg string) (entity.MatchType, string, error) {
	matchType, value, ok := strings.Cut(strings.TrimSpace(arg), ",")
	if !ok || matchType == "" || strings.TrimSpace(value) == "" {
		return "", "", fmt.Errorf("rule %q must look like TYPE,value (e.g. DOMAIN-SUFFIX,example.com)", arg)
	}
	return entity.MatchType(strings.ToUpper(matchType)), strings.TrimSpace(value), nil
}
