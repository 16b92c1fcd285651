// Package ruletext reads and mutates proxy-daemon rule files line by line.
//
// A rule file is a YAML document whose meaningful content is a top-level
// "payload:" key followed by "  - TYPE,value[,policy]" entries. Everything else
// (comments, blank lines, odd indentation) is opaque and survives every
// mutation byte for byte. Duplicate detection is an exact substring match of
// the rendered line: "DOMAIN-SUFFIX,Example.com" and "DOMAIN-SUFFIX,example.com"
// are different rules, and no CIDR containment is attempted.
package ruletext

import (
	"regexp"
	"strings"

	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/pkg/apperr"
)

const (
	// PayloadHeader is the only structure the line model relies on.
	PayloadHeader = "payload:"

	// EmptyDocument is written by clear-all and served for missing keys.
	EmptyDocument = "payload: []"
)

var rulePattern = regexp.MustCompile(`^\s*-\s*([A-Z-]+),(.+)$`)

// RenderLine returns the exact line written for a rule, without newline.
func RenderLine(matchType entity.MatchType, value string) string {
	return "  - " + string(matchType) + "," + value
}

// ParseLine extracts the match type and value of a list item. Lines that are
// not rule entries report ok=false.
func ParseLine(line string) (matchType entity.MatchType, value string, ok bool) {
	m := rulePattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return entity.MatchType(m[1]), strings.TrimSpace(m[2]), true
}

// Parse returns the rules found in text. The classification comes from the
// file the text was read from, never from line content.
func Parse(text string, classification entity.Classification) []entity.Rule {
	var rules []entity.Rule
	for _, line := range strings.Split(text, "\n") {
		matchType, value, ok := ParseLine(line)
		if !ok {
			continue
		}
		rules = append(rules, entity.Rule{
			Classification: classification,
			MatchType:      matchType,
			Value:          value,
		})
	}
	return rules
}

// ParseRuleSet parses both files, proxy rules first.
func ParseRuleSet(set entity.RuleSet) []entity.Rule {
	rules := Parse(set.Proxy, entity.ClassificationProxy)
	return append(rules, Parse(set.Direct, entity.ClassificationDirect)...)
}

// Contains reports whether the rendered rule line occurs anywhere in text.
func Contains(text string, matchType entity.MatchType, value string) bool {
	return strings.Contains(text, RenderLine(matchType, value))
}

// Append adds a rule line with a trailing newline. Text without a payload
// header is replaced by a fresh "payload:" document first, and an inline empty
// list ("payload: []") is opened into a block header. A duplicate leaves text
// untouched and returns apperr.ErrRuleExists.
func Append(text string, matchType entity.MatchType, value string) (string, error) {
	base, opened := openEmptyList(text)
	if !opened && !strings.Contains(base, PayloadHeader) {
		base = PayloadHeader
	}
	if !strings.HasSuffix(base, "\n") {
		base += "\n"
	}
	line := RenderLine(matchType, value)
	if strings.Contains(base, line) {
		return text, apperr.ErrRuleExists
	}
	return base + line + "\n", nil
}

// AppendEntry is the edge store's append: the line goes after a leading
// newline and the document never ends in one. Empty text starts as "payload:".
func AppendEntry(text string, matchType entity.MatchType, value string) (string, error) {
	base := text
	if base == "" {
		base = PayloadHeader
	}
	base, _ = openEmptyList(base)
	line := RenderLine(matchType, value)
	if strings.Contains(base, line) {
		return text, apperr.ErrRuleExists
	}
	return base + "\n" + line, nil
}

// openEmptyList rewrites the first line that is exactly "payload: []" into
// the block header.
func openEmptyList(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == EmptyDocument {
			lines[i] = PayloadHeader
			return strings.Join(lines, "\n"), true
		}
	}
	return text, false
}

// Remove deletes the first whole line equal to the rendered rule, together
// with its newline when it has one.
func Remove(text string, matchType entity.MatchType, value string) (string, bool) {
	line := RenderLine(matchType, value)
	for from := 0; from <= len(text); {
		i := strings.Index(text[from:], line)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(line)
		rest := text[end:]
		if start == 0 || text[start-1] == '\n' {
			switch {
			case rest == "":
				return text[:start], true
			case strings.HasPrefix(rest, "\n"):
				return text[:start] + rest[1:], true
			case strings.HasPrefix(rest, "\r\n"):
				return text[:start] + rest[2:], true
			}
		}
		from = start + 1
	}
	return text, false
}

var whitespace = regexp.MustCompile(`\s+`)

// Format normalizes rule entries to "  - a,b[,c]" and the header to
// "payload:". Blank lines, comments and anything unrecognized are kept.
func Format(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if trimmed == PayloadHeader {
			lines[i] = PayloadHeader
			continue
		}
		if strings.HasPrefix(trimmed, "-") {
			cleaned := whitespace.ReplaceAllString(strings.TrimPrefix(trimmed, "-"), "")
			parts := strings.Split(cleaned, ",")
			if len(parts) >= 2 {
				lines[i] = "  - " + strings.Join(parts, ",")
			}
		}
	}
	return strings.Join(lines, "\n")
}

// Stats counts list entries the way the rule editor summarizes a file.
type Stats struct {
	Total   int `json:"total"`
	Domain  int `json:"domain"`
	Suffix  int `json:"suffix"`
	Keyword int `json:"keyword"`
}

func CountStats(text string) Stats {
	var s Stats
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "- ") {
			continue
		}
		s.Total++
		if strings.Contains(line, "DOMAIN,") {
			s.Domain++
		}
		if strings.Contains(line, "DOMAIN-SUFFIX,") {
			s.Suffix++
		}
		if strings.Contains(line, "DOMAIN-KEYWORD,") {
			s.Keyword++
		}
	}
	return s
}

// Export joins both files into one annotated document.
func Export(set entity.RuleSet) string {
	return "# Proxy rules\n" + set.Proxy + "\n\n# Direct rules\n" + set.Direct
}
