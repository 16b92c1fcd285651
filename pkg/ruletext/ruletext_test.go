package ruletext

import (
	"testing"

	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantType  entity.MatchType
		wantValue string
		wantOK    bool
	}{
		{"suffix", "  - DOMAIN-SUFFIX,example.com", entity.MatchDomainSuffix, "example.com", true},
		{"with policy", "- DOMAIN,google.com,PROXY", entity.MatchDomain, "google.com,PROXY", true},
		{"no indent no space", "-IP-CIDR,10.0.0.0/8", entity.MatchIPCIDR, "10.0.0.0/8", true},
		{"trailing spaces trimmed", "  - GEOSITE,youtube   ", entity.MatchGeoSite, "youtube", true},
		{"header", "payload:", "", "", false},
		{"comment", "# - DOMAIN,example.com", "", "", false},
		{"lower case type", "  - domain,example.com", "", "", false},
		{"missing value", "  - DOMAIN,", "", "", false},
		{"blank", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotValue, ok := ParseLine(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantValue, gotValue)
		})
	}
}

func TestParseSkipsUnrecognizedLines(t *testing.T) {
	text := "# managed\npayload:\n  - DOMAIN-SUFFIX,a.com\n\n  not a rule\n  - DST-PORT,8080\n"

	rules := Parse(text, entity.ClassificationDirect)

	require.Len(t, rules, 2)
	assert.Equal(t, entity.Rule{Classification: entity.ClassificationDirect, MatchType: entity.MatchDomainSuffix, Value: "a.com"}, rules[0])
	assert.Equal(t, entity.Rule{Classification: entity.ClassificationDirect, MatchType: entity.MatchDstPort, Value: "8080"}, rules[1])
}

func TestParseRuleSetProxyFirst(t *testing.T) {
	set := entity.RuleSet{
		Proxy:  "payload:\n  - DOMAIN,p.com\n",
		Direct: "payload:\n  - DOMAIN,d.com\n",
	}

	rules := ParseRuleSet(set)

	require.Len(t, rules, 2)
	assert.Equal(t, entity.ClassificationProxy, rules[0].Classification)
	assert.Equal(t, "p.com", rules[0].Value)
	assert.Equal(t, entity.ClassificationDirect, rules[1].Classification)
}

func TestAppend(t *testing.T) {
	t.Run("appends with trailing newline", func(t *testing.T) {
		got, err := Append("payload:\n  - DOMAIN,a.com\n", entity.MatchDomainSuffix, "b.com")
		require.NoError(t, err)
		assert.Equal(t, "payload:\n  - DOMAIN,a.com\n  - DOMAIN-SUFFIX,b.com\n", got)
	})

	t.Run("missing header resets document", func(t *testing.T) {
		got, err := Append("", entity.MatchDomainSuffix, "b.com")
		require.NoError(t, err)
		assert.Equal(t, "payload:\n  - DOMAIN-SUFFIX,b.com\n", got)

		got, err = Append("garbage", entity.MatchDomain, "c.com")
		require.NoError(t, err)
		assert.Equal(t, "payload:\n  - DOMAIN,c.com\n", got)
	})

	t.Run("inline empty list is opened", func(t *testing.T) {
		got, err := Append(EmptyDocument, entity.MatchDomain, "c.com")
		require.NoError(t, err)
		assert.Equal(t, "payload:\n  - DOMAIN,c.com\n", got)

		got, err = Append("# top\npayload: []\n", entity.MatchDomain, "c.com")
		require.NoError(t, err)
		assert.Equal(t, "# top\npayload:\n  - DOMAIN,c.com\n", got)
	})

	t.Run("second add is a duplicate and leaves text unchanged", func(t *testing.T) {
		first, err := Append("payload:\n", entity.MatchDomainSuffix, "example.com")
		require.NoError(t, err)

		second, err := Append(first, entity.MatchDomainSuffix, "example.com")
		assert.ErrorIs(t, err, apperr.ErrRuleExists)
		assert.Equal(t, first, second)
	})

	t.Run("duplicate check is case sensitive", func(t *testing.T) {
		text := "payload:\n  - DOMAIN-SUFFIX,example.com\n"
		got, err := Append(text, entity.MatchDomainSuffix, "Example.com")
		require.NoError(t, err)
		assert.Equal(t, text+"  - DOMAIN-SUFFIX,Example.com\n", got)
	})

	t.Run("missing final newline is added before the new line", func(t *testing.T) {
		got, err := Append("payload:\n  - DOMAIN,a.com", entity.MatchDomain, "b.com")
		require.NoError(t, err)
		assert.Equal(t, "payload:\n  - DOMAIN,a.com\n  - DOMAIN,b.com\n", got)
		assert.Len(t, Parse(got, entity.ClassificationProxy), 2)

		_, err = Append(got, entity.MatchDomain, "c.com")
		require.NoError(t, err)
	})

	t.Run("empty list inside a comment is left alone", func(t *testing.T) {
		text := "# reset with payload: []\npayload:\n  - DOMAIN,a.com\n"
		got, err := Append(text, entity.MatchDomain, "b.com")
		require.NoError(t, err)
		assert.Equal(t, text+"  - DOMAIN,b.com\n", got)
	})

	t.Run("opaque lines are preserved", func(t *testing.T) {
		text := "# keep me\npayload:\n    -   DOMAIN,odd.com  \n\n"
		got, err := Append(text, entity.MatchDomain, "new.com")
		require.NoError(t, err)
		assert.Equal(t, text+"  - DOMAIN,new.com\n", got)
	})
}

func TestAppendEntry(t *testing.T) {
	got, err := AppendEntry("", entity.MatchDomainSuffix, "a.com")
	require.NoError(t, err)
	assert.Equal(t, "payload:\n  - DOMAIN-SUFFIX,a.com", got)

	got, err = AppendEntry(got, entity.MatchDomain, "b.com")
	require.NoError(t, err)
	assert.Equal(t, "payload:\n  - DOMAIN-SUFFIX,a.com\n  - DOMAIN,b.com", got)

	again, err := AppendEntry(got, entity.MatchDomain, "b.com")
	assert.ErrorIs(t, err, apperr.ErrRuleExists)
	assert.Equal(t, got, again)

	got, err = AppendEntry(EmptyDocument, entity.MatchDomain, "c.com")
	require.NoError(t, err)
	assert.Equal(t, "payload:\n  - DOMAIN,c.com", got)

	got, err = AppendEntry("# was payload: []\npayload:", entity.MatchDomain, "d.com")
	require.NoError(t, err)
	assert.Equal(t, "# was payload: []\npayload:\n  - DOMAIN,d.com", got)
}

func TestContainsIsSubstringMatch(t *testing.T) {
	text := "payload:\n  - DOMAIN-SUFFIX,example.com.cn\n"

	// A prefix of an existing line counts as present.
	assert.True(t, Contains(text, entity.MatchDomainSuffix, "example.com"))
	assert.False(t, Contains(text, entity.MatchDomain, "example.com"))
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		matchType entity.MatchType
		value     string
		want      string
		wantFound bool
	}{
		{
			name:      "middle line with newline",
			text:      "payload:\n  - DOMAIN,a.com\n  - DOMAIN,b.com\n",
			matchType: entity.MatchDomain,
			value:     "a.com",
			want:      "payload:\n  - DOMAIN,b.com\n",
			wantFound: true,
		},
		{
			name:      "last line without newline",
			text:      "payload:\n  - DOMAIN,a.com\n  - DOMAIN,b.com",
			matchType: entity.MatchDomain,
			value:     "b.com",
			want:      "payload:\n  - DOMAIN,a.com\n",
			wantFound: true,
		},
		{
			name:      "only first occurrence",
			text:      "payload:\n  - DOMAIN,a.com\n  - DOMAIN,a.com\n",
			matchType: entity.MatchDomain,
			value:     "a.com",
			want:      "payload:\n  - DOMAIN,a.com\n",
			wantFound: true,
		},
		{
			name:      "neighbour sharing a prefix is left intact",
			text:      "payload:\n  - DOMAIN-SUFFIX,google.com.hk\n  - DOMAIN-SUFFIX,google.com",
			matchType: entity.MatchDomainSuffix,
			value:     "google.com",
			want:      "payload:\n  - DOMAIN-SUFFIX,google.com.hk\n",
			wantFound: true,
		},
		{
			name:      "longer line only is not a match",
			text:      "payload:\n  - DOMAIN-SUFFIX,google.com.hk",
			matchType: entity.MatchDomainSuffix,
			value:     "google.com",
			want:      "payload:\n  - DOMAIN-SUFFIX,google.com.hk",
			wantFound: false,
		},
		{
			name:      "crlf line ending",
			text:      "payload:\r\n  - DOMAIN,a.com\r\n  - DOMAIN,b.com\r\n",
			matchType: entity.MatchDomain,
			value:     "a.com",
			want:      "payload:\r\n  - DOMAIN,b.com\r\n",
			wantFound: true,
		},
		{
			name:      "absent",
			text:      "payload:\n  - DOMAIN,a.com\n",
			matchType: entity.MatchDomainSuffix,
			value:     "a.com",
			want:      "payload:\n  - DOMAIN,a.com\n",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Remove(tt.text, tt.matchType, tt.value)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	in := "  payload:  \n# comment stays\n-DOMAIN-SUFFIX , a.com\n    -  DOMAIN,b.com, PROXY\n\n- lonely\nother: value"
	want := "payload:\n# comment stays\n  - DOMAIN-SUFFIX,a.com\n  - DOMAIN,b.com,PROXY\n\n- lonely\nother: value"

	assert.Equal(t, want, Format(in))
}

func TestCountStats(t *testing.T) {
	text := "payload:\n  - DOMAIN,a.com\n  - DOMAIN-SUFFIX,b.com\n  - DOMAIN-SUFFIX,c.com\n  - DOMAIN-KEYWORD,goog\n  - IP-CIDR,1.1.1.1/32\n"

	got := CountStats(text)

	assert.Equal(t, Stats{Total: 5, Domain: 1, Suffix: 2, Keyword: 1}, got)
}

func TestExport(t *testing.T) {
	got := Export(entity.RuleSet{Proxy: "payload:\n  - DOMAIN,p.com", Direct: "payload: []"})

	assert.Equal(t, "# Proxy rules\npayload:\n  - DOMAIN,p.com\n\n# Direct rules\npayload: []", got)
}

func TestLint(t *testing.T) {
	valid := []string{
		"",
		"payload:\n",
		EmptyDocument,
		"# header\npayload:\n  - DOMAIN,a.com\n  - DOMAIN-SUFFIX,b.com\n",
	}
	for _, text := range valid {
		assert.NoError(t, Lint(text), "text %q", text)
	}

	invalid := []string{
		"payload: nope",
		"payload:\n  key: value\n",
		"- DOMAIN,a.com\n",
		"payload:\n  - [unclosed\n",
	}
	for _, text := range invalid {
		assert.Error(t, Lint(text), "text %q", text)
	}
}
