package ruletext

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type document struct {
	Payload yaml.Node `yaml:"payload"`
}

// Lint checks that text is a YAML document whose payload, when present, is a
// sequence. It never rewrites text; mutations stay line-oriented.
func Lint(text string) error {
	var doc document
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return fmt.Errorf("invalid rule document: %w", err)
	}
	switch doc.Payload.Kind {
	case 0, yaml.SequenceNode:
		return nil
	case yaml.ScalarNode:
		if doc.Payload.Tag == "!!null" {
			return nil
		}
	}
	return fmt.Errorf("invalid rule document: payload must be a list (line %d)", doc.Payload.Line)
}
