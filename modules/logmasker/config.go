package logmasker

import (
	"fmt"
	"regexp"
)

// MaskStrategy defines the type of masking to apply.
type MaskStrategy string

const (
	// MaskStrategyRedact replaces the entire value with "[REDACTED]".
	MaskStrategyRedact MaskStrategy = "redact"

	// MaskStrategyPartial shows only part of the value, masking the rest.
	MaskStrategyPartial MaskStrategy = "partial"

	// MaskStrategyHash replaces the value with a short SHA-256 digest.
	MaskStrategyHash MaskStrategy = "hash"

	// MaskStrategyNone does not mask the value.
	MaskStrategyNone MaskStrategy = "none"
)

func (s MaskStrategy) valid() bool {
	switch s {
	case MaskStrategyRedact, MaskStrategyPartial, MaskStrategyHash, MaskStrategyNone:
		return true
	}
	return false
}

// FieldMaskingRule masks the value logged under an exact key.
type FieldMaskingRule struct {
	Field    string       `yaml:"field" toml:"field" json:"field" desc:"Log key to mask"`
	Strategy MaskStrategy `yaml:"strategy" toml:"strategy" json:"strategy" desc:"Masking strategy to use"`
}

// PatternMaskingRule masks string values matching a regular expression,
// whatever key they are logged under.
type PatternMaskingRule struct {
	Pattern  string       `yaml:"pattern" toml:"pattern" json:"pattern" desc:"Regular expression to match"`
	Strategy MaskStrategy `yaml:"strategy" toml:"strategy" json:"strategy" desc:"Masking strategy to use"`
}

// PartialMaskConfig defines how much of a value partial masking keeps.
type PartialMaskConfig struct {
	ShowFirst int    `yaml:"show_first" toml:"show_first" default:"2" desc:"Characters kept at the start"`
	ShowLast  int    `yaml:"show_last" toml:"show_last" desc:"Characters kept at the end"`
	MaskChar  string `yaml:"mask_char" toml:"mask_char" default:"*" desc:"Mask character"`
	MinLength int    `yaml:"min_length" toml:"min_length" default:"6" desc:"Values shorter than this are fully redacted"`
}

// LogMaskerConfig configures the masking logger.
type LogMaskerConfig struct {
	Enabled         bool                 `yaml:"enabled" toml:"enabled" default:"true" desc:"Enable log masking" env:"LOGMASKER_ENABLED"`
	DefaultStrategy MaskStrategy         `yaml:"default_strategy" toml:"default_strategy" default:"redact" desc:"Strategy for rules that do not name one" env:"LOGMASKER_DEFAULT_STRATEGY"`
	FieldRules      []FieldMaskingRule   `yaml:"field_rules" toml:"field_rules" default:"[{\"field\":\"apiKey\",\"strategy\":\"partial\"},{\"field\":\"api_key\",\"strategy\":\"partial\"},{\"field\":\"password\",\"strategy\":\"redact\"},{\"field\":\"token\",\"strategy\":\"redact\"},{\"field\":\"secret\",\"strategy\":\"redact\"},{\"field\":\"authorization\",\"strategy\":\"redact\"}]" desc:"Key based masking rules"`
	PatternRules    []PatternMaskingRule `yaml:"pattern_rules" toml:"pattern_rules" desc:"Value pattern masking rules"`
	Partial         PartialMaskConfig    `yaml:"partial" toml:"partial" desc:"Partial masking settings"`
}

// Validate implements the taskapi.ConfigValidator interface.
func (c *LogMaskerConfig) Validate() error {
	if !c.DefaultStrategy.valid() {
		return fmt.Errorf("%w: default %q", ErrInvalidStrategy, c.DefaultStrategy)
	}
	for _, rule := range c.FieldRules {
		if rule.Field == "" {
			return fmt.Errorf("%w: field rule without a field", ErrInvalidRule)
		}
		if rule.Strategy != "" && !rule.Strategy.valid() {
			return fmt.Errorf("%w: %q for field %s", ErrInvalidStrategy, rule.Strategy, rule.Field)
		}
	}
	for _, rule := range c.PatternRules {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidRule, rule.Pattern, err)
		}
		if rule.Strategy != "" && !rule.Strategy.valid() {
			return fmt.Errorf("%w: %q for pattern %s", ErrInvalidStrategy, rule.Strategy, rule.Pattern)
		}
	}
	if c.Partial.ShowFirst < 0 || c.Partial.ShowLast < 0 {
		return fmt.Errorf("%w: negative partial lengths", ErrInvalidRule)
	}
	return nil
}
