package logmasker

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"

	"github.com/lab4/taskapi"
)

const redacted = "[REDACTED]"

// MaskableValue is implemented by values that decide their own masking.
type MaskableValue interface {
	ShouldMask() bool
	GetMaskedValue() any
}

// Secret is a string that is always logged partially masked.
type Secret string

func (s Secret) ShouldMask() bool { return true }

func (s Secret) GetMaskedValue() any {
	if s == "" {
		return ""
	}
	return partialMask(string(s), PartialMaskConfig{ShowFirst: 2, MaskChar: "*", MinLength: 6})
}

type compiledPattern struct {
	re       *regexp.Regexp
	strategy MaskStrategy
}

// MaskingLogger decorates a taskapi.Logger, masking key/value arguments
// according to the configured rules. Messages are never modified.
type MaskingLogger struct {
	base     taskapi.Logger
	config   *LogMaskerConfig
	fields   map[string]MaskStrategy
	patterns []compiledPattern
}

var _ taskapi.Logger = (*MaskingLogger)(nil)

// NewMaskingLogger builds a masking decorator around base. config must
// already be validated.
func NewMaskingLogger(base taskapi.Logger, config *LogMaskerConfig) (*MaskingLogger, error) {
	l := &MaskingLogger{
		base:   base,
		config: config,
		fields: make(map[string]MaskStrategy, len(config.FieldRules)),
	}
	for _, rule := range config.FieldRules {
		l.fields[rule.Field] = rule.Strategy
	}
	for _, rule := range config.PatternRules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidRule, rule.Pattern, err)
		}
		l.patterns = append(l.patterns, compiledPattern{re: re, strategy: rule.Strategy})
	}
	return l, nil
}

func (l *MaskingLogger) Info(msg string, args ...any)  { l.base.Info(msg, l.maskArgs(args)...) }
func (l *MaskingLogger) Error(msg string, args ...any) { l.base.Error(msg, l.maskArgs(args)...) }
func (l *MaskingLogger) Warn(msg string, args ...any)  { l.base.Warn(msg, l.maskArgs(args)...) }
func (l *MaskingLogger) Debug(msg string, args ...any) { l.base.Debug(msg, l.maskArgs(args)...) }

// maskArgs applies masking rules to key-value pairs. A trailing key without
// a value is passed through.
func (l *MaskingLogger) maskArgs(args []any) []any {
	if !l.config.Enabled || len(args) == 0 {
		return args
	}

	result := make([]any, len(args))
	copy(result, args)
	for i := 0; i+1 < len(args); i += 2 {
		value := args[i+1]
		if maskable, ok := value.(MaskableValue); ok {
			if maskable.ShouldMask() {
				result[i+1] = maskable.GetMaskedValue()
			}
			continue
		}
		if key, ok := args[i].(string); ok {
			result[i+1] = l.Mask(key, value)
		}
	}
	return result
}

// Mask returns value as it would be logged under key.
func (l *MaskingLogger) Mask(key string, value any) any {
	if strategy, ok := l.fields[key]; ok {
		return l.apply(value, strategy)
	}
	if s, ok := value.(string); ok {
		for _, p := range l.patterns {
			if p.re.MatchString(s) {
				return l.apply(value, p.strategy)
			}
		}
	}
	return value
}

func (l *MaskingLogger) apply(value any, strategy MaskStrategy) any {
	if strategy == "" {
		strategy = l.config.DefaultStrategy
	}
	switch strategy {
	case MaskStrategyNone:
		return value
	case MaskStrategyPartial:
		if s, ok := value.(string); ok {
			return partialMask(s, l.config.Partial)
		}
		return redacted
	case MaskStrategyHash:
		sum := sha256.Sum256([]byte(fmt.Sprint(value)))
		return fmt.Sprintf("[HASH:%x]", sum[:6])
	default:
		return redacted
	}
}

// partialMask keeps ShowFirst and ShowLast characters. Values shorter than
// MinLength, or too short to hide anything, are fully redacted.
func partialMask(value string, cfg PartialMaskConfig) string {
	if value == "" {
		return ""
	}
	runes := []rune(value)
	if len(runes) < cfg.MinLength || cfg.ShowFirst+cfg.ShowLast >= len(runes) {
		return redacted
	}
	maskChar := cfg.MaskChar
	if maskChar == "" {
		maskChar = "*"
	}
	hidden := len(runes) - cfg.ShowFirst - cfg.ShowLast
	return string(runes[:cfg.ShowFirst]) + strings.Repeat(maskChar, hidden) + string(runes[len(runes)-cfg.ShowLast:])
}
