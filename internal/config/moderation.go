package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// ModerationRules drives the review risk scorer. Values come from a YAML
// file when MODERATION_RULES_PATH is set; otherwise the defaults below
// apply. The file only needs the fields it wants to override.
type ModerationRules struct {
	Weights struct {
		Text    float64 `yaml:"text"`
		Image   float64 `yaml:"image"`
		History float64 `yaml:"history"`
	} `yaml:"weights"`

	RejectThreshold  float64 `yaml:"reject_threshold"`
	ApproveThreshold float64 `yaml:"approve_threshold"`

	SpamPatterns  []string `yaml:"spam_patterns"`
	MinBodyRunes  int      `yaml:"min_body_runes"`
	ShoutingRatio float64  `yaml:"shouting_ratio"`
	RepeatRun     int      `yaml:"repeat_run"`

	MaxImages     int   `yaml:"max_images"`
	MaxImageBytes int64 `yaml:"max_image_bytes"`

	BurstMax       int      `yaml:"burst_max"`
	ThrottleWindow Duration `yaml:"throttle_window"`

	compiled []*regexp.Regexp
}

// Duration accepts "24h" style values in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

func DefaultModerationRules() ModerationRules {
	r := ModerationRules{
		RejectThreshold:  0.8,
		ApproveThreshold: 0.2,
		SpamPatterns: []string{
			`(?i)https?://`,
			`(?i)\bwww\.[a-z0-9-]+\.[a-z]{2,}`,
			`\b[0-9]{10}\b`,
			`(?i)\b(buy now|free gift|whatsapp me|dm for price|cashback guaranteed)\b`,
		},
		MinBodyRunes:   12,
		ShoutingRatio:  0.6,
		RepeatRun:      6,
		MaxImages:      6,
		MaxImageBytes:  5 << 20,
		BurstMax:       3,
		ThrottleWindow: Duration(24 * time.Hour),
	}
	r.Weights.Text = 0.5
	r.Weights.Image = 0.2
	r.Weights.History = 0.3
	return r
}

// LoadModerationRules returns defaults when path is empty, and fails when a
// configured file is missing or malformed. Patterns are compiled eagerly so
// a bad rule surfaces at startup, not on the first review.
func LoadModerationRules(path string) (ModerationRules, error) {
	rules := DefaultModerationRules()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return rules, fmt.Errorf("moderation rules: %w", err)
		}
		if err := yaml.Unmarshal(b, &rules); err != nil {
			return rules, fmt.Errorf("moderation rules: %w", err)
		}
	}
	if err := rules.compile(); err != nil {
		return rules, err
	}
	return rules, nil
}

func (r *ModerationRules) compile() error {
	r.compiled = r.compiled[:0]
	for _, p := range r.SpamPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("moderation rules: pattern %q: %w", p, err)
		}
		r.compiled = append(r.compiled, re)
	}
	return nil
}

// SpamRegexps returns the compiled spam patterns.
func (r *ModerationRules) SpamRegexps() []*regexp.Regexp { return r.compiled }
