// Package rules implements the motto validation gate and the text
// normalization used for duplicate detection.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/disgoorg/snowflake/v2"

	"github.com/mottoworks/botto/internal/setup/config"
)

var (
	channelMentionRe = regexp.MustCompile(`<#(\d+)>`)
	customEmojiRe    = regexp.MustCompile(`<a?:(\w+):\d+>`)
	nonWordRe        = regexp.MustCompile(`[^\w\s]+`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
)

// Validator is the accept/reject gate for candidate motto text.
type Validator struct {
	minChars  int
	maxChars  int
	minWords  int
	matching  []*regexp.Regexp
	excluding []*regexp.Regexp
	triggers  []*regexp.Regexp
}

// NewValidator compiles the configured matching/excluding patterns. The
// trigger patterns are checked so a trigger phrase can never itself be
// nominated as a motto.
func NewValidator(cfg config.Rules, triggers []*regexp.Regexp) (*Validator, error) {
	matching, err := compileAll(cfg.Matching)
	if err != nil {
		return nil, fmt.Errorf("invalid matching pattern: %w", err)
	}

	excluding, err := compileAll(cfg.Excluding)
	if err != nil {
		return nil, fmt.Errorf("invalid excluding pattern: %w", err)
	}

	return &Validator{
		minChars:  cfg.MinChars,
		maxChars:  cfg.MaxChars,
		minWords:  cfg.MinWords,
		matching:  matching,
		excluding: excluding,
		triggers:  triggers,
	}, nil
}

// IsValid reports whether the text may be stored as a motto. Length bounds
// are inclusive and counted in runes.
func (v *Validator) IsValid(text string) bool {
	length := len([]rune(text))
	if length < v.minChars || length > v.maxChars {
		return false
	}

	if len(strings.Fields(text)) < v.minWords {
		return false
	}

	for _, re := range v.excluding {
		if re.MatchString(text) {
			return false
		}
	}

	for _, re := range v.matching {
		if !re.MatchString(text) {
			return false
		}
	}

	for _, re := range v.triggers {
		if re.MatchString(text) {
			return false
		}
	}

	return true
}

// Cleaner rewrites platform-specific tokens in motto text into their
// human-readable forms.
type Cleaner struct {
	// LookupChannel resolves a channel ID to its display name. A false
	// return leaves the mention untouched.
	LookupChannel func(id snowflake.ID) (string, bool)
}

// Clean rewrites channel mentions to #channel-name and guild custom emoji
// to :name: shorthand. Clean is idempotent.
func (c *Cleaner) Clean(text string) string {
	text = channelMentionRe.ReplaceAllStringFunc(text, func(mention string) string {
		raw := channelMentionRe.FindStringSubmatch(mention)[1]

		id, err := snowflake.Parse(raw)
		if err != nil {
			return mention
		}

		if c.LookupChannel != nil {
			if name, ok := c.LookupChannel(id); ok {
				return "#" + name
			}
		}

		return mention
	})

	return customEmojiRe.ReplaceAllString(text, ":$1:")
}

// Normalize canonicalizes motto text for duplicate comparison: fold case,
// strip non-word/non-space characters, collapse internal whitespace, trim.
// Two texts are duplicates exactly when their normalized forms are equal.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = nonWordRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))

	for _, pattern := range patterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, err
		}

		compiled = append(compiled, re)
	}

	return compiled, nil
}
