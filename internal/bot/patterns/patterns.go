// Package patterns compiles the bot's trigger, playful-response and tag
// matchers once at startup, after the gateway reports the bot's own user ID.
package patterns

import (
	"fmt"
	"regexp"

	"github.com/disgoorg/snowflake/v2"

	"github.com/mottoworks/botto/internal/setup/config"
)

// Patterns holds every compiled matcher the message handlers dispatch on.
type Patterns struct {
	// Mention matches a message that starts with a mention of the bot.
	Mention *regexp.Regexp
	// Triggers are the configured "new motto" phrases. When mention
	// triggering is enabled, Mention is prepended at classification time.
	Triggers []*regexp.Regexp
	// Maintenance matches maintenance-mode announcements.
	Maintenance []*regexp.Regexp
	// Tag captures the free text after a leading bot mention.
	Tag *regexp.Regexp
	// RandomTag captures the optional filter after "!random" in a tag.
	RandomTag *regexp.Regexp

	Pokes       *regexp.Regexp
	Sorry       *regexp.Regexp
	Apologising *regexp.Regexp
	OffTopic    *regexp.Regexp
	Love        *regexp.Regexp
	Hug         *regexp.Regexp
	Band        *regexp.Regexp
	Party       *regexp.Regexp
	Cow         *regexp.Regexp

	Food *FoodLookup
}

// Compile builds all matchers for the given bot user. User-supplied trigger
// strings are treated as regular expressions anchored at message start.
func Compile(selfID snowflake.ID, cfg *config.Config) (*Patterns, error) {
	self := fmt.Sprintf(`<@!?%s>`, selfID)

	triggers, err := compileTriggers(cfg.Triggers.NewMotto)
	if err != nil {
		return nil, fmt.Errorf("invalid new_motto trigger: %w", err)
	}

	maintenance, err := compileTriggers(cfg.Triggers.Maintenance)
	if err != nil {
		return nil, fmt.Errorf("invalid maintenance trigger: %w", err)
	}

	food, err := NewFoodLookup(self, cfg.Food)
	if err != nil {
		return nil, err
	}

	return &Patterns{
		Mention:     regexp.MustCompile(`^` + self),
		Triggers:    triggers,
		Maintenance: maintenance,
		Tag:         regexp.MustCompile(`^` + self + `\s*(.*)`),
		RandomTag:   regexp.MustCompile(`(?i)^!random\b\s*(.*)`),
		Pokes:       regexp.MustCompile(`(?i)pokes? ` + self),
		Sorry:       regexp.MustCompile(`(?i)sorry,? ` + self),
		Apologising: regexp.MustCompile(
			`(?i)(?:I['"’m]+|my|^)\s*(?:(?:(?:sincer|great)(?:est|e(?:ly)?)?|so|very|[ms]uch).?)*\s*(sorry|apologi([zs]e|es))`),
		OffTopic: regexp.MustCompile(`(?i)off( +|-)topic`),
		Love:     regexp.MustCompile(`(?i)I love( you,?)? ` + self),
		Hug:      regexp.MustCompile(`(?i)hugs? ` + self),
		Band:     regexp.MustCompile(`(?i)What('|’)?s +your +fav(ou?rite)? +band +` + self + ` ?\?*`),
		Party:    regexp.MustCompile(`(?i)(?:^|\s)part(?:a*y|ies)`),
		Cow:      regexp.MustCompile(`(?i)(?:^|\s)moo+[!.]*(?:\s|$)`),
		Food:     food,
	}, nil
}

// FindTrigger returns the first "new motto" trigger matching the content,
// or nil. The mention trigger participates only when enabled in config.
func (p *Patterns) FindTrigger(content string, mentionTriggers bool) *regexp.Regexp {
	if mentionTriggers && p.Mention.MatchString(content) {
		return p.Mention
	}

	for _, trigger := range p.Triggers {
		if trigger.MatchString(content) {
			return trigger
		}
	}

	return nil
}

// IsMaintenance reports whether the content announces maintenance mode.
func (p *Patterns) IsMaintenance(content string) bool {
	for _, re := range p.Maintenance {
		if re.MatchString(content) {
			return true
		}
	}

	return false
}

func compileTriggers(phrases []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(phrases))

	for _, phrase := range phrases {
		re, err := regexp.Compile(`(?i)^(?:` + phrase + `)`)
		if err != nil {
			return nil, err
		}

		compiled = append(compiled, re)
	}

	return compiled, nil
}
