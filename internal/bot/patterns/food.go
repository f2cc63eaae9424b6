package patterns

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/forPelevin/gomoji"

	"github.com/mottoworks/botto/internal/setup/config"
)

// ResponseKind distinguishes the closed set of food response actions.
type ResponseKind int

const (
	// ResponseEmoji reacts with a literal emoji.
	ResponseEmoji ResponseKind = iota
	// ResponseEcho reacts with the trigger emoji that was fed.
	ResponseEcho
	// ResponseParty fires five random celebratory reactions.
	ResponseParty
)

// Response is one action in a food category's ordered response list.
type Response struct {
	Kind  ResponseKind
	Emoji string
}

// FoodLookup resolves "feeds the bot an emoji" messages to their configured
// response actions. A companion matcher over all known emoji distinguishes
// an unrecognized food from no food at all.
type FoodLookup struct {
	responses map[string][]Response
	foodRe    *regexp.Regexp
	feedRe    *regexp.Regexp
}

// NewFoodLookup flattens the category table into a trigger-emoji lookup and
// compiles the feed matchers. Trigger emoji are alternated rather than
// placed in a character class since many are multi-rune sequences.
func NewFoodLookup(selfPattern string, table map[string]config.FoodCategory) (*FoodLookup, error) {
	responses := make(map[string][]Response)

	var alternatives []string

	for name, category := range table {
		actions := make([]Response, 0, len(category.Responses))

		for _, response := range category.Responses {
			switch response {
			case "echo":
				actions = append(actions, Response{Kind: ResponseEcho})
			case "party":
				actions = append(actions, Response{Kind: ResponseParty})
			default:
				actions = append(actions, Response{Kind: ResponseEmoji, Emoji: response})
			}
		}

		if len(category.Triggers) == 0 {
			return nil, fmt.Errorf("food category %q has no triggers", name)
		}

		for _, trigger := range category.Triggers {
			responses[trigger] = actions

			alternatives = append(alternatives, regexp.QuoteMeta(trigger))
		}
	}

	feedRe := regexp.MustCompile(`(?i)(?:feed|pour)?s?\s` + selfPattern + `(.*)`)

	var foodRe *regexp.Regexp
	if len(alternatives) > 0 {
		foodRe = regexp.MustCompile(
			`(?i)(?:feed|pour)?s?\s` + selfPattern + `.*?(` + strings.Join(alternatives, "|") + `)`)
	}

	return &FoodLookup{
		responses: responses,
		foodRe:    foodRe,
		feedRe:    feedRe,
	}, nil
}

// Match returns the fed trigger emoji and its response actions when the
// content feeds the bot a recognized food.
func (f *FoodLookup) Match(content string) (string, []Response, bool) {
	if f.foodRe == nil {
		return "", nil, false
	}

	match := f.foodRe.FindStringSubmatch(content)
	if match == nil {
		return "", nil, false
	}

	trigger := match[1]

	actions, ok := f.responses[trigger]
	if !ok {
		return "", nil, false
	}

	return trigger, actions, true
}

// MatchUnknown reports whether the content feeds the bot some emoji that is
// not in the food table.
func (f *FoodLookup) MatchUnknown(content string) bool {
	match := f.feedRe.FindStringSubmatch(content)
	if match == nil {
		return false
	}

	return gomoji.ContainsEmoji(match[1])
}
