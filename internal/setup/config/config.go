package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound  = errors.New("could not find bot.toml in any config path")
	ErrMissingDiscordToken = errors.New("auth.discord_token is not configured")
	ErrMissingAirtableAuth = errors.New("auth.airtable_key and auth.airtable_base must both be configured")
	ErrInvalidLengthBounds = errors.New("rules.min_chars must not exceed rules.max_chars")
	ErrInvalidRetention    = errors.New("delete_unapproved_after_hours must be positive")
)

// Config is the immutable application configuration, assembled once at
// startup and passed explicitly into every component constructor.
type Config struct {
	Auth      Auth      `koanf:"auth"`
	Channels  Channels  `koanf:"channels"`
	Rules     Rules     `koanf:"rules"`
	Triggers  Triggers  `koanf:"triggers"`
	Reactions Reactions `koanf:"reactions"`
	Cooldowns Cooldowns `koanf:"cooldowns"`

	// Bonus reactions applied when a specific nominee's motto is stored,
	// keyed by Discord user ID. One entry is chosen at random.
	SpecialReactions map[string][]string `koanf:"special_reactions"`

	// Food response table: category name -> trigger emoji and response
	// actions ("echo" and "party" are symbolic, everything else literal).
	Food map[string]FoodCategory `koanf:"food"`

	ShouldReply                bool     `koanf:"should_reply"`
	TriggerOnMention           bool     `koanf:"trigger_on_mention"`
	HumanModerationRequired    bool     `koanf:"human_moderation_required"`
	DeleteUnapprovedAfterHours int      `koanf:"delete_unapproved_after_hours"`
	ApprovalReaction           string   `koanf:"approval_reaction"`
	ConfirmDeleteReaction      string   `koanf:"confirm_delete_reaction"`
	LeaderboardLink            string   `koanf:"leaderboard_link"`
	SupportChannel             string   `koanf:"support_channel"`
	Maintainers                []string `koanf:"maintainers"`
	RandomSourceView           string   `koanf:"random_source_view"`
	BotID                      string   `koanf:"bot_id"`
	WatchingStatus             string   `koanf:"watching_status"`
	LogLevel                   string   `koanf:"log_level"`
}

// Auth contains credentials for the chat transport and the remote store.
type Auth struct {
	// Discord bot token for authentication.
	DiscordToken string `koanf:"discord_token"`
	// Airtable API key.
	AirtableKey string `koanf:"airtable_key"`
	// Airtable base identifier.
	AirtableBase string `koanf:"airtable_base"`
}

// Channels restricts which guild channels the bot listens in. An empty
// include list means all channels except the excluded ones.
type Channels struct {
	Include []string `koanf:"include"`
	Exclude []string `koanf:"exclude"`
}

// Rules parameterizes the motto validation gate.
type Rules struct {
	// Minimum motto length in characters, inclusive.
	MinChars int `koanf:"min_chars"`
	// Maximum motto length in characters, inclusive.
	MaxChars int `koanf:"max_chars"`
	// Minimum number of whitespace-separated words.
	MinWords int `koanf:"min_words"`
	// Extra patterns that must all match for a motto to be accepted.
	Matching []string `koanf:"matching"`
	// Patterns that reject a motto when any of them matches.
	Excluding []string `koanf:"excluding"`
}

// Triggers holds the configured trigger phrase groups. Each entry is a
// regular expression matched case-insensitively at the start of a message.
type Triggers struct {
	NewMotto    []string `koanf:"new_motto"`
	Maintenance []string `koanf:"maintenance"`
}

// Reactions maps outcome names to the emoji the bot reacts with.
// List-valued entries mean "pick one at random".
type Reactions struct {
	Success         string `koanf:"success"`
	Repeat          string `koanf:"repeat"`
	Unknown         string `koanf:"unknown"`
	Skynet          string `koanf:"skynet"`
	Fishing         string `koanf:"fishing"`
	Invalid         string `koanf:"invalid"`
	Pending         string `koanf:"pending"`
	Deleted         string `koanf:"deleted"`
	Reject          string `koanf:"reject"`
	InvalidEmoji    string `koanf:"invalid_emoji"`
	ValidEmoji      string `koanf:"valid_emoji"`
	DeleteConfirmed string `koanf:"delete_confirmed"`
	Sleep           string `koanf:"sleep"`
	Wave            string `koanf:"wave"`
	Shrug           string `koanf:"shrug"`
	RateLimit       string `koanf:"rate_limit"`
	UnknownFood     string `koanf:"unknown_food"`

	Poke         []string `koanf:"poke"`
	Love         []string `koanf:"love"`
	Hug          []string `koanf:"hug"`
	Party        []string `koanf:"party"`
	Cow          []string `koanf:"cow"`
	OffTopic     []string `koanf:"off_topic"`
	FavoriteBand []string `koanf:"favorite_band"`
}

// Cooldowns configures the random-motto rate limiter, in minutes.
type Cooldowns struct {
	RandomGlobalMinutes  int `koanf:"random_global_minutes"`
	RandomPerUserMinutes int `koanf:"random_per_user_minutes"`
}

// FoodCategory maps trigger emoji to an ordered list of response actions.
type FoodCategory struct {
	Triggers  []string `koanf:"triggers"`
	Responses []string `koanf:"responses"`
}

// Load reads bot.toml from the first matching config path, applies defaults
// for everything the file leaves out, and validates the result. Any failure
// here is fatal to startup.
func Load() (*Config, error) {
	k := koanf.New(".")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configPaths := []string{
		".botto",
		homeDir + "/.botto/config",
		"/etc/botto/config",
		"/app/config",
		"config",
		".",
	}

	loaded := false

	for _, path := range configPaths {
		if err := k.Load(file.Provider(path+"/bot.toml"), toml.Parser()); err == nil {
			loaded = true
			break
		}
	}

	if !loaded {
		return nil, ErrConfigFileNotFound
	}

	config := Default()
	if err := k.Unmarshal("", config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate reports the first configuration error, if any.
func (c *Config) Validate() error {
	if c.Auth.DiscordToken == "" {
		return ErrMissingDiscordToken
	}

	if c.Auth.AirtableKey == "" || c.Auth.AirtableBase == "" {
		return ErrMissingAirtableAuth
	}

	if c.Rules.MinChars > c.Rules.MaxChars {
		return ErrInvalidLengthBounds
	}

	if c.DeleteUnapprovedAfterHours <= 0 {
		return ErrInvalidRetention
	}

	return nil
}

// Default returns a Config populated with every built-in default. Values
// present in bot.toml override these during Load.
func Default() *Config {
	return &Config{
		Rules: Rules{
			MinChars: 5,
			MaxChars: 240,
			MinWords: 2,
			Excluding: []string{
				`<@!?\d+>`,
				`^[\d\W\s]*$`,
			},
		},
		Triggers: Triggers{
			NewMotto:    []string{"!motto"},
			Maintenance: []string{"!sleep", "going down for maintenance"},
		},
		Reactions: Reactions{
			Success:         "📥",
			Repeat:          "♻️",
			Unknown:         "❓",
			Skynet:          "👽",
			Fishing:         "🎣",
			Invalid:         "🙅",
			Pending:         "⏳",
			Deleted:         "🗑️",
			Reject:          "❌",
			InvalidEmoji:    "⚠️",
			ValidEmoji:      "✅",
			DeleteConfirmed: "✅",
			Sleep:           "😴",
			Wave:            "👋",
			Shrug:           "🤷",
			RateLimit:       "✋",
			UnknownFood:     "😵",
			Poke:            []string{"😢", "🤕", "😝"},
			Love:            []string{"💜", "💙", "💚", "❤️"},
			Hug:             []string{"🤗", "💜"},
			Party:           []string{"🎉", "🎊", "🥳", "🎈", "🍾"},
			Cow:             []string{"🐮", "🐄"},
			OffTopic:        []string{"😶", "🤐"},
			FavoriteBand:    []string{"🇧", "🇹", "🇸"},
		},
		Cooldowns: Cooldowns{
			RandomGlobalMinutes:  5,
			RandomPerUserMinutes: 30,
		},
		Food:                       DefaultFood(),
		ShouldReply:                true,
		HumanModerationRequired:    true,
		DeleteUnapprovedAfterHours: 24,
		ApprovalReaction:           "👍",
		ConfirmDeleteReaction:      "💥",
		RandomSourceView:           "Approved",
		WatchingStatus:             "for mottos",
		LogLevel:                   "info",
	}
}
