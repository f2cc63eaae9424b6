package bot

import (
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/mottoworks/botto/internal/airtable"
	"github.com/mottoworks/botto/internal/bot/patterns"
	"github.com/mottoworks/botto/internal/bot/ratelimit"
	"github.com/mottoworks/botto/internal/bot/rules"
	"github.com/mottoworks/botto/internal/setup/config"
)

// sweepChance is the probability that handling one message also triggers a
// sweep of expired unapproved mottos.
const sweepChance = 0.1

// Handler implements the bot's message and reaction behavior on top of the
// Transport and Storage boundaries, independent of the gateway wiring.
type Handler struct {
	cfg       *config.Config
	storage   airtable.Storage
	transport Transport
	limiter   *ratelimit.Limiter
	logger    *zap.Logger

	roll func() float64
	now  func() time.Time

	mu        sync.RWMutex
	selfID    snowflake.ID
	selfName  string
	patterns  *patterns.Patterns
	validator *rules.Validator
	cleaner   *rules.Cleaner
}

// NewHandler builds a Handler. Pattern matchers are compiled later, once
// Ready delivers the bot's own user identity.
func NewHandler(cfg *config.Config, storage airtable.Storage, transport Transport, logger *zap.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		storage:   storage,
		transport: transport,
		limiter: ratelimit.New(
			time.Duration(cfg.Cooldowns.RandomGlobalMinutes)*time.Minute,
			time.Duration(cfg.Cooldowns.RandomPerUserMinutes)*time.Minute,
		),
		logger: logger,
		roll:   rand.Float64,
		now:    time.Now,
	}
}

// Ready records the bot's own identity and compiles all matchers against it.
// It must run before any message is handled.
func (h *Handler) Ready(selfID snowflake.ID, selfName string) error {
	compiled, err := patterns.Compile(selfID, h.cfg)
	if err != nil {
		return err
	}

	validator, err := rules.NewValidator(h.cfg.Rules, compiled.Triggers)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.selfID = selfID
	h.selfName = selfName
	h.patterns = compiled
	h.validator = validator
	h.cleaner = &rules.Cleaner{LookupChannel: h.transport.ChannelName}

	return nil
}

// ready returns the compiled matchers, or false before Ready has run.
func (h *Handler) ready() (*patterns.Patterns, *rules.Validator, *rules.Cleaner, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.patterns, h.validator, h.cleaner, h.patterns != nil
}

// self returns the bot's own user ID and username.
func (h *Handler) self() (snowflake.ID, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.selfID, h.selfName
}

// profileOf extracts the platform profile from a message author, preferring
// the guild nickname when present.
func profileOf(msg discord.Message) airtable.Profile {
	nick := msg.Author.Username
	if msg.Member != nil && msg.Member.Nick != nil && *msg.Member.Nick != "" {
		nick = *msg.Member.Nick
	}

	return airtable.Profile{
		ID:       msg.Author.ID.String(),
		Username: msg.Author.Username,
		Nick:     nick,
	}
}

// cleanExcerpt strips the trigger and surrounding quote characters from a
// nominating message, leaving the inline motto excerpt if one was given.
func cleanExcerpt(trigger *regexp.Regexp, content string) string {
	excerpt := strings.TrimSpace(trigger.ReplaceAllString(content, ""))

	return strings.Trim(excerpt, "'\"“”‘’")
}

func pickRandom(choices []string) string {
	if len(choices) == 0 {
		return ""
	}

	return choices[rand.Intn(len(choices))]
}
