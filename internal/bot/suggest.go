package bot

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mottoworks/botto/internal/airtable"
)

// HandleMessage classifies a guild message and dispatches it to the motto
// suggestion flow, the tag commands or the playful responders.
func (h *Handler) HandleMessage(ctx context.Context, msg discord.Message) {
	p, _, _, ok := h.ready()
	if !ok {
		return
	}

	selfID, _ := h.self()
	if msg.Author.ID == selfID {
		return
	}

	content := msg.Content

	if p.IsMaintenance(content) && slices.Contains(h.cfg.Maintainers, msg.Author.ID.String()) {
		h.respondSleep(ctx, msg)
		return
	}

	// Tag commands are resolved before the mention trigger so that
	// "@bot !random" keeps working when mentions also nominate mottos.
	if tag := p.Tag.FindStringSubmatch(content); tag != nil {
		remainder := strings.TrimSpace(tag[1])
		if remainder == "" || p.RandomTag.MatchString(remainder) {
			h.handleTag(ctx, msg, remainder)
			return
		}
	}

	if trigger := p.FindTrigger(content, h.cfg.TriggerOnMention); trigger != nil {
		h.handleSuggestion(ctx, msg, trigger)
		return
	}

	h.handlePlayful(ctx, msg, content)
}

// handleSuggestion runs the nomination state machine for a message that
// matched a motto trigger. Every early exit reacts with its outcome emoji.
func (h *Handler) handleSuggestion(ctx context.Context, msg discord.Message, trigger *regexp.Regexp) {
	_, validator, cleaner, ok := h.ready()
	if !ok {
		return
	}

	selfID, _ := h.self()

	if msg.MessageReference == nil || msg.MessageReference.MessageID == nil {
		h.respondNotReply(ctx, msg)
		return
	}

	mottoMsg := msg.ReferencedMessage
	if mottoMsg == nil {
		refChannel := msg.ChannelID
		if msg.MessageReference.ChannelID != nil {
			refChannel = *msg.MessageReference.ChannelID
		}

		fetched, err := h.transport.Message(ctx, refChannel, *msg.MessageReference.MessageID)
		if err != nil {
			h.respondDeleted(ctx, msg)
			return
		}

		mottoMsg = fetched
	}

	if mottoMsg.Author.ID == selfID {
		h.respondSkynet(ctx, msg)
		return
	}

	// An inline excerpt narrows the nomination to part of the message, but
	// only when it quotes the message verbatim. A mismatched excerpt means
	// there is nothing identifiable to nominate.
	candidate := mottoMsg.Content

	if excerpt := cleanExcerpt(trigger, msg.Content); excerpt != "" {
		if !strings.Contains(mottoMsg.Content, excerpt) {
			h.respondNotReply(ctx, msg)
			return
		}

		candidate = excerpt
	}

	if !validator.IsValid(candidate) {
		h.respondInvalid(ctx, msg)
		return
	}

	if mottoMsg.Author.ID == msg.Author.ID {
		h.respondFishing(ctx, msg)
		return
	}

	cleaned := cleaner.Clean(candidate)

	duplicate, err := h.storage.MatchingMottos(ctx, cleaned, mottoMsg.ID.String())
	if err != nil {
		h.logger.Error("Failed duplicate check", zap.Error(err))
		return
	}

	if duplicate {
		h.respondDuplicate(ctx, msg)
		return
	}

	var nominee, nominator *airtable.Member

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		member, err := h.storage.GetOrAddMember(groupCtx, profileOf(*mottoMsg))
		nominee = member

		return err
	})
	group.Go(func() error {
		member, err := h.storage.GetOrAddMember(groupCtx, profileOf(msg))
		nominator = member

		return err
	})

	if err := group.Wait(); err != nil {
		h.logger.Error("Failed to resolve members", zap.Error(err))
		return
	}

	approved := !h.cfg.HumanModerationRequired

	motto := &airtable.Motto{
		MessageID:     mottoMsg.ID.String(),
		Date:          mottoMsg.CreatedAt,
		MemberID:      nominee.ID,
		NominatedByID: nominator.ID,
		Approved:      approved,
		BotID:         h.cfg.BotID,
	}
	if approved {
		motto.Text = cleaned
	}

	if err := h.storage.SaveMotto(ctx, motto); err != nil {
		h.logger.Error("Failed to store motto", zap.String("messageID", motto.MessageID), zap.Error(err))
		return
	}

	if approved {
		h.respondStored(ctx, msg, *mottoMsg)
	} else {
		h.respondPending(ctx, msg, *mottoMsg)
	}

	h.refreshNames(ctx,
		namePair{member: nominee, profile: profileOf(*mottoMsg)},
		namePair{member: nominator, profile: profileOf(msg)})
}

type namePair struct {
	member  *airtable.Member
	profile airtable.Profile
}

// refreshNames opportunistically syncs stored names with current profiles.
// Failures are logged, never surfaced to the channel.
func (h *Handler) refreshNames(ctx context.Context, pairs ...namePair) {
	for _, pair := range pairs {
		if pair.member == nil {
			continue
		}

		if err := h.storage.UpdateName(ctx, pair.member, pair.profile); err != nil {
			h.logger.Warn("Failed to refresh member name",
				zap.String("discordID", pair.profile.ID),
				zap.Error(err))
		}
	}
}

// handleTag serves commands addressed to the bot by a leading mention.
func (h *Handler) handleTag(ctx context.Context, msg discord.Message, remainder string) {
	p, _, _, ok := h.ready()
	if !ok {
		return
	}

	if remainder == "" {
		h.respondWave(ctx, msg)
		return
	}

	if random := p.RandomTag.FindStringSubmatch(remainder); random != nil {
		if !h.limiter.Allow(msg.Author.ID.String(), h.now()) {
			h.respondRateLimited(ctx, msg)
			return
		}

		h.sendRandomMotto(ctx, msg, strings.TrimSpace(random[1]))
	}
}

// fetchRandomMotto loads one random approved motto, optionally filtered. The
// filter is tried as a regular expression first and degrades to a substring
// match when it does not compile. A nil motto with nil error means no match.
func (h *Handler) fetchRandomMotto(ctx context.Context, filter string) (*airtable.Motto, error) {
	var pattern *regexp.Regexp

	if filter != "" {
		if re, err := regexp.Compile("(?i)" + filter); err == nil {
			pattern = re
		}
	}

	return h.storage.RandomMotto(ctx, filter, pattern)
}

// sendRandomMotto posts one random approved motto to the channel, shrugging
// when nothing matches.
func (h *Handler) sendRandomMotto(ctx context.Context, msg discord.Message, filter string) {
	motto, err := h.fetchRandomMotto(ctx, filter)
	if err != nil {
		h.logger.Error("Failed to fetch random motto", zap.Error(err))
		return
	}

	if motto == nil {
		h.respondShrug(ctx, msg)
		return
	}

	h.send(ctx, msg, formatMotto(motto))
}

func formatMotto(motto *airtable.Motto) string {
	credit := "anonymous"
	if motto.Member != nil {
		credit = motto.Member.DisplayName()
	}

	return fmt.Sprintf("\"%s\" - %s", motto.Text, credit)
}

// handlePlayful runs the conversational responders for messages that are
// neither nominations nor commands.
func (h *Handler) handlePlayful(ctx context.Context, msg discord.Message, content string) {
	p, _, _, ok := h.ready()
	if !ok {
		return
	}

	switch trimmed := strings.ToLower(strings.TrimSpace(content)); {
	case p.Pokes.MatchString(content):
		h.react(ctx, msg, pickRandom(h.cfg.Reactions.Poke))

	case p.Sorry.MatchString(content), p.Apologising.MatchString(content):
		h.react(ctx, msg, pickRandom(h.cfg.Reactions.Love))

	case p.Love.MatchString(content):
		h.react(ctx, msg, pickRandom(h.cfg.Reactions.Love))

	case p.Hug.MatchString(content):
		h.react(ctx, msg, pickRandom(h.cfg.Reactions.Hug))

	case p.Band.MatchString(content):
		h.respondBand(ctx, msg)

	case trimmed == "i am 🐌" || trimmed == "i am snail" || trimmed == "i am a snail":
		h.react(ctx, msg, "🐌")

	case p.Cow.MatchString(content):
		h.react(ctx, msg, pickRandom(h.cfg.Reactions.Cow))

	case p.OffTopic.MatchString(content):
		h.react(ctx, msg, pickRandom(h.cfg.Reactions.OffTopic))

	default:
		if trigger, actions, ok := p.Food.Match(content); ok {
			h.respondFood(ctx, msg, trigger, actions)
		} else if p.Food.MatchUnknown(content) {
			h.respondUnknownFood(ctx, msg)
		} else if p.Party.MatchString(content) {
			h.respondParty(ctx, msg)
		}
	}
}

// MaybeSweep deletes expired unapproved nominations with a small probability
// per handled message, amortizing the cleanup over normal traffic.
func (h *Handler) MaybeSweep(ctx context.Context) {
	if h.roll() >= sweepChance {
		return
	}

	retention := time.Duration(h.cfg.DeleteUnapprovedAfterHours) * time.Hour

	if err := h.storage.SweepUnapproved(ctx, retention); err != nil {
		h.logger.Error("Failed to sweep unapproved mottos", zap.Error(err))
	}
}
