package bot

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"go.uber.org/zap"

	"github.com/mottoworks/botto/internal/bot/patterns"
)

// partyBurst is how many celebratory reactions a party response fires.
const partyBurst = 5

func (h *Handler) react(ctx context.Context, msg discord.Message, emoji string) {
	if emoji == "" {
		return
	}

	if err := h.transport.AddReaction(ctx, msg.ChannelID, msg.ID, emoji); err != nil {
		h.logger.Warn("Failed to add reaction",
			zap.String("emoji", emoji),
			zap.String("messageID", msg.ID.String()),
			zap.Error(err))
	}
}

func (h *Handler) unreact(ctx context.Context, msg discord.Message, emoji string) {
	if emoji == "" {
		return
	}

	if err := h.transport.RemoveOwnReaction(ctx, msg.ChannelID, msg.ID, emoji); err != nil {
		h.logger.Warn("Failed to remove own reaction",
			zap.String("emoji", emoji),
			zap.String("messageID", msg.ID.String()),
			zap.Error(err))
	}
}

// reply sends a reply to msg when replies are enabled in config.
func (h *Handler) reply(ctx context.Context, msg discord.Message, content string) {
	if !h.cfg.ShouldReply {
		return
	}

	if _, err := h.transport.Reply(ctx, msg.ChannelID, msg.ID, content); err != nil {
		h.logger.Warn("Failed to reply", zap.String("messageID", msg.ID.String()), zap.Error(err))
	}
}

func (h *Handler) send(ctx context.Context, msg discord.Message, content string) {
	if err := h.transport.Send(ctx, msg.ChannelID, content); err != nil {
		h.logger.Warn("Failed to send message", zap.String("channelID", msg.ChannelID.String()), zap.Error(err))
	}
}

func (h *Handler) respondSkynet(ctx context.Context, msg discord.Message) {
	h.react(ctx, msg, h.cfg.Reactions.Reject)
	h.react(ctx, msg, h.cfg.Reactions.Skynet)
	h.reply(ctx, msg, "Skynet prevention")
}

func (h *Handler) respondNotReply(ctx context.Context, msg discord.Message) {
	h.react(ctx, msg, h.cfg.Reactions.Unknown)
	h.reply(ctx, msg, "I see no motto!")
}

func (h *Handler) respondFishing(ctx context.Context, msg discord.Message) {
	h.react(ctx, msg, h.cfg.Reactions.Reject)
	h.react(ctx, msg, h.cfg.Reactions.Fishing)
	h.reply(ctx, msg, "Motto self-suggestions are forbidden")
}

func (h *Handler) respondInvalid(ctx context.Context, msg discord.Message) {
	h.react(ctx, msg, h.cfg.Reactions.Reject)
	h.react(ctx, msg, h.cfg.Reactions.Invalid)
	h.reply(ctx, msg, "MOTTO! :shocked_pikachu:")
}

func (h *Handler) respondDuplicate(ctx context.Context, msg discord.Message) {
	h.react(ctx, msg, h.cfg.Reactions.Repeat)
	h.reply(ctx, msg, "Somebody has already suggested that motto.")
}

func (h *Handler) respondDeleted(ctx context.Context, msg discord.Message) {
	h.react(ctx, msg, h.cfg.Reactions.Deleted)
	h.react(ctx, msg, h.cfg.Reactions.Reject)
	h.unreact(ctx, msg, h.cfg.Reactions.Pending)
	h.reply(ctx, msg, "The message I was asked about appears to have been deleted")
}

// respondPending marks the nominating message as awaiting the nominee's
// confirmation. The marker on that message is what arms the approval flow.
func (h *Handler) respondPending(ctx context.Context, msg discord.Message, mottoMsg discord.Message) {
	h.react(ctx, msg, h.cfg.Reactions.Pending)
	h.reply(ctx, msg, fmt.Sprintf(
		"Now waiting for %s to approve their nomination with %s",
		mottoMsg.Author.EffectiveName(), h.cfg.ApprovalReaction))
}

// respondStored swaps the pending marker for the success reaction on the
// nominating message, fires any bonus reactions configured for the nominee,
// and quotes the nominated text back.
func (h *Handler) respondStored(ctx context.Context, msg, mottoMsg discord.Message) {
	h.unreact(ctx, msg, h.cfg.Reactions.Pending)
	h.react(ctx, msg, h.cfg.Reactions.Success)

	if bonus := h.cfg.SpecialReactions[mottoMsg.Author.ID.String()]; len(bonus) > 0 {
		h.react(ctx, msg, pickRandom(bonus))
	}

	h.reply(ctx, msg, fmt.Sprintf("%q will be considered!", mottoMsg.Content))
}

func (h *Handler) respondRateLimited(ctx context.Context, msg discord.Message) {
	h.react(ctx, msg, h.cfg.Reactions.RateLimit)
}

func (h *Handler) respondWave(ctx context.Context, msg discord.Message) {
	h.react(ctx, msg, h.cfg.Reactions.Wave)
}

func (h *Handler) respondShrug(ctx context.Context, msg discord.Message) {
	h.react(ctx, msg, h.cfg.Reactions.Shrug)
}

func (h *Handler) respondSleep(ctx context.Context, msg discord.Message) {
	h.react(ctx, msg, h.cfg.Reactions.Sleep)
}

func (h *Handler) respondUnknownFood(ctx context.Context, msg discord.Message) {
	h.react(ctx, msg, h.cfg.Reactions.UnknownFood)
}

// respondParty fires a burst of distinct random celebratory reactions.
func (h *Handler) respondParty(ctx context.Context, msg discord.Message) {
	seen := make(map[string]struct{}, partyBurst)

	for i := 0; i < partyBurst; i++ {
		emoji := pickRandom(h.cfg.Reactions.Party)
		if _, dup := seen[emoji]; dup {
			continue
		}

		seen[emoji] = struct{}{}
		h.react(ctx, msg, emoji)
	}
}

// respondBand spells the answer out in regional-indicator letters, in order.
func (h *Handler) respondBand(ctx context.Context, msg discord.Message) {
	for _, letter := range h.cfg.Reactions.FavoriteBand {
		h.react(ctx, msg, letter)
	}
}

// respondFood dispatches the response actions for a recognized fed food.
func (h *Handler) respondFood(ctx context.Context, msg discord.Message, trigger string, actions []patterns.Response) {
	for _, action := range actions {
		switch action.Kind {
		case patterns.ResponseEcho:
			h.react(ctx, msg, trigger)
		case patterns.ResponseParty:
			h.respondParty(ctx, msg)
		case patterns.ResponseEmoji:
			h.react(ctx, msg, action.Emoji)
		}
	}
}
