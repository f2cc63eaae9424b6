package bot

import (
	"context"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/mottoworks/botto/internal/airtable"
)

// ReactionEvent is the transport-independent shape of a reaction-add event.
type ReactionEvent struct {
	UserID    snowflake.ID
	ChannelID snowflake.ID
	MessageID snowflake.ID
	Emoji     string
	Member    *discord.Member
}

// HandleReactionAdd routes a reaction to the nomination approval flow or the
// data-erasure confirmation flow. All other reactions are ignored.
func (h *Handler) HandleReactionAdd(ctx context.Context, event ReactionEvent) {
	if _, _, _, ok := h.ready(); !ok {
		return
	}

	selfID, _ := h.self()
	if event.UserID == selfID {
		return
	}

	switch event.Emoji {
	case h.cfg.ApprovalReaction:
		h.handleApproval(ctx, event)
	case h.cfg.ConfirmDeleteReaction:
		h.handleConfirmDelete(ctx, event)
	}
}

// handleApproval stores the text of a pending nomination once the nominee
// confirms with the approval reaction on the nominating message.
func (h *Handler) handleApproval(ctx context.Context, event ReactionEvent) {
	p, _, cleaner, ok := h.ready()
	if !ok {
		return
	}

	msg, err := h.transport.Message(ctx, event.ChannelID, event.MessageID)
	if err != nil {
		h.logger.Debug("Reaction target no longer exists",
			zap.String("channelID", event.ChannelID.String()),
			zap.String("messageID", event.MessageID.String()))

		return
	}

	// Only messages still carrying the bot's pending marker are in the
	// approval workflow; anything else with this emoji is just a reaction.
	if !h.hasPendingMarker(*msg) {
		return
	}

	if msg.MessageReference == nil || msg.MessageReference.MessageID == nil {
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
			h.respondDeleted(ctx, *msg)
			return
		}

		mottoMsg = fetched
	}

	// Only the nominee may confirm their own nomination.
	if mottoMsg.Author.ID != event.UserID {
		return
	}

	motto, err := h.storage.MottoByMessageID(ctx, mottoMsg.ID.String())
	if err != nil {
		h.logger.Error("Failed to look up pending motto", zap.Error(err))
		return
	}

	if motto == nil || motto.Text != "" {
		return
	}

	trigger := p.FindTrigger(msg.Content, h.cfg.TriggerOnMention)
	if trigger == nil {
		return
	}

	// Re-derive the text the same way the nomination did: an inline excerpt
	// narrows it, provided it still quotes the message verbatim.
	candidate := mottoMsg.Content

	if excerpt := cleanExcerpt(trigger, msg.Content); excerpt != "" {
		if !strings.Contains(mottoMsg.Content, excerpt) {
			return
		}

		candidate = excerpt
	}

	cleaned := cleaner.Clean(candidate)

	// The pending record has empty text, so it cannot match itself here.
	duplicate, err := h.storage.MatchingMottos(ctx, cleaned, "")
	if err != nil {
		h.logger.Error("Failed duplicate check", zap.Error(err))
		return
	}

	if duplicate {
		if err := h.storage.DeleteMotto(ctx, motto.ID); err != nil {
			h.logger.Error("Failed to delete duplicate nomination", zap.String("id", motto.ID), zap.Error(err))
			return
		}

		h.unreact(ctx, *msg, h.cfg.Reactions.Pending)
		h.respondDuplicate(ctx, *msg)

		return
	}

	motto.Text = cleaned
	motto.ApprovedByAuthor = true

	if err := h.storage.SaveMotto(ctx, motto, airtable.FieldMotto, airtable.FieldApprovedByAuthor); err != nil {
		h.logger.Error("Failed to store approved motto", zap.String("id", motto.ID), zap.Error(err))
		return
	}

	h.respondStored(ctx, *msg, *mottoMsg)

	pairs := make([]namePair, 0, 2)

	for _, profile := range []airtable.Profile{reactorProfile(event, *mottoMsg), profileOf(*msg)} {
		member, err := h.storage.GetOrAddMember(ctx, profile)
		if err != nil {
			h.logger.Warn("Failed to resolve member", zap.String("discordID", profile.ID), zap.Error(err))
			continue
		}

		pairs = append(pairs, namePair{member: member, profile: profile})
	}

	h.refreshNames(ctx, pairs...)
}

// handleConfirmDelete erases all of a user's data after they confirm the
// bot's delete prompt in their direct-message channel.
func (h *Handler) handleConfirmDelete(ctx context.Context, event ReactionEvent) {
	selfID, _ := h.self()

	isDM, err := h.transport.IsDMChannel(ctx, event.ChannelID)
	if err != nil {
		h.logger.Warn("Failed to resolve channel", zap.String("channelID", event.ChannelID.String()), zap.Error(err))
		return
	}

	if !isDM {
		return
	}

	msg, err := h.transport.Message(ctx, event.ChannelID, event.MessageID)
	if err != nil {
		h.logger.Warn("Failed to fetch delete prompt", zap.Error(err))
		return
	}

	if msg.Author.ID != selfID || !h.hasPendingMarker(*msg) {
		return
	}

	if err := h.storage.RemoveAllData(ctx, event.UserID.String()); err != nil {
		h.logger.Error("Failed to remove member data", zap.String("discordID", event.UserID.String()), zap.Error(err))
		return
	}

	h.unreact(ctx, *msg, h.cfg.Reactions.Pending)
	h.react(ctx, *msg, h.cfg.Reactions.DeleteConfirmed)
	h.send(ctx, *msg, "All of your data has been removed. "+
		"If you nominate or are nominated for a motto in future, your data will be captured again. "+
		"Goodbye for now!")
}

// hasPendingMarker reports whether the bot's own pending reaction is present
// on the message.
func (h *Handler) hasPendingMarker(msg discord.Message) bool {
	for _, reaction := range msg.Reactions {
		if reaction.Me && reaction.Emoji.Name == h.cfg.Reactions.Pending {
			return true
		}
	}

	return false
}

// reactorProfile builds a profile for the reacting user, preferring the
// guild member payload when the gateway delivered one.
func reactorProfile(event ReactionEvent, msg discord.Message) airtable.Profile {
	if event.Member != nil {
		nick := event.Member.User.Username
		if event.Member.Nick != nil && *event.Member.Nick != "" {
			nick = *event.Member.Nick
		}

		return airtable.Profile{
			ID:       event.Member.User.ID.String(),
			Username: event.Member.User.Username,
			Nick:     nick,
		}
	}

	return profileOf(msg)
}
