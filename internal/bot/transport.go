package bot

import (
	"context"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
)

// Transport is the narrow chat-platform surface the handlers depend on.
// The disgo client implements it in production; tests substitute a fake.
type Transport interface {
	// AddReaction adds the bot's reaction to a message.
	AddReaction(ctx context.Context, channelID, messageID snowflake.ID, emoji string) error
	// RemoveOwnReaction removes the bot's own reaction from a message.
	RemoveOwnReaction(ctx context.Context, channelID, messageID snowflake.ID, emoji string) error
	// Reply sends a reply to the given message in its channel.
	Reply(ctx context.Context, channelID, messageID snowflake.ID, content string) (*discord.Message, error)
	// Send sends a plain message to a channel.
	Send(ctx context.Context, channelID snowflake.ID, content string) error
	// Message fetches a message by ID.
	Message(ctx context.Context, channelID, messageID snowflake.ID) (*discord.Message, error)
	// IsDMChannel reports whether the channel is a direct-message channel.
	IsDMChannel(ctx context.Context, channelID snowflake.ID) (bool, error)
	// ChannelName resolves a channel ID to its display name from cache.
	ChannelName(channelID snowflake.ID) (string, bool)
}

type restTransport struct {
	client bot.Client
}

func (t *restTransport) AddReaction(ctx context.Context, channelID, messageID snowflake.ID, emoji string) error {
	return t.client.Rest().AddReaction(channelID, messageID, emoji, rest.WithCtx(ctx))
}

func (t *restTransport) RemoveOwnReaction(ctx context.Context, channelID, messageID snowflake.ID, emoji string) error {
	return t.client.Rest().RemoveOwnReaction(channelID, messageID, emoji, rest.WithCtx(ctx))
}

func (t *restTransport) Reply(ctx context.Context, channelID, messageID snowflake.ID, content string) (*discord.Message, error) {
	return t.client.Rest().CreateMessage(channelID, discord.MessageCreate{
		Content:          content,
		MessageReference: &discord.MessageReference{MessageID: &messageID},
	}, rest.WithCtx(ctx))
}

func (t *restTransport) Send(ctx context.Context, channelID snowflake.ID, content string) error {
	_, err := t.client.Rest().CreateMessage(channelID, discord.MessageCreate{Content: content}, rest.WithCtx(ctx))
	return err
}

func (t *restTransport) Message(ctx context.Context, channelID, messageID snowflake.ID) (*discord.Message, error) {
	return t.client.Rest().GetMessage(channelID, messageID, rest.WithCtx(ctx))
}

func (t *restTransport) IsDMChannel(ctx context.Context, channelID snowflake.ID) (bool, error) {
	if _, ok := t.client.Caches().Channel(channelID); ok {
		// Guild channels are the only ones cached.
		return false, nil
	}

	channel, err := t.client.Rest().GetChannel(channelID, rest.WithCtx(ctx))
	if err != nil {
		return false, err
	}

	return channel.Type() == discord.ChannelTypeDM, nil
}

func (t *restTransport) ChannelName(channelID snowflake.ID) (string, bool) {
	channel, ok := t.client.Caches().Channel(channelID)
	if !ok {
		return "", false
	}

	return channel.Name(), true
}
