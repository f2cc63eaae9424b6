// Package bot wires the Discord gateway to the motto nomination, approval
// and direct-message command handlers.
package bot

import (
	"context"
	"fmt"
	"slices"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/mottoworks/botto/internal/airtable"
	"github.com/mottoworks/botto/internal/setup/config"
)

// Bot owns the gateway client and forwards events to the Handler.
type Bot struct {
	cfg     *config.Config
	client  bot.Client
	handler *Handler
	logger  *zap.Logger
}

// New creates the gateway client with the intents the handlers need and
// registers the event listeners. The gateway is not opened yet.
func New(cfg *config.Config, storage airtable.Storage, logger *zap.Logger) (*Bot, error) {
	b := &Bot{
		cfg:    cfg,
		logger: logger,
	}

	client, err := disgo.New(cfg.Auth.DiscordToken,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMessages,
				gateway.IntentGuildMessageReactions,
				gateway.IntentDirectMessages,
				gateway.IntentDirectMessageReactions,
				gateway.IntentMessageContent,
			),
			gateway.WithPresenceOpts(gateway.WithWatchingActivity(cfg.WatchingStatus)),
		),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnReady:              b.onReady,
			OnMessageCreate:      b.onMessageCreate,
			OnMessageReactionAdd: b.onMessageReactionAdd,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}

	b.client = client
	b.handler = NewHandler(cfg, storage, &restTransport{client: client}, logger.Named("handler"))

	return b, nil
}

// Start opens the gateway connection and returns once it is established.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.client.OpenGateway(ctx); err != nil {
		return fmt.Errorf("failed to open gateway: %w", err)
	}

	return nil
}

// Close shuts the gateway connection down.
func (b *Bot) Close(ctx context.Context) {
	b.client.Close(ctx)
}

func (b *Bot) onReady(event *events.Ready) {
	user := event.User

	b.logger.Info("Logged in",
		zap.String("username", user.Username),
		zap.String("id", user.ID.String()))

	if err := b.handler.Ready(user.ID, user.Username); err != nil {
		b.logger.Error("Failed to compile matchers", zap.Error(err))
	}
}

func (b *Bot) onMessageCreate(event *events.MessageCreate) {
	ctx := context.Background()

	if event.GuildID == nil {
		b.handler.HandleDM(ctx, event.Message)
		return
	}

	if !b.channelAllowed(event.ChannelID) {
		return
	}

	b.handler.HandleMessage(ctx, event.Message)
	b.handler.MaybeSweep(ctx)
}

func (b *Bot) onMessageReactionAdd(event *events.MessageReactionAdd) {
	var emoji string
	if event.Emoji.Name != nil {
		emoji = *event.Emoji.Name
	}

	b.handler.HandleReactionAdd(context.Background(), ReactionEvent{
		UserID:    event.UserID,
		ChannelID: event.ChannelID,
		MessageID: event.MessageID,
		Emoji:     emoji,
		Member:    event.Member,
	})
}

// channelAllowed applies the channel include/exclude lists by channel name.
// A channel missing from the cache is let through so messages are not
// silently dropped during startup.
func (b *Bot) channelAllowed(channelID snowflake.ID) bool {
	name, ok := b.handler.transport.ChannelName(channelID)
	if !ok {
		return len(b.cfg.Channels.Include) == 0
	}

	if len(b.cfg.Channels.Include) > 0 {
		return slices.Contains(b.cfg.Channels.Include, name)
	}

	return !slices.Contains(b.cfg.Channels.Exclude, name)
}
