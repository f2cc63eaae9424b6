package bot

import (
	"context"
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mottoworks/botto/internal/setup/config"
)

func TestSuggestionWithoutReply(t *testing.T) {
	t.Parallel()

	handler, storage, transport := newTestHandler(t, nil)

	msg := newMessage(1, "arthur", "!motto")
	handler.HandleMessage(context.Background(), msg)

	assert.Equal(t, []string{"❓"}, transport.reactionsOn(msg.ID))
	assert.Contains(t, transport.replies, "I see no motto!")
	assert.Empty(t, storage.saved)
}

func TestSuggestionOfBotMessage(t *testing.T) {
	t.Parallel()

	handler, storage, transport := newTestHandler(t, nil)

	target := newMessage(testSelfID, "Botto", "beep boop, a fine sentiment")
	msg := nominate(1, "arthur", "!motto", target)
	handler.HandleMessage(context.Background(), msg)

	assert.Equal(t, []string{"❌", "👽"}, transport.reactionsOn(msg.ID))
	assert.Empty(t, storage.saved)
}

func TestSuggestionOfDeletedMessage(t *testing.T) {
	t.Parallel()

	handler, storage, transport := newTestHandler(t, nil)

	gone := snowflake.ID(77777)
	msg := newMessage(1, "arthur", "!motto")
	msg.MessageReference = &discord.MessageReference{MessageID: &gone}

	handler.HandleMessage(context.Background(), msg)

	assert.Equal(t, []string{"🗑️", "❌"}, transport.reactionsOn(msg.ID))
	assert.Empty(t, storage.saved)
}

func TestSuggestionSelfNomination(t *testing.T) {
	t.Parallel()

	handler, storage, transport := newTestHandler(t, nil)

	target := newMessage(1, "arthur", "time is an illusion, lunchtime doubly so")
	msg := nominate(1, "arthur", "!motto", target)
	handler.HandleMessage(context.Background(), msg)

	assert.Equal(t, []string{"❌", "🎣"}, transport.reactionsOn(msg.ID))
	assert.Empty(t, storage.saved)
}

func TestSuggestionInvalidText(t *testing.T) {
	t.Parallel()

	handler, storage, transport := newTestHandler(t, nil)

	target := newMessage(2, "ford", "hi!")
	msg := nominate(1, "arthur", "!motto", target)
	handler.HandleMessage(context.Background(), msg)

	assert.Equal(t, []string{"❌", "🙅"}, transport.reactionsOn(msg.ID))
	assert.Empty(t, storage.saved)
}

func TestSuggestionDuplicate(t *testing.T) {
	t.Parallel()

	handler, storage, transport := newTestHandler(t, nil)
	storage.matching = true

	target := newMessage(2, "ford", "time is an illusion, lunchtime doubly so")
	msg := nominate(1, "arthur", "!motto", target)
	handler.HandleMessage(context.Background(), msg)

	assert.Equal(t, []string{"♻️"}, transport.reactionsOn(msg.ID))
	assert.Empty(t, storage.saved)
}

func TestSuggestionPendingWithHumanModeration(t *testing.T) {
	t.Parallel()

	handler, storage, transport := newTestHandler(t, nil)

	target := newMessage(2, "ford", "time is an illusion, lunchtime doubly so")
	msg := nominate(1, "arthur", "!motto", target)
	handler.HandleMessage(context.Background(), msg)

	require.Len(t, storage.saved, 1)
	saved := storage.saved[0]
	assert.Empty(t, saved.Text, "text is withheld until the nominee approves")
	assert.False(t, saved.Approved)
	assert.Equal(t, target.ID.String(), saved.MessageID)
	assert.Equal(t, "mem-2", saved.MemberID)
	assert.Equal(t, "mem-1", saved.NominatedByID)
	assert.Equal(t, target.CreatedAt, saved.Date)

	assert.Equal(t, []string{"⏳"}, transport.reactionsOn(msg.ID), "pending marker goes on the nominating message")
	assert.Empty(t, transport.reactionsOn(target.ID))
	require.Len(t, transport.replies, 1)
	assert.Contains(t, transport.replies[0], "👍")

	assert.Equal(t, 2, storage.nameUpdates)
}

func TestSuggestionAutoApprove(t *testing.T) {
	t.Parallel()

	handler, storage, transport := newTestHandler(t, func(cfg *config.Config) {
		cfg.HumanModerationRequired = false
	})

	target := newMessage(2, "ford", "time is an illusion, lunchtime doubly so")
	msg := nominate(1, "arthur", "!motto", target)
	handler.HandleMessage(context.Background(), msg)

	require.Len(t, storage.saved, 1)
	saved := storage.saved[0]
	assert.Equal(t, "time is an illusion, lunchtime doubly so", saved.Text)
	assert.True(t, saved.Approved)

	assert.Equal(t, []string{"📥"}, transport.reactionsOn(msg.ID))
}

func TestSuggestionSpecialReaction(t *testing.T) {
	t.Parallel()

	handler, storage, transport := newTestHandler(t, func(cfg *config.Config) {
		cfg.HumanModerationRequired = false
		cfg.SpecialReactions = map[string][]string{"2": {"🦄"}}
	})

	target := newMessage(2, "ford", "time is an illusion, lunchtime doubly so")
	msg := nominate(1, "arthur", "!motto", target)
	handler.HandleMessage(context.Background(), msg)

	require.Len(t, storage.saved, 1)
	assert.Equal(t, []string{"📥", "🦄"}, transport.reactionsOn(msg.ID))
}

func TestSuggestionExcerptMustBeVerbatim(t *testing.T) {
	t.Parallel()

	handler, storage, transport := newTestHandler(t, nil)

	target := newMessage(2, "ford", "time is an illusion, lunchtime doubly so")
	msg := nominate(1, "arthur", `!motto "money is an illusion"`, target)
	handler.HandleMessage(context.Background(), msg)

	assert.Equal(t, []string{"❓"}, transport.reactionsOn(msg.ID))
	assert.Empty(t, storage.saved)
}

func TestSuggestionExcerptNarrowsNomination(t *testing.T) {
	t.Parallel()

	handler, storage, _ := newTestHandler(t, func(cfg *config.Config) {
		cfg.HumanModerationRequired = false
	})

	target := newMessage(2, "ford", "time is an illusion, lunchtime doubly so")
	msg := nominate(1, "arthur", `!motto "time is an illusion"`, target)
	handler.HandleMessage(context.Background(), msg)

	require.Len(t, storage.saved, 1)
	assert.Equal(t, "time is an illusion", storage.saved[0].Text)
}

func TestMaintenanceAnnouncement(t *testing.T) {
	t.Parallel()

	handler, _, transport := newTestHandler(t, func(cfg *config.Config) {
		cfg.Maintainers = []string{"1"}
	})

	msg := newMessage(1, "arthur", "!sleep")
	handler.HandleMessage(context.Background(), msg)
	assert.Equal(t, []string{"😴"}, transport.reactionsOn(msg.ID))

	other := newMessage(2, "ford", "!sleep")
	handler.HandleMessage(context.Background(), other)
	assert.Empty(t, transport.reactionsOn(other.ID), "non-maintainers cannot announce maintenance")
}

func TestTagWave(t *testing.T) {
	t.Parallel()

	handler, _, transport := newTestHandler(t, nil)

	msg := newMessage(1, "arthur", "<@100>")
	handler.HandleMessage(context.Background(), msg)

	assert.Equal(t, []string{"👋"}, transport.reactionsOn(msg.ID))
}

func TestTagRandomMotto(t *testing.T) {
	t.Parallel()

	handler, storage, transport := newTestHandler(t, nil)
	storage.randomMotto = randomMotto("So long and thanks for all the fish", "arthur")

	msg := newMessage(1, "arthur", "<@100> !random")
	handler.HandleMessage(context.Background(), msg)

	require.Len(t, transport.sent, 1)
	assert.Equal(t, "\"So long and thanks for all the fish\" - arthur", transport.sent[0])
}

func TestTagRandomRateLimited(t *testing.T) {
	t.Parallel()

	handler, storage, transport := newTestHandler(t, nil)
	storage.randomMotto = randomMotto("So long and thanks for all the fish", "arthur")

	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	now := base
	handler.now = func() time.Time { return now }

	first := newMessage(1, "arthur", "<@100> !random")
	handler.HandleMessage(context.Background(), first)
	require.Len(t, transport.sent, 1)

	now = base.Add(time.Minute)

	second := newMessage(2, "ford", "<@100> !random")
	handler.HandleMessage(context.Background(), second)

	assert.Len(t, transport.sent, 1, "second request inside the global cooldown sends nothing")
	assert.Equal(t, []string{"✋"}, transport.reactionsOn(second.ID))
}

func TestTagRandomNoMatch(t *testing.T) {
	t.Parallel()

	handler, _, transport := newTestHandler(t, nil)

	msg := newMessage(1, "arthur", "<@100> !random wombat")
	handler.HandleMessage(context.Background(), msg)

	assert.Equal(t, []string{"🤷"}, transport.reactionsOn(msg.ID))
	assert.Empty(t, transport.sent)
}

func TestPlayfulFood(t *testing.T) {
	t.Parallel()

	handler, _, transport := newTestHandler(t, nil)

	msg := newMessage(1, "arthur", "feeds <@100> a 🍕")
	handler.HandleMessage(context.Background(), msg)

	assert.Equal(t, []string{"😋", "🍕"}, transport.reactionsOn(msg.ID))
}

func TestPlayfulUnknownFood(t *testing.T) {
	t.Parallel()

	handler, _, transport := newTestHandler(t, nil)

	msg := newMessage(1, "arthur", "feeds <@100> a 🌵")
	handler.HandleMessage(context.Background(), msg)

	assert.Equal(t, []string{"😵"}, transport.reactionsOn(msg.ID))
}

func TestPlayfulBand(t *testing.T) {
	t.Parallel()

	handler, _, transport := newTestHandler(t, nil)

	msg := newMessage(1, "arthur", "What's your favourite band <@100>?")
	handler.HandleMessage(context.Background(), msg)

	assert.Equal(t, []string{"🇧", "🇹", "🇸"}, transport.reactionsOn(msg.ID))
}

func TestPlayfulSnail(t *testing.T) {
	t.Parallel()

	handler, _, transport := newTestHandler(t, nil)

	msg := newMessage(1, "arthur", "I am 🐌")
	handler.HandleMessage(context.Background(), msg)

	assert.Equal(t, []string{"🐌"}, transport.reactionsOn(msg.ID))
}

func TestOwnMessagesIgnored(t *testing.T) {
	t.Parallel()

	handler, storage, transport := newTestHandler(t, nil)

	msg := newMessage(testSelfID, "Botto", "!motto")
	handler.HandleMessage(context.Background(), msg)

	assert.Empty(t, transport.reactionsOn(msg.ID))
	assert.Empty(t, storage.saved)
}

func TestMaybeSweep(t *testing.T) {
	t.Parallel()

	handler, storage, _ := newTestHandler(t, nil)

	handler.roll = func() float64 { return 0.5 }
	handler.MaybeSweep(context.Background())
	assert.Empty(t, storage.sweeps)

	handler.roll = func() float64 { return 0.05 }
	handler.MaybeSweep(context.Background())

	require.Len(t, storage.sweeps, 1)
	assert.Equal(t, 24*time.Hour, storage.sweeps[0])
}
