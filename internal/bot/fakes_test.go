package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mottoworks/botto/internal/airtable"
	"github.com/mottoworks/botto/internal/setup/config"
)

const (
	testSelfID    = snowflake.ID(100)
	testChannelID = snowflake.ID(200)
)

var errNotFound = errors.New("not found")

// fakeStorage is an in-memory Storage that records every mutation.
type fakeStorage struct {
	mu sync.Mutex

	matching    bool
	randomMotto *airtable.Motto
	leaders     []*airtable.Member
	supporters  []*airtable.Member

	mottosByMessageID map[string]*airtable.Motto
	membersByDiscord  map[string]*airtable.Member

	saved       []*airtable.Motto
	savedFields [][]string
	deleted     []string
	removed     []string
	nickCalls   []bool
	emojiCalls  []string
	nameUpdates int
	sweeps      []time.Duration

	nextID int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		mottosByMessageID: map[string]*airtable.Motto{},
		membersByDiscord:  map[string]*airtable.Member{},
	}
}

func (f *fakeStorage) SaveMotto(_ context.Context, motto *airtable.Motto, fields ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if motto.ID == "" {
		f.nextID++
		motto.ID = fmt.Sprintf("rec%d", f.nextID)
	}

	f.saved = append(f.saved, motto)
	f.savedFields = append(f.savedFields, fields)
	f.mottosByMessageID[motto.MessageID] = motto

	return nil
}

func (f *fakeStorage) MatchingMottos(context.Context, string, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.matching, nil
}

func (f *fakeStorage) MottoByMessageID(_ context.Context, messageID string) (*airtable.Motto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.mottosByMessageID[messageID], nil
}

func (f *fakeStorage) RandomMotto(context.Context, string, *regexp.Regexp) (*airtable.Motto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.randomMotto, nil
}

func (f *fakeStorage) DeleteMotto(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, id)

	return nil
}

func (f *fakeStorage) GetOrAddMember(_ context.Context, profile airtable.Profile) (*airtable.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if member, ok := f.membersByDiscord[profile.ID]; ok {
		return member, nil
	}

	member := &airtable.Member{
		ID:        "mem-" + profile.ID,
		Username:  profile.Username,
		DiscordID: profile.ID,
	}
	f.membersByDiscord[profile.ID] = member

	return member, nil
}

func (f *fakeStorage) MemberByID(_ context.Context, id string) (*airtable.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, member := range f.membersByDiscord {
		if member.ID == id {
			return member, nil
		}
	}

	return nil, errNotFound
}

func (f *fakeStorage) MemberByDiscordID(_ context.Context, discordID string) (*airtable.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.membersByDiscord[discordID], nil
}

func (f *fakeStorage) RemoveAllData(_ context.Context, discordID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.removed = append(f.removed, discordID)

	return nil
}

func (f *fakeStorage) SetNickOption(_ context.Context, _ airtable.Profile, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nickCalls = append(f.nickCalls, on)

	return nil
}

func (f *fakeStorage) UpdateName(context.Context, *airtable.Member, airtable.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nameUpdates++

	return nil
}

func (f *fakeStorage) UpdateEmoji(_ context.Context, _ *airtable.Member, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.emojiCalls = append(f.emojiCalls, emoji)

	return nil
}

func (f *fakeStorage) SupportMembers(context.Context) ([]*airtable.Member, error) {
	return f.supporters, nil
}

func (f *fakeStorage) Leaders(context.Context, int) ([]*airtable.Member, error) {
	return f.leaders, nil
}

func (f *fakeStorage) SweepUnapproved(_ context.Context, olderThan time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sweeps = append(f.sweeps, olderThan)

	return nil
}

// fakeTransport records reactions and messages. Reactions added to a known
// message are reflected back into it so reaction-driven flows can be tested
// end to end.
type fakeTransport struct {
	mu sync.Mutex

	messages     map[snowflake.ID]*discord.Message
	dmChannels   map[snowflake.ID]bool
	channelNames map[snowflake.ID]string

	reactions map[snowflake.ID][]string
	replies   []string
	sent      []string

	nextID snowflake.ID
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		messages:     map[snowflake.ID]*discord.Message{},
		dmChannels:   map[snowflake.ID]bool{},
		channelNames: map[snowflake.ID]string{},
		reactions:    map[snowflake.ID][]string{},
		nextID:       snowflake.ID(9000),
	}
}

func (f *fakeTransport) know(msg *discord.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages[msg.ID] = msg
}

func (f *fakeTransport) AddReaction(_ context.Context, _, messageID snowflake.ID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reactions[messageID] = append(f.reactions[messageID], emoji)

	if msg, ok := f.messages[messageID]; ok {
		msg.Reactions = append(msg.Reactions, discord.MessageReaction{
			Me:    true,
			Emoji: discord.Emoji{Name: emoji},
		})
	}

	return nil
}

func (f *fakeTransport) RemoveOwnReaction(_ context.Context, _, messageID snowflake.ID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.reactions[messageID][:0]
	for _, existing := range f.reactions[messageID] {
		if existing != emoji {
			kept = append(kept, existing)
		}
	}

	f.reactions[messageID] = kept

	if msg, ok := f.messages[messageID]; ok {
		remaining := msg.Reactions[:0]
		for _, reaction := range msg.Reactions {
			if reaction.Emoji.Name != emoji {
				remaining = append(remaining, reaction)
			}
		}

		msg.Reactions = remaining
	}

	return nil
}

func (f *fakeTransport) Reply(_ context.Context, channelID, _ snowflake.ID, content string) (*discord.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.replies = append(f.replies, content)

	f.nextID++
	msg := &discord.Message{
		ID:        f.nextID,
		ChannelID: channelID,
		Content:   content,
		Author:    discord.User{ID: testSelfID, Username: "Botto"},
	}
	f.messages[msg.ID] = msg

	return msg, nil
}

func (f *fakeTransport) Send(_ context.Context, _ snowflake.ID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, content)

	return nil
}

func (f *fakeTransport) Message(_ context.Context, _, messageID snowflake.ID) (*discord.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg, ok := f.messages[messageID]
	if !ok {
		return nil, errNotFound
	}

	return msg, nil
}

func (f *fakeTransport) IsDMChannel(_ context.Context, channelID snowflake.ID) (bool, error) {
	return f.dmChannels[channelID], nil
}

func (f *fakeTransport) ChannelName(channelID snowflake.ID) (string, bool) {
	name, ok := f.channelNames[channelID]
	return name, ok
}

// lastBotMessage finds the most recently synthesized bot-authored message.
func (f *fakeTransport) lastBotMessage() (snowflake.ID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var (
		latest snowflake.ID
		found  bool
	)

	for id, msg := range f.messages {
		if msg.Author.ID == testSelfID && id >= latest {
			latest = id
			found = true
		}
	}

	return latest, found
}

func (f *fakeTransport) reactionsOn(messageID snowflake.ID) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.reactions[messageID]...)
}

func newTestHandler(t *testing.T, mutate func(*config.Config)) (*Handler, *fakeStorage, *fakeTransport) {
	t.Helper()

	cfg := config.Default()
	cfg.Auth = config.Auth{DiscordToken: "t", AirtableKey: "k", AirtableBase: "b"}

	if mutate != nil {
		mutate(cfg)
	}

	storage := newFakeStorage()
	transport := newFakeTransport()

	handler := NewHandler(cfg, storage, transport, zap.NewNop())
	require.NoError(t, handler.Ready(testSelfID, "Botto"))

	handler.roll = func() float64 { return 1 }

	return handler, storage, transport
}

var nextMessageID atomic.Uint64

func newMessage(author snowflake.ID, username, content string) discord.Message {
	return discord.Message{
		ID:        snowflake.ID(1000 + nextMessageID.Add(1)),
		ChannelID: testChannelID,
		Content:   content,
		Author:    discord.User{ID: author, Username: username},
		CreatedAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func randomMotto(text, username string) *airtable.Motto {
	return &airtable.Motto{Text: text, Member: &airtable.Member{Username: username}}
}

// nominate builds a trigger message replying to target.
func nominate(author snowflake.ID, username, content string, target discord.Message) discord.Message {
	msg := newMessage(author, username, content)
	targetID := target.ID
	msg.MessageReference = &discord.MessageReference{MessageID: &targetID}
	msg.ReferencedMessage = &target

	return msg
}
