package bot

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/forPelevin/gomoji"
	"go.uber.org/zap"

	"github.com/mottoworks/botto/internal/airtable"
)

// leaderboardSize caps how many members a DM leaderboard shows.
const leaderboardSize = 5

var numberWords = []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}

// HandleDM dispatches a direct message to its command handler. Unrecognized
// messages get the unknown reaction instead of silence.
func (h *Handler) HandleDM(ctx context.Context, msg discord.Message) {
	if _, _, _, ok := h.ready(); !ok {
		return
	}

	selfID, _ := h.self()
	if msg.Author.ID == selfID || msg.Author.Bot {
		return
	}

	content := strings.ToLower(strings.TrimSpace(msg.Content))

	switch {
	case isHelpRequest(content):
		h.dmHelp(ctx, msg)
	case content == "!leaderboard":
		h.dmLeaderboard(ctx, msg)
	case content == "!version":
		h.dmVersion(ctx, msg)
	case content == "!link":
		h.dmLink(ctx, msg)
	case content == "!delete":
		h.dmDeletePrompt(ctx, msg)
	case strings.HasPrefix(content, "!random"):
		h.dmRandom(ctx, msg, strings.TrimSpace(strings.TrimPrefix(content, "!random")))
	case strings.HasPrefix(content, "!nick"):
		h.dmNick(ctx, msg, content)
	case strings.HasPrefix(content, "!emoji"):
		h.dmEmoji(ctx, msg, content)
	default:
		h.react(ctx, msg, h.cfg.Reactions.Unknown)
	}
}

func isHelpRequest(content string) bool {
	switch content {
	case "!help", "help", "help!", "halp", "halp!", "!halp":
		return true
	}

	return false
}

func (h *Handler) dmHelp(ctx context.Context, msg discord.Message) {
	_, selfName := h.self()

	var b strings.Builder

	fmt.Fprintf(&b, "Hi, I'm %s! Here's what I can do:\n", selfName)
	b.WriteString("• Reply to a message in the server with `!motto` to nominate it for the motto list.\n")
	b.WriteString("• `!random` posts a random approved motto. Add a word or pattern to filter, like `!random fish`.\n")
	b.WriteString("• `!leaderboard` shows who has the most mottos.\n")
	b.WriteString("• `!emoji 🏅` sets the emoji shown next to your name on the leaderboard. `!emoji` on its own clears it.\n")
	b.WriteString("• `!nick on` / `!nick off` switches the leaderboard between your server nickname and your username.\n")
	b.WriteString("• `!delete` removes all of your data from the motto list.\n")

	if h.cfg.LeaderboardLink != "" {
		b.WriteString("• `!link` sends the full leaderboard link.\n")
	}

	supporters, err := h.storage.SupportMembers(ctx)
	if err != nil {
		h.logger.Warn("Failed to list support members", zap.Error(err))
	}

	if len(supporters) > 0 {
		names := make([]string, 0, len(supporters))
		for _, member := range supporters {
			names = append(names, member.DisplayName())
		}

		fmt.Fprintf(&b, "\nIf you need a hand, ask %s", strings.Join(names, ", "))

		if h.cfg.SupportChannel != "" {
			fmt.Fprintf(&b, " in #%s", h.cfg.SupportChannel)
		}

		b.WriteString(".")
	}

	h.send(ctx, msg, b.String())
}

func (h *Handler) dmLeaderboard(ctx context.Context, msg discord.Message) {
	leaders, err := h.storage.Leaders(ctx, leaderboardSize)
	if err != nil {
		h.logger.Error("Failed to fetch leaders", zap.Error(err))
		return
	}

	if len(leaders) == 0 {
		h.send(ctx, msg, "There doesn't appear to be anybody on the leaderboard!")
		return
	}

	h.send(ctx, msg, renderLeaderboard(leaders))
}

// renderLeaderboard numbers members by rank, giving members with the same
// motto count the same number and skipping the positions a tie swallows.
func renderLeaderboard(leaders []*airtable.Member) string {
	var b strings.Builder

	position := 0
	jump := 1
	previous := -1

	for _, member := range leaders {
		if member.MottoCount != previous {
			position += jump
			jump = 1
		} else {
			jump++
		}

		previous = member.MottoCount

		unit := "mottos"
		if member.MottoCount == 1 {
			unit = "motto"
		}

		fmt.Fprintf(&b, "%s <@%s> %s (%d %s)\n", numberEmoji(position), member.DiscordID, member.DisplayName(), member.MottoCount, unit)
	}

	return strings.TrimRight(b.String(), "\n")
}

// numberEmoji renders a rank as digit emoji shortcodes, one per digit.
func numberEmoji(n int) string {
	if n == 0 {
		return ":zero:"
	}

	var digits []string

	for n > 0 {
		digits = append([]string{":" + numberWords[n%10] + ":"}, digits...)
		n /= 10
	}

	return strings.Join(digits, "")
}

func (h *Handler) dmRandom(ctx context.Context, msg discord.Message, filter string) {
	motto, err := h.fetchRandomMotto(ctx, filter)
	if err != nil {
		h.logger.Error("Failed to fetch random motto", zap.Error(err))
		return
	}

	if motto == nil {
		h.send(ctx, msg, "Sorry mate, I'm all out.")
		return
	}

	h.send(ctx, msg, formatMotto(motto))
}

func (h *Handler) dmVersion(ctx context.Context, msg discord.Message) {
	version := os.Getenv("BOTTO_VERSION")

	if version == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
			version = info.Main.Version
		}
	}

	if version == "" || version == "(devel)" {
		version = "unknown"
	}

	response := "Version: " + version
	if h.cfg.BotID != "" {
		response += fmt.Sprintf(" (%s)", h.cfg.BotID)
	}

	h.send(ctx, msg, response)
}

func (h *Handler) dmLink(ctx context.Context, msg discord.Message) {
	if h.cfg.LeaderboardLink == "" {
		h.react(ctx, msg, h.cfg.Reactions.Unknown)
		return
	}

	h.send(ctx, msg, "The full leaderboard is here: "+h.cfg.LeaderboardLink)
}

// dmDeletePrompt asks for confirmation before erasing anything. The pending
// marker on the prompt is what arms the confirm-delete reaction flow.
func (h *Handler) dmDeletePrompt(ctx context.Context, msg discord.Message) {
	prompt, err := h.transport.Reply(ctx, msg.ChannelID, msg.ID, fmt.Sprintf(
		"This will remove your mottos and your member record. There is no undo. React to this message with %s to confirm.",
		h.cfg.ConfirmDeleteReaction))
	if err != nil {
		h.logger.Error("Failed to send delete prompt", zap.Error(err))
		return
	}

	h.react(ctx, *prompt, h.cfg.Reactions.Pending)
}

func (h *Handler) dmNick(ctx context.Context, msg discord.Message, content string) {
	fields := strings.Fields(content)
	if len(fields) != 2 || (fields[1] != "on" && fields[1] != "off") {
		h.send(ctx, msg, "Use `!nick on` to show your server nickname on the leaderboard, or `!nick off` for your username.")
		return
	}

	on := fields[1] == "on"

	if err := h.storage.SetNickOption(ctx, profileOf(msg), on); err != nil {
		h.logger.Error("Failed to set nickname option", zap.Error(err))
		return
	}

	if on {
		h.send(ctx, msg, "The leaderboard will now display your server-specific nickname instead of your Discord username. "+
			"To return to your username, type `!nick off`.")
	} else {
		h.send(ctx, msg, "The leaderboard will now display your Discord username instead of your server-specific nickname. "+
			"To return to your nickname, type `!nick on`.")
	}
}

func (h *Handler) dmEmoji(ctx context.Context, msg discord.Message, content string) {
	// Some clients append a variation selector to bare emoji.
	emoji := strings.Trim(strings.TrimSpace(strings.TrimPrefix(content, "!emoji")), "\ufe0f")

	if emoji != "" && !isSingleEmoji(emoji) {
		h.react(ctx, msg, h.cfg.Reactions.InvalidEmoji)
		return
	}

	member, err := h.storage.GetOrAddMember(ctx, profileOf(msg))
	if err != nil {
		h.logger.Error("Failed to resolve member", zap.Error(err))
		return
	}

	if err := h.storage.UpdateEmoji(ctx, member, emoji); err != nil {
		h.logger.Error("Failed to update emoji", zap.Error(err))
		return
	}

	h.react(ctx, msg, h.cfg.Reactions.ValidEmoji)
}

// isSingleEmoji reports whether the string is exactly one emoji and nothing
// else.
func isSingleEmoji(s string) bool {
	return len(gomoji.FindAll(s)) == 1 && strings.TrimSpace(gomoji.RemoveEmojis(s)) == ""
}
