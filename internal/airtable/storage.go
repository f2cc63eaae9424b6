package airtable

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// normalizedEquality compares two motto texts after folding case, stripping
// non-word/non-space characters, collapsing whitespace and trimming. The
// formula must stay in lockstep with rules.Normalize so the store-side
// predicate and the local rule agree.
const normalizedExpr = `TRIM(REGEX_REPLACE(REGEX_REPLACE(LOWER(%s), '[^\w\s]+', ''), '\s+', ' '))`

// Storage is the tabular-store boundary the core depends on. All operations
// suspend on the client's admission gate and honor context cancellation.
type Storage interface {
	// SaveMotto inserts the motto when it has no primary key, otherwise
	// updates it. When field names are given, only those are written.
	SaveMotto(ctx context.Context, motto *Motto, fields ...string) error
	// MatchingMottos reports whether any stored motto matches the text
	// under normalized equality. When messageID is non-empty, a record
	// with that exact message ID also counts as a match.
	MatchingMottos(ctx context.Context, text, messageID string) (bool, error)
	// MottoByMessageID returns the motto nominated from the given message,
	// or nil when none exists.
	MottoByMessageID(ctx context.Context, messageID string) (*Motto, error)
	// RandomMotto returns one random motto from the approved view, with
	// nominee resolved. A nil pattern with a non-empty search filters by
	// substring; both empty means unfiltered. Returns nil when nothing
	// matches.
	RandomMotto(ctx context.Context, search string, pattern *regexp.Regexp) (*Motto, error)
	// DeleteMotto removes a single motto by primary key.
	DeleteMotto(ctx context.Context, id string) error

	// GetOrAddMember fetches the member for the profile's platform ID,
	// creating a record on first sight.
	GetOrAddMember(ctx context.Context, profile Profile) (*Member, error)
	// MemberByID fetches a member by store primary key.
	MemberByID(ctx context.Context, id string) (*Member, error)
	// MemberByDiscordID fetches a member by platform user ID, or nil.
	MemberByDiscordID(ctx context.Context, discordID string) (*Member, error)
	// RemoveAllData erases the member owning the platform ID and every
	// motto linked to them.
	RemoveAllData(ctx context.Context, discordID string) error
	// SetNickOption toggles the leaderboard nickname preference; turning
	// it off clears any stored nickname override.
	SetNickOption(ctx context.Context, profile Profile, on bool) error
	// UpdateName opportunistically refreshes the stored username and
	// nickname from the current platform profile.
	UpdateName(ctx context.Context, member *Member, profile Profile) error
	// UpdateEmoji sets or clears the member's leaderboard emoji.
	UpdateEmoji(ctx context.Context, member *Member, emoji string) error
	// SupportMembers lists members flagged as support agents, by name.
	SupportMembers(ctx context.Context) ([]*Member, error)
	// Leaders lists the top members by motto count, descending.
	Leaders(ctx context.Context, count int) ([]*Member, error)

	// SweepUnapproved deletes mottos whose text is still empty and whose
	// creation timestamp is older than the retention window.
	SweepUnapproved(ctx context.Context, olderThan time.Duration) error
}

// airtableStorage implements Storage against the Airtable API.
type airtableStorage struct {
	client     *Client
	botID      string
	randomView string
	logger     *zap.Logger
}

// NewStorage builds the Airtable-backed Storage. botID tags new records for
// multi-bot deployments sharing one base; randomView names the view random
// mottos are drawn from.
func NewStorage(client *Client, botID, randomView string, logger *zap.Logger) Storage {
	return &airtableStorage{
		client:     client,
		botID:      botID,
		randomView: randomView,
		logger:     logger,
	}
}

func (s *airtableStorage) SaveMotto(ctx context.Context, motto *Motto, fields ...string) error {
	if motto.ID != "" {
		return s.client.update(ctx, mottoTable, motto.ID, motto.fields(fields...))
	}

	rec, err := s.client.create(ctx, mottoTable, motto.fields(fields...))
	if err != nil {
		return err
	}

	motto.ID = rec.ID
	s.logger.Info("Added motto", zap.String("messageID", motto.MessageID), zap.String("id", rec.ID))

	return nil
}

func (s *airtableStorage) MatchingMottos(ctx context.Context, text, messageID string) (bool, error) {
	escaped := strings.ReplaceAll(text, `'`, `\'`)

	candidate := fmt.Sprintf(normalizedExpr, "'"+escaped+"'")
	stored := fmt.Sprintf(normalizedExpr, "{"+FieldMotto+"}")
	formula := candidate + " = " + stored

	if messageID != "" {
		formula = fmt.Sprintf("OR(%s, '%s' = {%s})", formula, messageID, FieldMessageID)
	}

	records, err := s.client.list(ctx, mottoTable, listQuery{filterByFormula: formula})
	if err != nil {
		return false, err
	}

	return len(records) > 0, nil
}

func (s *airtableStorage) MottoByMessageID(ctx context.Context, messageID string) (*Motto, error) {
	formula := fmt.Sprintf("{%s}='%s'", FieldMessageID, messageID)

	records, err := s.client.list(ctx, mottoTable, listQuery{filterByFormula: formula})
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, nil
	}

	return mottoFromRecord(records[0]), nil
}

func (s *airtableStorage) RandomMotto(ctx context.Context, search string, pattern *regexp.Regexp) (*Motto, error) {
	records, err := s.client.list(ctx, mottoTable, listQuery{view: s.randomView})
	if err != nil {
		return nil, err
	}

	var candidates []record

	for _, rec := range records {
		text := fieldString(rec.Fields, FieldMotto)

		switch {
		case pattern != nil:
			if !pattern.MatchString(text) {
				continue
			}
		case search != "":
			if !strings.Contains(strings.ToLower(text), strings.ToLower(search)) {
				continue
			}
		}

		candidates = append(candidates, rec)
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	motto := mottoFromRecord(candidates[rand.Intn(len(candidates))])

	if motto.MemberID != "" {
		member, err := s.MemberByID(ctx, motto.MemberID)
		if err != nil {
			return nil, err
		}

		motto.Member = member
	}

	return motto, nil
}

func (s *airtableStorage) DeleteMotto(ctx context.Context, id string) error {
	return s.client.deleteRecords(ctx, mottoTable, []string{id})
}

func (s *airtableStorage) GetOrAddMember(ctx context.Context, profile Profile) (*Member, error) {
	member, err := s.MemberByDiscordID(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	if member != nil {
		return member, nil
	}

	rec, err := s.client.create(ctx, memberTable, map[string]any{
		FieldUsername:  profile.Username,
		FieldDiscordID: profile.ID,
		FieldBotID:     s.botID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Added member", zap.String("discordID", profile.ID), zap.String("id", rec.ID))

	return memberFromRecord(rec), nil
}

func (s *airtableStorage) MemberByID(ctx context.Context, id string) (*Member, error) {
	rec, err := s.client.get(ctx, memberTable, id)
	if err != nil {
		return nil, err
	}

	return memberFromRecord(rec), nil
}

func (s *airtableStorage) MemberByDiscordID(ctx context.Context, discordID string) (*Member, error) {
	formula := fmt.Sprintf("{%s}='%s'", FieldDiscordID, discordID)

	records, err := s.client.list(ctx, memberTable, listQuery{filterByFormula: formula})
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, nil
	}

	return memberFromRecord(records[0]), nil
}

func (s *airtableStorage) RemoveAllData(ctx context.Context, discordID string) error {
	member, err := s.MemberByDiscordID(ctx, discordID)
	if err != nil {
		return err
	}

	if member == nil {
		return nil
	}

	s.logger.Info("Removing all data",
		zap.String("username", member.Username),
		zap.Int("mottos", len(member.MottoIDs)))

	if len(member.MottoIDs) > 0 {
		if err := s.client.deleteRecords(ctx, mottoTable, member.MottoIDs); err != nil {
			return err
		}
	}

	return s.client.deleteRecords(ctx, memberTable, []string{member.ID})
}

func (s *airtableStorage) SetNickOption(ctx context.Context, profile Profile, on bool) error {
	member, err := s.GetOrAddMember(ctx, profile)
	if err != nil {
		return err
	}

	update := map[string]any{FieldUseNickname: on}
	if !on {
		update[FieldNickname] = ""
	}

	return s.client.update(ctx, memberTable, member.ID, update)
}

func (s *airtableStorage) UpdateName(ctx context.Context, member *Member, profile Profile) error {
	update := map[string]any{}

	if member.Username != profile.Username {
		update[FieldUsername] = profile.Username
	}

	if member.UseNickname {
		if profile.Nick != member.Nickname && profile.Nick != member.Username {
			update[FieldNickname] = profile.Nick
		}
	} else if member.Nickname != "" {
		update[FieldNickname] = ""
	}

	if len(update) == 0 {
		return nil
	}

	return s.client.update(ctx, memberTable, member.ID, update)
}

func (s *airtableStorage) UpdateEmoji(ctx context.Context, member *Member, emoji string) error {
	if member.Emoji == emoji {
		return nil
	}

	return s.client.update(ctx, memberTable, member.ID, map[string]any{FieldEmoji: emoji})
}

func (s *airtableStorage) SupportMembers(ctx context.Context) ([]*Member, error) {
	records, err := s.client.list(ctx, memberTable, listQuery{
		filterByFormula: fmt.Sprintf("{%s}=TRUE()", FieldSupport),
		sort:            []sortKey{{field: FieldUsername, direction: "asc"}},
	})
	if err != nil {
		return nil, err
	}

	return membersFromRecords(records), nil
}

func (s *airtableStorage) Leaders(ctx context.Context, count int) ([]*Member, error) {
	records, err := s.client.list(ctx, memberTable, listQuery{
		filterByFormula: fmt.Sprintf("{%s}>0", FieldMottoCount),
		sort:            []sortKey{{field: FieldMottoCount, direction: "desc"}},
		maxRecords:      count,
	})
	if err != nil {
		return nil, err
	}

	if len(records) > count {
		records = records[:count]
	}

	return membersFromRecords(records), nil
}

func (s *airtableStorage) SweepUnapproved(ctx context.Context, olderThan time.Duration) error {
	formula := fmt.Sprintf("NOT({%s})", FieldMotto)

	records, err := s.client.list(ctx, mottoTable, listQuery{filterByFormula: formula})
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-olderThan)

	var expired []string

	for _, rec := range records {
		created := fieldTime(rec.Fields, FieldDate)
		if !created.IsZero() && created.Before(cutoff) {
			expired = append(expired, rec.ID)
		}
	}

	if len(expired) == 0 {
		return nil
	}

	s.logger.Info("Deleting unapproved mottos", zap.Int("count", len(expired)))

	return s.client.deleteRecords(ctx, mottoTable, expired)
}

func membersFromRecords(records []record) []*Member {
	members := make([]*Member, 0, len(records))
	for _, rec := range records {
		members = append(members, memberFromRecord(rec))
	}

	return members
}
