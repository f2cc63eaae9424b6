package airtable

import (
	"time"
)

const (
	mottoTable  = "Motto"
	memberTable = "Member"
)

// Airtable field names for the Motto table.
const (
	FieldMotto            = "Motto"
	FieldMessageID        = "Message ID"
	FieldDate             = "Date"
	FieldMember           = "Member"
	FieldNominatedBy      = "Nominated By"
	FieldApprovedByAuthor = "Approved by Author"
	FieldApproved         = "Approved"
	FieldBotID            = "Bot ID"
)

// Airtable field names for the Member table.
const (
	FieldUsername    = "Username"
	FieldEmoji       = "Emoji"
	FieldDiscordID   = "Discord ID"
	FieldSupport     = "Support"
	FieldNickname    = "Nickname"
	FieldUseNickname = "Use Nickname"
	FieldMottoCount  = "Motto Count"
	FieldMottos      = "Mottos"
)

// Motto is a candidate or accepted submission. ID is empty until the record
// is first persisted; Text is empty exactly while pending confirmation.
type Motto struct {
	ID               string
	Text             string
	MessageID        string
	Date             time.Time
	MemberID         string
	NominatedByID    string
	ApprovedByAuthor bool
	Approved         bool
	BotID            string

	// Member is the resolved nominee, populated only where a display name
	// is needed (random motto rendering).
	Member *Member
}

// Member is a tracked Discord user profile with leaderboard metadata.
type Member struct {
	ID          string
	Username    string
	Emoji       string
	DiscordID   string
	Support     bool
	Nickname    string
	UseNickname bool
	MottoCount  int
	BotID       string
	MottoIDs    []string
}

// DisplayName renders the member for the leaderboard: emoji prefix if set,
// then nickname when the nickname preference is on, else username.
func (m *Member) DisplayName() string {
	name := m.Username
	if m.UseNickname && m.Nickname != "" {
		name = m.Nickname
	}

	if m.Emoji != "" {
		return m.Emoji + " " + name
	}

	return name
}

// Profile is the platform identity of a user as seen by the transport,
// used to create and refresh Member records.
type Profile struct {
	ID       string
	Username string
	// Nick is the server-specific nickname, falling back to the username
	// when the user has none.
	Nick string
}

func mottoFromRecord(rec record) *Motto {
	return &Motto{
		ID:               rec.ID,
		Text:             fieldString(rec.Fields, FieldMotto),
		MessageID:        fieldString(rec.Fields, FieldMessageID),
		Date:             fieldTime(rec.Fields, FieldDate),
		MemberID:         firstLink(rec.Fields, FieldMember),
		NominatedByID:    firstLink(rec.Fields, FieldNominatedBy),
		ApprovedByAuthor: fieldBool(rec.Fields, FieldApprovedByAuthor),
		Approved:         fieldBool(rec.Fields, FieldApproved),
		BotID:            fieldString(rec.Fields, FieldBotID),
	}
}

// fields converts the motto to Airtable fields. With no names given, every
// field is included; otherwise only the named ones.
func (m *Motto) fields(names ...string) map[string]any {
	all := map[string]any{
		FieldMotto:            m.Text,
		FieldMessageID:        m.MessageID,
		FieldDate:             m.Date.UTC().Format(time.RFC3339),
		FieldMember:           []string{m.MemberID},
		FieldNominatedBy:      []string{m.NominatedByID},
		FieldApprovedByAuthor: m.ApprovedByAuthor,
		FieldApproved:         m.Approved,
		FieldBotID:            m.BotID,
	}

	if len(names) == 0 {
		return all
	}

	selected := make(map[string]any, len(names))
	for _, name := range names {
		if value, ok := all[name]; ok {
			selected[name] = value
		}
	}

	return selected
}

func memberFromRecord(rec record) *Member {
	return &Member{
		ID:          rec.ID,
		Username:    fieldString(rec.Fields, FieldUsername),
		Emoji:       fieldString(rec.Fields, FieldEmoji),
		DiscordID:   fieldString(rec.Fields, FieldDiscordID),
		Support:     fieldBool(rec.Fields, FieldSupport),
		Nickname:    fieldString(rec.Fields, FieldNickname),
		UseNickname: fieldBool(rec.Fields, FieldUseNickname),
		MottoCount:  fieldInt(rec.Fields, FieldMottoCount),
		BotID:       fieldString(rec.Fields, FieldBotID),
		MottoIDs:    fieldStringList(rec.Fields, FieldMottos),
	}
}

func fieldString(fields map[string]any, key string) string {
	value, _ := fields[key].(string)
	return value
}

func fieldBool(fields map[string]any, key string) bool {
	value, _ := fields[key].(bool)
	return value
}

func fieldInt(fields map[string]any, key string) int {
	// JSON numbers decode as float64.
	value, _ := fields[key].(float64)
	return int(value)
}

func fieldTime(fields map[string]any, key string) time.Time {
	raw, _ := fields[key].(string)
	if raw == "" {
		return time.Time{}
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z0700"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}

	return time.Time{}
}

func fieldStringList(fields map[string]any, key string) []string {
	raw, ok := fields[key].([]any)
	if !ok {
		return nil
	}

	values := make([]string, 0, len(raw))

	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			values = append(values, s)
		}
	}

	return values
}

// firstLink extracts the first record ID from a linked-record field.
func firstLink(fields map[string]any, key string) string {
	links := fieldStringList(fields, key)
	if len(links) == 0 {
		return ""
	}

	return links[0]
}
