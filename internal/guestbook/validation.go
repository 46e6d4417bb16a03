package guestbook

import (
	"strconv"
	"strings"

	appValidator "github.com/charlesng35/guestbook/pkg/validator"
)

const (
	// MaxNameLength is the longest accepted guest name, in characters.
	MaxNameLength = 255
	// MaxMessageLength is the longest accepted message, in characters.
	MaxMessageLength = 2000
)

// User-facing error messages.
const (
	MsgInvalidToken       = "Invalid CSRF token."
	MsgInvalidDeleteToken = "Invalid or missing CSRF token."
	MsgInvalidEntryID     = "Invalid entry ID."
	MsgInvalidDeleteID    = "Invalid entry id."
	MsgEntryNotFound      = "Entry not found."
)

// EntryFields carries the user-editable fields of an entry. The struct tags
// drive validation; `label` names the field in messages.
type EntryFields struct {
	GuestName   string `form:"guest_name" label:"Name" validate:"required,max=255"`
	MessageText string `form:"message_text" label:"Message" validate:"required,max=2000"`
}

// Trimmed returns a copy with surrounding whitespace removed.
func (f EntryFields) Trimmed() EntryFields {
	return EntryFields{
		GuestName:   strings.TrimSpace(f.GuestName),
		MessageText: strings.TrimSpace(f.MessageText),
	}
}

// ValidateFields checks trimmed fields and returns every violated rule, name
// before message, with at most one message per field.
func ValidateFields(fields EntryFields) []string {
	err := appValidator.ValidateStruct(fields.Trimmed())
	if err == nil {
		return nil
	}
	if failures, ok := err.(appValidator.ValidationErrors); ok {
		return failures.Messages()
	}
	return []string{err.Error()}
}

// ParseEntryID accepts only a non-empty run of ASCII digits that fits in 64 bits.
// Signs, whitespace and other number syntaxes are rejected.
func ParseEntryID(raw string) (uint64, bool) {
	if raw == "" {
		return 0, false
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
