package models

import (
	"strings"
	"time"
)

// Entry is one guestbook submission. The id is assigned by the database and never reused;
// SubmissionTime is written once at insert and drives the listing order.
type Entry struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	GuestName      string    `gorm:"type:varchar(255);not null" json:"guest_name"`
	MessageText    string    `gorm:"type:varchar(2000);not null" json:"message_text"`
	SubmissionTime time.Time `gorm:"not null;index;autoCreateTime" json:"submission_time"`
}

// TableName keeps the plain "entries" table name expected by existing databases.
func (Entry) TableName() string {
	return "entries"
}

// Normalise trims surrounding whitespace from the text fields.
func (e *Entry) Normalise() {
	e.GuestName = strings.TrimSpace(e.GuestName)
	e.MessageText = strings.TrimSpace(e.MessageText)
}
