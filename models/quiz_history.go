package models

import "time"

// QuizHistory stores one finished quiz per row, owned by a user. Rows are
// append-only; the payload is kept verbatim as the client sent it.
type QuizHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UID       string    `gorm:"index;size:128;not null" json:"uid"`
	Payload   string    `gorm:"type:text;not null" json:"-"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}
