package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// User is the per-player record, keyed by the opaque uid handed to us by the
// upstream identity provider. Created lazily on first read or write and
// never deleted.
type User struct {
	UID                    string     `gorm:"primaryKey;size:128" json:"uid"`
	DisplayName            string     `gorm:"size:128" json:"displayName"`
	PhotoURL               string     `gorm:"size:512" json:"photoURL"`
	HydroPoints            int        `gorm:"default:0" json:"hydroPoints"`
	LastChallengeCompleted string     `gorm:"size:10" json:"lastChallengeCompleted"` // YYYY-MM-DD
	InterviewAnswers       StringList `gorm:"type:text" json:"interviewAnswers"`
	ImageGallery           StringList `gorm:"type:text" json:"imageGallery"` // append-only
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// StringList stores an ordered string slice as a JSON text column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported column type %T for StringList", src)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, (*[]string)(l))
}
