package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Account struct {
	ID         string     `gorm:"type:uuid;primaryKey"`
	AccountID  string     `gorm:"type:text;not null;index"`
	UID        string     `gorm:"column:uid;type:text;not null"`
	Password   string     `gorm:"type:text;not null"`
	RareTypes  StringList `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt  time.Time
	UploadedAt time.Time
}

func (Account) TableName() string {
	return "accounts"
}

// StringList stores a list of strings in a jsonb column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan StringList: unsupported type %T", src)
	}

	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("scan StringList: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	*l = values
	return nil
}
