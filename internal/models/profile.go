package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StringList stores an unordered list of strings as a JSON text column.
// A nil list is stored as NULL.
type StringList []string

// Value implements the driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
	return json.Unmarshal(data, l)
}

// UserProfile is keyed by the owning user's id. HasAPIKey must agree with
// whether EncryptedAPIKey is non-empty.
type UserProfile struct {
	UserID             uuid.UUID  `gorm:"type:varchar(36);primarykey" json:"user_id"`
	HealthGoal         *string    `gorm:"type:text" json:"health_goal"`
	DietaryPreferences StringList `gorm:"type:text" json:"dietary_preferences"`
	FitnessLevel       *string    `gorm:"size:100" json:"fitness_level"`
	EncryptedAPIKey    *string    `gorm:"type:text" json:"-"`
	HasAPIKey          bool       `gorm:"not null;default:false" json:"has_api_key"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
