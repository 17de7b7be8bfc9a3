package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Themes accepted in user preferences.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Preferences holds per-user UI settings.
type Preferences struct {
	Theme         string `json:"theme" bson:"theme" gorm:"size:10"`
	Notifications bool   `json:"notifications" bson:"notifications"`
}

// DefaultPreferences returns the preferences assigned at signup.
func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeLight, Notifications: true}
}

// User represents a registered Diary Desk account.
type User struct {
	ID           string      `json:"_id" bson:"_id" gorm:"type:char(36);primaryKey"`
	Name         string      `json:"name" bson:"name" gorm:"size:50;not null"`
	Email        string      `json:"email" bson:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string      `json:"-" bson:"password" gorm:"column:password;size:255;not null"` // Never expose in JSON
	Bio          string      `json:"bio,omitempty" bson:"bio,omitempty" gorm:"size:500"`
	ProfileImage string      `json:"profileImage,omitempty" bson:"profileImage,omitempty" gorm:"size:1024"`
	Preferences  Preferences `json:"preferences" bson:"preferences" gorm:"embedded;embeddedPrefix:pref_"`
	CreatedAt    time.Time   `json:"date" bson:"date"`
	UpdatedAt    time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
