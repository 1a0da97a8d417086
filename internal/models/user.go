package models

import (
	"time"
)

// DefaultAvatar is the sentinel avatar reference for users without an upload.
const DefaultAvatar = "default.png"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"` // bcrypt, never serialized
	Avatar       string    `gorm:"size:200;default:default.png" json:"avatar"`
	Contacts     []Contact `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "user" }

// HasCustomAvatar reports whether Avatar points at an uploaded blob.
func (u *User) HasCustomAvatar() bool {
	return u.Avatar != "" && u.Avatar != DefaultAvatar
}
