package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

// GroupChat is one user hosting a discussion between several characters.
type GroupChat struct {
  gorm.Model
  ID                  uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID              uuid.UUID         `gorm:"index;not null" json:"userID"`
  User                *User             `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

  Name                string            `gorm:"not null;column:name" json:"name"`
  Description         string            `gorm:"column:description" json:"description,omitempty"`
  Topic               string            `gorm:"column:topic" json:"topic,omitempty"`
  AvatarBucketKey     string            `gorm:"column:avatar_bucket_key" json:"avatarBucketKey"`
  AvatarURL           string            `gorm:"column:avatar_url" json:"avatarURL"`

  CreatedAt           time.Time         `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt           time.Time         `gorm:"not null;default:now()" json:"updatedAt"`
}

func (GroupChat) TableName() string {
  return "group_chat"
}
