package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

// Character is an AI persona: base instructions plus an optional knowledge
// base. Public characters are readable (not writable) by every user.
type Character struct {
  gorm.Model
  ID                  uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID              uuid.UUID         `gorm:"index;not null" json:"userID"`
  User                *User             `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

  Name                string            `gorm:"not null;column:name" json:"name"`
  Description         string            `gorm:"column:description" json:"description,omitempty"`
  SystemPrompt        string            `gorm:"type:text;not null;column:system_prompt" json:"systemPrompt"`
  AvatarBucketKey     string            `gorm:"column:avatar_bucket_key" json:"avatarBucketKey"`
  AvatarURL           string            `gorm:"column:avatar_url" json:"avatarURL"`
  IsPublic            bool              `gorm:"not null;default:false;column:is_public" json:"isPublic"`

  CreatedAt           time.Time         `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt           time.Time         `gorm:"not null;default:now()" json:"updatedAt"`
}

func (Character) TableName() string {
  return "character"
}
