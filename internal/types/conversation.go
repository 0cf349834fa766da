package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

// Conversation is one user's private message history with one character.
type Conversation struct {
  gorm.Model
  ID              uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID          uuid.UUID         `gorm:"index;not null" json:"userID"`
  User            *User             `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
  CharacterID     uuid.UUID         `gorm:"index;not null" json:"characterID"`
  Character       *Character        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CharacterID;references:ID" json:"character,omitempty"`

  Title           string            `gorm:"column:title" json:"title,omitempty"`

  CreatedAt       time.Time         `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt       time.Time         `gorm:"not null;default:now()" json:"updatedAt"`
}

func (Conversation) TableName() string {
  return "conversation"
}
