package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

// GroupChatMessage is one entry in a group discussion. A nil CharacterID
// means the human user wrote it. Ordering by created_at is significant.
type GroupChatMessage struct {
  gorm.Model
  ID              uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  GroupChatID     uuid.UUID         `gorm:"index;not null" json:"groupChatID"`
  GroupChat       *GroupChat        `gorm:"constraint:OnDelete:CASCADE;foreignKey:GroupChatID;references:ID" json:"groupChat,omitempty"`
  CharacterID     *uuid.UUID        `gorm:"index" json:"characterID,omitempty"`
  Character       *Character        `gorm:"constraint:OnDelete:SET NULL;foreignKey:CharacterID;references:ID" json:"character,omitempty"`

  Content         string            `gorm:"type:text;not null;column:content" json:"content"`

  CreatedAt       time.Time         `gorm:"not null;default:now()" json:"createdAt"`
}

func (GroupChatMessage) TableName() string {
  return "group_chat_message"
}
