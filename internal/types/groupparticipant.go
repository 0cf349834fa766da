package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

type GroupChatParticipant struct {
  gorm.Model
  ID              uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  GroupChatID     uuid.UUID         `gorm:"index;not null" json:"groupChatID"`
  GroupChat       *GroupChat        `gorm:"constraint:OnDelete:CASCADE;foreignKey:GroupChatID;references:ID" json:"groupChat,omitempty"`
  CharacterID     uuid.UUID         `gorm:"index;not null" json:"characterID"`
  Character       *Character        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CharacterID;references:ID" json:"character,omitempty"`

  JoinedAt        time.Time         `gorm:"not null;default:now()" json:"joinedAt"`
}

func (GroupChatParticipant) TableName() string {
  return "group_chat_participant"
}
