package types

import (
  "time"

  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/google/uuid"
)

// CharacterKnowledge is a titled text snippet tied to a character. Entries
// are retrieved by naive keyword matching before each model call.
type CharacterKnowledge struct {
  gorm.Model
  ID              uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  CharacterID     uuid.UUID         `gorm:"index;not null" json:"characterID"`
  Character       *Character        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CharacterID;references:ID" json:"character,omitempty"`

  Title           string            `gorm:"not null;column:title" json:"title"`
  Content         string            `gorm:"type:text;not null;column:content" json:"content"`
  Metadata        datatypes.JSON    `gorm:"column:metadata" json:"metadata,omitempty"`

  CreatedAt       time.Time         `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt       time.Time         `gorm:"not null;default:now()" json:"updatedAt"`
}

func (CharacterKnowledge) TableName() string {
  return "character_knowledge"
}
