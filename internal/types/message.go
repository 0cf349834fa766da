package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

const (
  MessageRoleUser       = "user"
  MessageRoleAssistant  = "assistant"
)

// Message is one turn of a conversation. Rows are immutable once created;
// ordering by created_at is significant.
type Message struct {
  gorm.Model
  ID              uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  ConversationID  uuid.UUID         `gorm:"index;not null" json:"conversationID"`
  Conversation    *Conversation     `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConversationID;references:ID" json:"conversation,omitempty"`

  Role            string            `gorm:"not null;column:role" json:"role"`
  Content         string            `gorm:"type:text;not null;column:content" json:"content"`

  CreatedAt       time.Time         `gorm:"not null;default:now()" json:"createdAt"`
}

func (Message) TableName() string {
  return "message"
}
