package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

type UserToken struct {
  gorm.Model
  ID              uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID          uuid.UUID         `gorm:"index;not null" json:"userID"`
  User            *User             `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

  AccessToken     string            `gorm:"index;not null;column:access_token" json:"-"`
  RefreshToken    string            `gorm:"index;not null;column:refresh_token" json:"-"`
  ExpiresAt       time.Time         `gorm:"not null" json:"expiresAt"`

  CreatedAt       time.Time         `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt       time.Time         `gorm:"not null;default:now()" json:"updatedAt"`
}

func (UserToken) TableName() string {
  return "user_token"
}
