package services

import (
  "context"
  "fmt"

  "gorm.io/gorm"

  "github.com/google/uuid"

  "github.com/castly-org/castly-backend/internal/logger"
  "github.com/castly-org/castly-backend/internal/repos"
  "github.com/castly-org/castly-backend/internal/requestdata"
  "github.com/castly-org/castly-backend/internal/types"
)

type MeService interface {
  GetMe(ctx context.Context) (*types.User, error)
}

type meService struct {
  db       *gorm.DB
  log      *logger.Logger
  userRepo repos.UserRepo
}

func NewMeService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) MeService {
  serviceLog := log.With("service", "MeService")
  return &meService{db: db, log: serviceLog, userRepo: userRepo}
}

func (ms *meService) GetMe(ctx context.Context) (*types.User, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    ms.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("%w: no request data in context", ErrNotFound)
  }
  users, err := ms.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
  if err != nil {
    ms.log.Warn("Failed to fetch user by id, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("failed to fetch user: %w", err)
  }
  if len(users) == 0 {
    ms.log.Warn("No user found for id in request data")
    return nil, fmt.Errorf("%w: user not found", ErrNotFound)
  }
  ms.log.Info("Fetched current user :)", "userID", rd.UserID)
  return users[0], nil
}
