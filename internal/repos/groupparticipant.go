package repos

import (
    "context"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/castly-org/castly-backend/internal/logger"
    "github.com/castly-org/castly-backend/internal/types"
)

type GroupParticipantRepo interface {
    Create(ctx context.Context, tx *gorm.DB, participants []*types.GroupChatParticipant) ([]*types.GroupChatParticipant, error)
    GetByGroupChatID(ctx context.Context, tx *gorm.DB, groupChatID uuid.UUID) ([]*types.GroupChatParticipant, error)
}

type groupParticipantRepo struct {
    db      *gorm.DB
    log     *logger.Logger
}

func NewGroupParticipantRepo(db *gorm.DB, baseLog *logger.Logger) GroupParticipantRepo {
    return &groupParticipantRepo{db: db, log: baseLog.With("repo", "GroupParticipantRepo")}
}

func (gpr *groupParticipantRepo) Create(ctx context.Context, tx *gorm.DB, participants []*types.GroupChatParticipant) ([]*types.GroupChatParticipant, error) {
    if tx == nil {
        tx = gpr.db
    }
    if len(participants) == 0 {
        return participants, nil
    }
    for _, p := range participants {
        if p.ID == uuid.Nil {
            p.ID = uuid.New()
        }
    }
    if err := tx.WithContext(ctx).Create(&participants).Error; err != nil {
        gpr.log.Error("failed to create group chat participants", "error", err)
        return nil, err
    }
    return participants, nil
}

// GetByGroupChatID returns participants in join order, which drives the
// roster line of the group system prompt.
func (gpr *groupParticipantRepo) GetByGroupChatID(ctx context.Context, tx *gorm.DB, groupChatID uuid.UUID) ([]*types.GroupChatParticipant, error) {
    if tx == nil {
        tx = gpr.db
    }
    var participants []*types.GroupChatParticipant
    if err := tx.WithContext(ctx).
        Where("group_chat_id = ?", groupChatID).
        Order("joined_at ASC").
        Find(&participants).Error; err != nil {
        gpr.log.Error("failed to get participants by group chat ID", "error", err)
        return nil, err
    }
    return participants, nil
}
