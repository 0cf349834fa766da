package services

import (
  "testing"

  "github.com/google/uuid"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"
  gormlogger "gorm.io/gorm/logger"

  "github.com/castly-org/castly-backend/internal/repos"
  "github.com/castly-org/castly-backend/internal/types"
)

// The uuid/now column defaults in the model tags are Postgres-only, so the
// sqlite schema is created by hand with equivalent defaults.
var sqliteSchema = []string{
  `CREATE TABLE character (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    system_prompt TEXT NOT NULL,
    avatar_bucket_key TEXT,
    avatar_url TEXT,
    is_public NUMERIC NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
  )`,
  `CREATE TABLE group_chat (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    topic TEXT,
    avatar_bucket_key TEXT,
    avatar_url TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
  )`,
  `CREATE TABLE group_chat_participant (
    id TEXT PRIMARY KEY,
    group_chat_id TEXT NOT NULL,
    character_id TEXT NOT NULL,
    joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
  )`,
}

func newSQLiteDB(t *testing.T) *gorm.DB {
  t.Helper()
  db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
    Logger: gormlogger.Default.LogMode(gormlogger.Silent),
  })
  require.NoError(t, err)

  // The whole test must stay on one connection or the in-memory schema
  // evaporates when the pool hands out a second one.
  sqlDB, err := db.DB()
  require.NoError(t, err)
  sqlDB.SetMaxOpenConns(1)

  for _, stmt := range sqliteSchema {
    require.NoError(t, db.Exec(stmt).Error)
  }
  return db
}

func TestCreateGroupChatPersistsChatAndRoster(t *testing.T) {
  db := newSQLiteDB(t)
  log := testLogger(t)
  userID := uuid.New()

  characterRepo := repos.NewCharacterRepo(db, log)
  groupChatRepo := repos.NewGroupChatRepo(db, log)
  groupParticipantRepo := repos.NewGroupParticipantRepo(db, log)
  avatars := &fakeAvatarService{}
  characterService := NewCharacterService(db, log, characterRepo, newFakeKnowledgeRepo(), avatars)
  service := NewGroupChatService(db, log, groupChatRepo, groupParticipantRepo, &fakeGroupMessageRepo{},
    characterRepo, newFakeKnowledgeRepo(), characterService, avatars, &fakeLLMService{}, nil)

  ctx := authedContext(userID)
  kant := &types.Character{UserID: userID, Name: "Kant", SystemPrompt: "You are Kant"}
  mill := &types.Character{UserID: userID, Name: "Mill", SystemPrompt: "You are Mill"}
  _, err := characterRepo.Create(ctx, nil, []*types.Character{kant, mill})
  require.NoError(t, err)

  groupChat, err := service.CreateGroupChat(ctx, "Ethics", "A debate", "The trolley problem", []uuid.UUID{kant.ID, mill.ID})
  require.NoError(t, err)
  require.NotEqual(t, uuid.Nil, groupChat.ID)
  assert.Equal(t, 1, avatars.groupCalls)

  // One group chat row with the submitted fields.
  stored, err := groupChatRepo.GetByIDs(ctx, nil, []uuid.UUID{groupChat.ID})
  require.NoError(t, err)
  require.Len(t, stored, 1)
  assert.Equal(t, userID, stored[0].UserID)
  assert.Equal(t, "Ethics", stored[0].Name)
  assert.Equal(t, "The trolley problem", stored[0].Topic)
  assert.NotEmpty(t, stored[0].AvatarBucketKey)

  // Both roster rows landed in the same transaction.
  participants, err := groupParticipantRepo.GetByGroupChatID(ctx, nil, groupChat.ID)
  require.NoError(t, err)
  require.Len(t, participants, 2)
  got := map[uuid.UUID]bool{}
  for _, p := range participants {
    assert.Equal(t, groupChat.ID, p.GroupChatID)
    got[p.CharacterID] = true
  }
  assert.True(t, got[kant.ID])
  assert.True(t, got[mill.ID])
}

func TestCreateGroupChatRollsBackWhenRosterInsertFails(t *testing.T) {
  db := newSQLiteDB(t)
  log := testLogger(t)
  userID := uuid.New()

  characterRepo := repos.NewCharacterRepo(db, log)
  groupChatRepo := repos.NewGroupChatRepo(db, log)
  groupParticipantRepo := repos.NewGroupParticipantRepo(db, log)
  avatars := &fakeAvatarService{}
  characterService := NewCharacterService(db, log, characterRepo, newFakeKnowledgeRepo(), avatars)
  service := NewGroupChatService(db, log, groupChatRepo, groupParticipantRepo, &fakeGroupMessageRepo{},
    characterRepo, newFakeKnowledgeRepo(), characterService, avatars, &fakeLLMService{}, nil)

  ctx := authedContext(userID)
  kant := &types.Character{UserID: userID, Name: "Kant", SystemPrompt: "You are Kant"}
  mill := &types.Character{UserID: userID, Name: "Mill", SystemPrompt: "You are Mill"}
  _, err := characterRepo.Create(ctx, nil, []*types.Character{kant, mill})
  require.NoError(t, err)

  // Dropping the roster table mid-way makes the participant insert fail,
  // which must roll the group chat row back too.
  require.NoError(t, db.Exec(`DROP TABLE group_chat_participant`).Error)

  _, err = service.CreateGroupChat(ctx, "Ethics", "", "", []uuid.UUID{kant.ID, mill.ID})
  require.Error(t, err)

  var count int64
  require.NoError(t, db.Table("group_chat").Count(&count).Error)
  assert.Zero(t, count)
}
