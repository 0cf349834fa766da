package seed

import (
  "fmt"
  "os"

  "gorm.io/gorm"

  "github.com/castly-org/castly-backend/internal/repos"
  "github.com/castly-org/castly-backend/internal/seed/character"
)

func SeedAll(
  db              *gorm.DB,
  userRepo        repos.UserRepo,
  characterRepo   repos.CharacterRepo,
  knowledgeRepo   repos.KnowledgeRepo,
) error {
  characterSeedPathJSON := os.Getenv("SEED_CHARACTER_JSON_PATH")
  if characterSeedPathJSON == "" {
    fmt.Println("SEED_CHARACTER_JSON_PATH not set, skipping character seeding")
    return nil
  }
  fmt.Println("Running SeedAll... seeding starter characters")

  if err := character.SyncCharacters(db, userRepo, characterRepo, knowledgeRepo, characterSeedPathJSON); err != nil {
    return fmt.Errorf("failed to sync starter characters: %w", err)
  }

  fmt.Println("SeedAll Complete!")
  return nil
}
