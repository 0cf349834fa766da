package character

import (
  "context"
  "encoding/json"
  "fmt"
  "os"

  "golang.org/x/crypto/bcrypt"
  "gorm.io/gorm"

  "github.com/google/uuid"

  "github.com/castly-org/castly-backend/internal/repos"
  "github.com/castly-org/castly-backend/internal/types"
)

// seedUserEmail owns every starter character. The account cannot be logged
// into; its password is a discarded random string.
const seedUserEmail = "starter@castly.ai"

type seedKnowledge struct {
  Title     string `json:"title"`
  Content   string `json:"content"`
}

type seedCharacter struct {
  Name            string          `json:"name"`
  Description     string          `json:"description"`
  SystemPrompt    string          `json:"systemPrompt"`
  Knowledge       []seedKnowledge `json:"knowledge"`
}

func SyncCharacters(
  db              *gorm.DB,
  userRepo        repos.UserRepo,
  characterRepo   repos.CharacterRepo,
  knowledgeRepo   repos.KnowledgeRepo,
  characterSeedPathJSON string,
) error {
  data, err := os.ReadFile(characterSeedPathJSON)
  if err != nil {
    return fmt.Errorf("failed reading character seed file: %w", err)
  }
  var fileCharacters []*seedCharacter
  if err := json.Unmarshal(data, &fileCharacters); err != nil {
    return fmt.Errorf("failed unmarshaling starter characters: %w", err)
  }
  return db.Transaction(func(tx *gorm.DB) error {
    ctx := context.Background()

    seedUser, suErr := ensureSeedUser(ctx, tx, userRepo)
    if suErr != nil {
      return suErr
    }

    existing, exErr := characterRepo.GetByUserID(ctx, tx, seedUser.ID)
    if exErr != nil {
      return fmt.Errorf("failed fetching existing starter characters: %w", exErr)
    }
    fileMap := make(map[string]*seedCharacter)
    for _, fc := range fileCharacters {
      fileMap[fc.Name] = fc
    }
    existingMap := make(map[string]*types.Character)
    for _, ec := range existing {
      existingMap[ec.Name] = ec
    }

    //1) Starter characters removed from the file go away
    var deleteIDs []uuid.UUID
    for _, ec := range existing {
      if _, ok := fileMap[ec.Name]; !ok {
        deleteIDs = append(deleteIDs, ec.ID)
      }
    }
    if len(deleteIDs) > 0 {
      if dErr := characterRepo.FullDeleteByIDs(ctx, tx, deleteIDs); dErr != nil {
        return fmt.Errorf("failed deleting stale starter characters: %w", dErr)
      }
    }

    //2) Changed prompts and descriptions get updated in place
    var toUpdate []*types.Character
    for _, fc := range fileCharacters {
      if ec, ok := existingMap[fc.Name]; ok {
        if ec.SystemPrompt != fc.SystemPrompt || ec.Description != fc.Description {
          ec.SystemPrompt = fc.SystemPrompt
          ec.Description = fc.Description
          toUpdate = append(toUpdate, ec)
        }
      }
    }
    if len(toUpdate) > 0 {
      if _, uErr := characterRepo.Update(ctx, tx, toUpdate); uErr != nil {
        return fmt.Errorf("failed updating changed starter characters: %w", uErr)
      }
    }

    //3) New entries are created public, with their knowledge base
    for _, fc := range fileCharacters {
      if _, ok := existingMap[fc.Name]; ok {
        continue
      }
      newCharacter := &types.Character{
        UserID:        seedUser.ID,
        Name:          fc.Name,
        Description:   fc.Description,
        SystemPrompt:  fc.SystemPrompt,
        IsPublic:      true,
      }
      created, cErr := characterRepo.Create(ctx, tx, []*types.Character{newCharacter})
      if cErr != nil {
        return fmt.Errorf("failed creating starter character %q: %w", fc.Name, cErr)
      }
      if len(fc.Knowledge) == 0 {
        continue
      }
      entries := make([]*types.CharacterKnowledge, 0, len(fc.Knowledge))
      for _, k := range fc.Knowledge {
        entries = append(entries, &types.CharacterKnowledge{
          CharacterID:  created[0].ID,
          Title:        k.Title,
          Content:      k.Content,
        })
      }
      if _, kErr := knowledgeRepo.Create(ctx, tx, entries); kErr != nil {
        return fmt.Errorf("failed creating knowledge for starter character %q: %w", fc.Name, kErr)
      }
    }
    return nil
  })
}

func ensureSeedUser(ctx context.Context, tx *gorm.DB, userRepo repos.UserRepo) (*types.User, error) {
  found, err := userRepo.GetByEmails(ctx, tx, []string{seedUserEmail})
  if err != nil {
    return nil, fmt.Errorf("failed fetching seed user: %w", err)
  }
  if len(found) > 0 {
    return found[0], nil
  }
  hashed, hErr := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), bcrypt.DefaultCost)
  if hErr != nil {
    return nil, fmt.Errorf("failed hashing seed user password: %w", hErr)
  }
  seedUser := &types.User{
    Email:        seedUserEmail,
    Password:     string(hashed),
    DisplayName:  "Castly",
  }
  created, cErr := userRepo.Create(ctx, tx, []*types.User{seedUser})
  if cErr != nil {
    return nil, fmt.Errorf("failed creating seed user: %w", cErr)
  }
  return created[0], nil
}
