package services

import (
  "context"
  "encoding/base64"
  "fmt"
  "net/http"
  "os"
  "path/filepath"
  "strings"

  "gorm.io/gorm"

  "github.com/google/uuid"

  "github.com/castly-org/castly-backend/internal/logger"
  "github.com/castly-org/castly-backend/internal/normalization"
  "github.com/castly-org/castly-backend/internal/repos"
  "github.com/castly-org/castly-backend/internal/requestdata"
  "github.com/castly-org/castly-backend/internal/templates"
)

// ShareService sends a pointer to one of the caller's public characters to
// somebody outside the app, over email or SMS.
type ShareService interface {
  ShareCharacterByEmail(ctx context.Context, characterID uuid.UUID, toEmail string) error
  ShareCharacterByText(ctx context.Context, characterID uuid.UUID, toNumber string) error
}

type shareService struct {
  db              *gorm.DB
  log             *logger.Logger
  userRepo        repos.UserRepo
  characterRepo   repos.CharacterRepo
  emailService    EmailService
  textService     TextService
  brandLogo       string
  frontEndURL     string
}

func NewShareService(
  db              *gorm.DB,
  log             *logger.Logger,
  userRepo        repos.UserRepo,
  characterRepo   repos.CharacterRepo,
  emailService    EmailService,
  textService     TextService,
) ShareService {
  serviceLog := log.With("service", "ShareService")
  rawLogoPath := os.Getenv("CASTLY_BRAND_LOGO_PATH")
  var finalLogo string
  if rawLogoPath != "" {
    base64Logo, err := readFileAsBase64(rawLogoPath)
    if err != nil {
      serviceLog.Warn("Failed to read or encode brand logo from CASTLY_BRAND_LOGO_PATH; using fallback HTTP link", "error", err)
      finalLogo = "https://castly.ai/castly-logo.png"
    } else {
      finalLogo = base64Logo
      serviceLog.Debug("Using base64-encoded brand logo from CASTLY_BRAND_LOGO_PATH")
    }
  } else {
    serviceLog.Warn("CASTLY_BRAND_LOGO_PATH not set; using fallback HTTP link.")
    finalLogo = "https://castly.ai/castly-logo.png"
  }
  frontEndURL := os.Getenv("CASTLY_FRONT_END_URL")
  if frontEndURL == "" {
    frontEndURL = "http://localhost:3000"
    serviceLog.Warn("CASTLY_FRONT_END_URL not set; using fallback front end URL.")
  }
  return &shareService{
    db:            db,
    log:           serviceLog,
    userRepo:      userRepo,
    characterRepo: characterRepo,
    emailService:  emailService,
    textService:   textService,
    brandLogo:     finalLogo,
    frontEndURL:   frontEndURL,
  }
}

// shareable loads the character and checks it can be shown to an outsider:
// the caller must own it and it must be public.
func (ss *shareService) shareable(ctx context.Context, characterID uuid.UUID) (sender string, characterName, characterDesc, avatarURL, link string, err error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    ss.log.Warn("No Request Data found in context, Cannot proceed.")
    return "", "", "", "", "", fmt.Errorf("%w: no request data in context", ErrNotFound)
  }
  characters, cErr := ss.characterRepo.GetByIDs(ctx, nil, []uuid.UUID{characterID})
  if cErr != nil {
    ss.log.Warn("Failed to fetch character by id, Cannot proceed. Returning error.", "error", cErr)
    return "", "", "", "", "", fmt.Errorf("failed to fetch character: %w", cErr)
  }
  if len(characters) == 0 || characters[0].UserID != rd.UserID {
    return "", "", "", "", "", fmt.Errorf("%w: character not found", ErrNotFound)
  }
  character := characters[0]
  if !character.IsPublic {
    return "", "", "", "", "", fmt.Errorf("%w: only public characters can be shared", ErrValidation)
  }
  users, uErr := ss.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
  if uErr != nil {
    ss.log.Warn("Failed to fetch sending user, Cannot proceed. Returning error.", "error", uErr)
    return "", "", "", "", "", fmt.Errorf("failed to fetch user: %w", uErr)
  }
  senderName := "A Castly user"
  if len(users) > 0 && users[0].DisplayName != "" {
    senderName = users[0].DisplayName
  }
  shareLink := fmt.Sprintf("%s/characters/%s", strings.TrimRight(ss.frontEndURL, "/"), character.ID)
  return senderName, character.Name, character.Description, character.AvatarURL, shareLink, nil
}

func (ss *shareService) ShareCharacterByEmail(ctx context.Context, characterID uuid.UUID, toEmail string) error {
  toEmail = normalization.ParseEmail(toEmail)
  if toEmail == "" || !strings.Contains(toEmail, "@") {
    return fmt.Errorf("%w: a valid recipient email is required", ErrValidation)
  }
  senderName, characterName, characterDesc, avatarURL, link, err := ss.shareable(ctx, characterID)
  if err != nil {
    return err
  }
  htmlContent, rErr := templates.RenderShareHTML(templates.ShareEmailData{
    Logo:          ss.brandLogo,
    SenderName:    senderName,
    CharacterName: characterName,
    CharacterDesc: characterDesc,
    AvatarURL:     avatarURL,
    ShareLink:     link,
  })
  if rErr != nil {
    ss.log.Warn("Failed to render share email HTML, Cannot proceed. Returning error.", "error", rErr)
    return fmt.Errorf("failed to render share email: %w", rErr)
  }
  subject := fmt.Sprintf("%s shared the character %s with you on Castly", senderName, characterName)
  plainText := fmt.Sprintf("%s shared the character %s with you on Castly. Open it here: %s", senderName, characterName, link)
  if sErr := ss.emailService.SendEmail(ctx, toEmail, subject, plainText, htmlContent, "share"); sErr != nil {
    ss.log.Warn("Failed to send share email, Cannot proceed. Returning error.", "error", sErr)
    return fmt.Errorf("%w: failed to send share email: %s", ErrUpstream, sErr.Error())
  }
  ss.log.Info("Character shared over email :)", "characterID", characterID, "to", toEmail)
  return nil
}

func (ss *shareService) ShareCharacterByText(ctx context.Context, characterID uuid.UUID, toNumber string) error {
  toNumber = normalization.ParseInputString(toNumber)
  if toNumber == "" {
    return fmt.Errorf("%w: a recipient phone number is required", ErrValidation)
  }
  senderName, characterName, _, _, link, err := ss.shareable(ctx, characterID)
  if err != nil {
    return err
  }
  body := fmt.Sprintf("%s shared the character %s with you on Castly: %s", senderName, characterName, link)
  if sErr := ss.textService.SendText(ctx, toNumber, body); sErr != nil {
    ss.log.Warn("Failed to send share text, Cannot proceed. Returning error.", "error", sErr)
    return fmt.Errorf("%w: failed to send share text: %s", ErrUpstream, sErr.Error())
  }
  ss.log.Info("Character shared over text :)", "characterID", characterID, "to", toNumber)
  return nil
}

func readFileAsBase64(path string) (string, error) {
  cleanPath := filepath.Clean(path)
  raw, err := os.ReadFile(cleanPath)
  if err != nil {
    return "", fmt.Errorf("could not read file at %q: %w", cleanPath, err)
  }
  mimeType := http.DetectContentType(raw)
  encoded := base64.StdEncoding.EncodeToString(raw)
  return fmt.Sprintf("data:%s;base64,%s", mimeType, encoded), nil
}
