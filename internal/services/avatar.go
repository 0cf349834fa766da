package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "image"
  "image/color"
  "math/rand"
  "os"
  "path/filepath"
  "strings"
  "time"

  "github.com/disintegration/imaging"
  "github.com/fogleman/gg"
  "github.com/golang/freetype/truetype"
  "golang.org/x/image/font"
  "gorm.io/gorm"

  "github.com/castly-org/castly-backend/internal/logger"
  "github.com/castly-org/castly-backend/internal/types"
)

type AvatarService interface {
  CreateAndUploadUserAvatar(ctx context.Context, tx *gorm.DB, user *types.User) error
  CreateAndUploadCharacterAvatar(ctx context.Context, tx *gorm.DB, character *types.Character) error
  CreateAndUploadGroupChatAvatar(ctx context.Context, tx *gorm.DB, groupChat *types.GroupChat) error

  GenerateInitialsAvatar(ctx context.Context, name string) (bytes.Buffer, error)
  GenerateGroupChatAvatar(ctx context.Context) (bytes.Buffer, error)
}

type avatarService struct {
  log             *logger.Logger
  bucketService   BucketService
  groupIcons      []string
  bgColors        []color.NRGBA
  fontFace        font.Face
}

func NewAvatarService(log *logger.Logger, bucketService BucketService) (AvatarService, error) {
  serviceLog := log.With("service", "AvatarService")

  rand.Seed(time.Now().UnixNano())

  //1) Gather list of icons for group chat avatars
  groupDir := os.Getenv("GROUP_CHAT_ASSET_DIR_PATH")
  if groupDir == "" {
    groupDir = "./assets/groupchat"
  }
  groupFiles, err := findFiles(groupDir)
  if err != nil {
    return nil, fmt.Errorf("Failed scanning group chat icons: %w", err)
  }
  if len(groupFiles) == 0 {
    return nil, fmt.Errorf("No group chat icons found: %s", groupDir)
  }

  //2) Get Avatar Colors
  colorsJSONPath := os.Getenv("AVATAR_COLORS_JSON_PATH")
  if colorsJSONPath == "" {
    return nil, fmt.Errorf("env var AVATAR_COLORS_JSON_PATH is empty")
  }
  serviceLog.Info("Loading avatar colors from JSON file", "path", colorsJSONPath)
  bgColors, err := loadColorsFromFile(colorsJSONPath)
  if err != nil {
    return nil, fmt.Errorf("could not load avatar colors: %w", err)
  }

  //3) Get Font
  fontPath := os.Getenv("AVATAR_FONT")
  if fontPath == "" {
    return nil, fmt.Errorf("env var AVATAR_FONT is empty")
  }
  serviceLog.Info("Loading avatar font from TTF file", "font", fontPath)
  face, err := loadFontFace(fontPath, 206)
  if err != nil {
    return nil, fmt.Errorf("could not load avatar font: %w", err)
  }

  return &avatarService{
    log:           serviceLog,
    bucketService: bucketService,
    groupIcons:    groupFiles,
    bgColors:      bgColors,
    fontFace:      face,
  }, nil
}

func (as *avatarService) CreateAndUploadUserAvatar(ctx context.Context, tx *gorm.DB, user *types.User) error {
  buf, err := as.GenerateInitialsAvatar(ctx, user.DisplayName)
  if err != nil {
    return err
  }
  bucketKey := fmt.Sprintf("user_avatars/%s.png", user.ID.String())
  if err := as.bucketService.UploadFile(ctx, tx, bucketKey, bytes.NewReader(buf.Bytes())); err != nil {
    return fmt.Errorf("Failed to upload user avatar: %w", err)
  }
  user.AvatarBucketKey = bucketKey
  user.AvatarURL = as.bucketService.GetPublicURL(bucketKey)
  return nil
}

func (as *avatarService) CreateAndUploadCharacterAvatar(ctx context.Context, tx *gorm.DB, character *types.Character) error {
  buf, err := as.GenerateInitialsAvatar(ctx, character.Name)
  if err != nil {
    return err
  }
  bucketKey := fmt.Sprintf("character_avatars/%s.png", character.ID.String())
  if err := as.bucketService.UploadFile(ctx, tx, bucketKey, bytes.NewReader(buf.Bytes())); err != nil {
    return fmt.Errorf("Failed to upload character avatar: %w", err)
  }
  character.AvatarBucketKey = bucketKey
  character.AvatarURL = as.bucketService.GetPublicURL(bucketKey)
  return nil
}

func (as *avatarService) CreateAndUploadGroupChatAvatar(ctx context.Context, tx *gorm.DB, groupChat *types.GroupChat) error {
  buf, err := as.GenerateGroupChatAvatar(ctx)
  if err != nil {
    return err
  }
  bucketKey := fmt.Sprintf("group_chat_avatars/%s.png", groupChat.ID.String())
  if err := as.bucketService.UploadFile(ctx, tx, bucketKey, bytes.NewReader(buf.Bytes())); err != nil {
    return fmt.Errorf("Failed to upload group chat avatar: %w", err)
  }
  groupChat.AvatarBucketKey = bucketKey
  groupChat.AvatarURL = as.bucketService.GetPublicURL(bucketKey)
  return nil
}

func (as *avatarService) GenerateInitialsAvatar(ctx context.Context, name string) (bytes.Buffer, error) {
  const size = 512

  // 1) Create drawing context
  dc := gg.NewContext(size, size)

  // 2) Circular mask so final image is round
  dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
  dc.Clip()

  // 3) Single solid background color
  base := as.bgColors[rand.Intn(len(as.bgColors))]
  dc.SetColor(base)
  dc.DrawRectangle(0, 0, float64(size), float64(size))
  dc.Fill()

  // 4) Compute initials from the display / character name
  initials := computeInitials(name)

  // 5) Set font & measure text
  dc.SetFontFace(as.fontFace)
  tw, th := dc.MeasureString(initials)
  cx, cy := float64(size)/2, float64(size)/2

  // 6) Draw main white text
  dc.SetColor(color.White)
  dc.DrawString(initials, cx-(tw/2)+5, cy+(th/2)-10)

  // 7) Export to PNG
  var buf bytes.Buffer
  if err := dc.EncodePNG(&buf); err != nil {
    return buf, fmt.Errorf("failed to encode PNG: %w", err)
  }
  return buf, nil
}

func (as *avatarService) GenerateGroupChatAvatar(ctx context.Context) (bytes.Buffer, error) {
  const size = 512
  dc := gg.NewContext(size, size)

  // Circular mask
  dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
  dc.Clip()

  // Solid color background
  base := as.bgColors[rand.Intn(len(as.bgColors))]
  dc.SetColor(base)
  dc.DrawRectangle(0, 0, float64(size), float64(size))
  dc.Fill()

  // Load and colorize icon
  iconPath := as.groupIcons[rand.Intn(len(as.groupIcons))]
  iconImg, err := imaging.Open(iconPath)
  if err != nil {
    return bytes.Buffer{}, fmt.Errorf("failed to open group chat icon: %w", err)
  }
  whiteIcon := colorizeImageWhite(iconImg)

  // Scale the icon
  maxIconSize := float64(size) * 0.5
  whiteIcon = imaging.Fit(whiteIcon, int(maxIconSize), int(maxIconSize), imaging.Lanczos)

  dc.DrawImageAnchored(whiteIcon, size/2, size/2, 0.5, 0.5)

  var buf bytes.Buffer
  if err := dc.EncodePNG(&buf); err != nil {
    return buf, fmt.Errorf("failed to encode PNG: %w", err)
  }
  return buf, nil
}

//----------------------------------------------------------------------------------------
// Helpers
//----------------------------------------------------------------------------------------
func colorizeImageWhite(img image.Image) image.Image {
  bounds := img.Bounds()
  out := image.NewNRGBA(bounds)
  for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
    for x := bounds.Min.X; x < bounds.Max.X; x++ {
      _, _, _, a := img.At(x, y).RGBA()
      alpha8 := uint8(a >> 8)
      out.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: alpha8})
    }
  }
  return out
}

func computeInitials(name string) string {
  fields := strings.Fields(name)
  if len(fields) == 0 {
    return "?"
  }
  initials := strings.ToUpper(fields[0][:1])
  if len(fields) > 1 {
    initials += strings.ToUpper(fields[1][:1])
  }
  return initials
}

func findFiles(dir string) ([]string, error) {
  entries, err := os.ReadDir(dir)
  if err != nil {
    return nil, err
  }
  var paths []string
  for _, e := range entries {
    if e.IsDir() {
      continue
    }
    name := e.Name()
    if strings.HasSuffix(strings.ToLower(name), ".png") {
      paths = append(paths, filepath.Join(dir, name))
    }
  }
  return paths, nil
}

func loadColorsFromFile(jsonPath string) ([]color.NRGBA, error) {
  data, err := os.ReadFile(jsonPath)
  if err != nil {
    return nil, fmt.Errorf("read file error: %w", err)
  }
  var colors []color.NRGBA
  if err := json.Unmarshal(data, &colors); err != nil {
    return nil, fmt.Errorf("json unmarshal error: %w", err)
  }
  return colors, nil
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
  fontBytes, err := os.ReadFile(fontPath)
  if err != nil {
    return nil, fmt.Errorf("failed to read font file: %w", err)
  }
  parsedFont, err := truetype.Parse(fontBytes)
  if err != nil {
    return nil, fmt.Errorf("failed to parse TTF: %w", err)
  }
  face := truetype.NewFace(parsedFont, &truetype.Options{
    Size:     size,
    DPI:      72,
    Hinting:  font.HintingNone,
  })
  return face, nil
}
