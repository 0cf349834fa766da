package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "gorm.io/datatypes"

  "github.com/castly-org/castly-backend/internal/services"
)

type CharacterHandler struct {
  characterService services.CharacterService
}

func NewCharacterHandler(characterService services.CharacterService) *CharacterHandler {
  return &CharacterHandler{characterService: characterService}
}

func (ch *CharacterHandler) Create(c *gin.Context) {
  var req struct {
    Name            string        `json:"name"`
    Description     string        `json:"description,omitempty"`
    SystemPrompt    string        `json:"system_prompt"`
    IsPublic        bool          `json:"is_public,omitempty"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  character, err := ch.characterService.CreateCharacter(c.Request.Context(), req.Name, req.Description, req.SystemPrompt, req.IsPublic)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusCreated, gin.H{"character": character})
}

func (ch *CharacterHandler) List(c *gin.Context) {
  characters, err := ch.characterService.ListCharacters(c.Request.Context())
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"characters": characters})
}

func (ch *CharacterHandler) Get(c *gin.Context) {
  characterID, ok := uuidParam(c, "characterID")
  if !ok {
    return
  }
  character, err := ch.characterService.GetCharacter(c.Request.Context(), characterID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"character": character})
}

func (ch *CharacterHandler) Update(c *gin.Context) {
  characterID, ok := uuidParam(c, "characterID")
  if !ok {
    return
  }
  var req struct {
    Name            *string       `json:"name,omitempty"`
    Description     *string       `json:"description,omitempty"`
    SystemPrompt    *string       `json:"system_prompt,omitempty"`
    IsPublic        *bool         `json:"is_public,omitempty"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  character, err := ch.characterService.UpdateCharacter(c.Request.Context(), characterID, services.CharacterUpdate{
    Name:          req.Name,
    Description:   req.Description,
    SystemPrompt:  req.SystemPrompt,
    IsPublic:      req.IsPublic,
  })
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"character": character})
}

func (ch *CharacterHandler) Delete(c *gin.Context) {
  characterID, ok := uuidParam(c, "characterID")
  if !ok {
    return
  }
  if err := ch.characterService.DeleteCharacter(c.Request.Context(), characterID); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}

func (ch *CharacterHandler) AddKnowledge(c *gin.Context) {
  characterID, ok := uuidParam(c, "characterID")
  if !ok {
    return
  }
  var req struct {
    Title       string              `json:"title"`
    Content     string              `json:"content"`
    Metadata    datatypes.JSON      `json:"metadata,omitempty"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  entry, err := ch.characterService.AddKnowledge(c.Request.Context(), characterID, req.Title, req.Content, req.Metadata)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusCreated, gin.H{"knowledge": entry})
}

func (ch *CharacterHandler) ListKnowledge(c *gin.Context) {
  characterID, ok := uuidParam(c, "characterID")
  if !ok {
    return
  }
  entries, err := ch.characterService.ListKnowledge(c.Request.Context(), characterID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"knowledge": entries})
}

func (ch *CharacterHandler) DeleteKnowledge(c *gin.Context) {
  characterID, ok := uuidParam(c, "characterID")
  if !ok {
    return
  }
  knowledgeID, ok := uuidParam(c, "knowledgeID")
  if !ok {
    return
  }
  if err := ch.characterService.DeleteKnowledge(c.Request.Context(), characterID, knowledgeID); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}
