package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/castly-org/castly-backend/internal/services"
)

type GroupChatHandler struct {
  groupChatService services.GroupChatService
}

func NewGroupChatHandler(groupChatService services.GroupChatService) *GroupChatHandler {
  return &GroupChatHandler{groupChatService: groupChatService}
}

func (gh *GroupChatHandler) Create(c *gin.Context) {
  var req struct {
    Name            string        `json:"name"`
    Description     string        `json:"description,omitempty"`
    Topic           string        `json:"topic,omitempty"`
    CharacterIDs    []string      `json:"character_ids"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  characterIDs := make([]uuid.UUID, 0, len(req.CharacterIDs))
  for _, raw := range req.CharacterIDs {
    id, pErr := uuid.Parse(raw)
    if pErr != nil {
      c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character id: " + raw})
      return
    }
    characterIDs = append(characterIDs, id)
  }
  groupChat, err := gh.groupChatService.CreateGroupChat(c.Request.Context(), req.Name, req.Description, req.Topic, characterIDs)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusCreated, gin.H{"group_chat": groupChat})
}

func (gh *GroupChatHandler) List(c *gin.Context) {
  groupChats, err := gh.groupChatService.ListGroupChats(c.Request.Context())
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"group_chats": groupChats})
}

func (gh *GroupChatHandler) Get(c *gin.Context) {
  groupChatID, ok := uuidParam(c, "groupChatID")
  if !ok {
    return
  }
  groupChat, err := gh.groupChatService.GetGroupChat(c.Request.Context(), groupChatID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"group_chat": groupChat})
}

func (gh *GroupChatHandler) Delete(c *gin.Context) {
  groupChatID, ok := uuidParam(c, "groupChatID")
  if !ok {
    return
  }
  if err := gh.groupChatService.DeleteGroupChat(c.Request.Context(), groupChatID); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}

func (gh *GroupChatHandler) ListParticipants(c *gin.Context) {
  groupChatID, ok := uuidParam(c, "groupChatID")
  if !ok {
    return
  }
  participants, err := gh.groupChatService.ListParticipants(c.Request.Context(), groupChatID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"participants": participants})
}

func (gh *GroupChatHandler) ListMessages(c *gin.Context) {
  groupChatID, ok := uuidParam(c, "groupChatID")
  if !ok {
    return
  }
  messages, err := gh.groupChatService.ListMessages(c.Request.Context(), groupChatID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (gh *GroupChatHandler) SendMessage(c *gin.Context) {
  groupChatID, ok := uuidParam(c, "groupChatID")
  if !ok {
    return
  }
  var req struct {
    Content     string      `json:"content"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  message, err := gh.groupChatService.SendUserMessage(c.Request.Context(), groupChatID, req.Content)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"message": message})
}

func (gh *GroupChatHandler) GenerateResponse(c *gin.Context) {
  groupChatID, ok := uuidParam(c, "groupChatID")
  if !ok {
    return
  }
  var req struct {
    CharacterID     string      `json:"character_id"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  characterID, pErr := uuid.Parse(req.CharacterID)
  if pErr != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character_id"})
    return
  }
  message, err := gh.groupChatService.GenerateResponse(c.Request.Context(), groupChatID, characterID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"message": message})
}
