package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/castly-org/castly-backend/internal/services"
)

type ConversationHandler struct {
  conversationService services.ConversationService
}

func NewConversationHandler(conversationService services.ConversationService) *ConversationHandler {
  return &ConversationHandler{conversationService: conversationService}
}

func (ch *ConversationHandler) Create(c *gin.Context) {
  var req struct {
    CharacterID     string      `json:"character_id"`
    Title           string      `json:"title,omitempty"`
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
  conversation, err := ch.conversationService.CreateConversation(c.Request.Context(), characterID, req.Title)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusCreated, gin.H{"conversation": conversation})
}

func (ch *ConversationHandler) List(c *gin.Context) {
  conversations, err := ch.conversationService.ListConversations(c.Request.Context())
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (ch *ConversationHandler) Get(c *gin.Context) {
  conversationID, ok := uuidParam(c, "conversationID")
  if !ok {
    return
  }
  conversation, err := ch.conversationService.GetConversation(c.Request.Context(), conversationID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"conversation": conversation})
}

func (ch *ConversationHandler) Delete(c *gin.Context) {
  conversationID, ok := uuidParam(c, "conversationID")
  if !ok {
    return
  }
  if err := ch.conversationService.DeleteConversation(c.Request.Context(), conversationID); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}

func (ch *ConversationHandler) ListMessages(c *gin.Context) {
  conversationID, ok := uuidParam(c, "conversationID")
  if !ok {
    return
  }
  messages, err := ch.conversationService.ListMessages(c.Request.Context(), conversationID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (ch *ConversationHandler) SendMessage(c *gin.Context) {
  conversationID, ok := uuidParam(c, "conversationID")
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
  userMessage, assistantMessage, err := ch.conversationService.SendMessage(c.Request.Context(), conversationID, req.Content)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"user_message": userMessage, "assistant_message": assistantMessage})
}
