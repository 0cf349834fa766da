package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/castly-org/castly-backend/internal/services"
)

type ShareHandler struct {
  shareService services.ShareService
}

func NewShareHandler(shareService services.ShareService) *ShareHandler {
  return &ShareHandler{shareService: shareService}
}

func (sh *ShareHandler) ShareByEmail(c *gin.Context) {
  characterID, ok := uuidParam(c, "characterID")
  if !ok {
    return
  }
  var req struct {
    Email       string      `json:"email"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  if err := sh.shareService.ShareCharacterByEmail(c.Request.Context(), characterID, req.Email); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}

func (sh *ShareHandler) ShareByText(c *gin.Context) {
  characterID, ok := uuidParam(c, "characterID")
  if !ok {
    return
  }
  var req struct {
    PhoneNumber     string      `json:"phone_number"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  if err := sh.shareService.ShareCharacterByText(c.Request.Context(), characterID, req.PhoneNumber); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}
