package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/castly-org/castly-backend/internal/services"
)

// respondError maps service sentinel errors onto HTTP statuses. Anything
// unrecognized is a 500.
func respondError(c *gin.Context, err error) {
  switch {
  case errors.Is(err, services.ErrNotFound):
    c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
  case errors.Is(err, services.ErrValidation):
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
  case errors.Is(err, services.ErrUpstream):
    c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
  default:
    c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
  }
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
  id, err := uuid.Parse(c.Param(name))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
    return uuid.Nil, false
  }
  return id, true
}
