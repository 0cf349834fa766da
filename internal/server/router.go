package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/castly-org/castly-backend/internal/handlers"
  "github.com/castly-org/castly-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler           *handlers.AuthHandler
  AuthMiddleware        *middleware.AuthMiddleware
  MeHandler             *handlers.MeHandler
  CharacterHandler      *handlers.CharacterHandler
  ConversationHandler   *handlers.ConversationHandler
  GroupChatHandler      *handlers.GroupChatHandler
  ShareHandler          *handlers.ShareHandler
  WsHandler             gin.HandlerFunc
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  //-----------------------------------------
  // Cors Setup
  //-----------------------------------------
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:3000",
      "http://castly.ai",
      "http://www.castly.ai",
      "https://castly.ai",
      "https://www.castly.ai",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  //-----------------------------------------
  // Health Routes
  //-----------------------------------------
  router.GET("/healthz", handlers.Healthz)

  //-----------------------------------------
  // Public Routes
  //-----------------------------------------
  api := router.Group("/api")
  {
    api.POST("/register", cfg.AuthHandler.Register)
    api.POST("/login", cfg.AuthHandler.Login)
  }

  //------------------------------------------
  // Protected Routes
  //------------------------------------------
  protected := api.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  protected.POST("/refresh", cfg.AuthHandler.Refresh)
  protected.POST("/logout", cfg.AuthHandler.Logout)
  protected.GET("/ws", cfg.WsHandler)

  //Me
  protected.GET("/me", cfg.MeHandler.GetMe)

  //Characters
  protected.POST("/characters", cfg.CharacterHandler.Create)
  protected.GET("/characters", cfg.CharacterHandler.List)
  protected.GET("/characters/:characterID", cfg.CharacterHandler.Get)
  protected.PATCH("/characters/:characterID", cfg.CharacterHandler.Update)
  protected.DELETE("/characters/:characterID", cfg.CharacterHandler.Delete)

  //Character Knowledge
  protected.POST("/characters/:characterID/knowledge", cfg.CharacterHandler.AddKnowledge)
  protected.GET("/characters/:characterID/knowledge", cfg.CharacterHandler.ListKnowledge)
  protected.DELETE("/characters/:characterID/knowledge/:knowledgeID", cfg.CharacterHandler.DeleteKnowledge)

  //Character Sharing
  protected.POST("/characters/:characterID/share/email", cfg.ShareHandler.ShareByEmail)
  protected.POST("/characters/:characterID/share/text", cfg.ShareHandler.ShareByText)

  //Conversations
  protected.POST("/conversations", cfg.ConversationHandler.Create)
  protected.GET("/conversations", cfg.ConversationHandler.List)
  protected.GET("/conversations/:conversationID", cfg.ConversationHandler.Get)
  protected.DELETE("/conversations/:conversationID", cfg.ConversationHandler.Delete)
  protected.GET("/conversations/:conversationID/messages", cfg.ConversationHandler.ListMessages)
  protected.POST("/conversations/:conversationID/messages", cfg.ConversationHandler.SendMessage)

  //Group Chats
  protected.POST("/groupchats", cfg.GroupChatHandler.Create)
  protected.GET("/groupchats", cfg.GroupChatHandler.List)
  protected.GET("/groupchats/:groupChatID", cfg.GroupChatHandler.Get)
  protected.DELETE("/groupchats/:groupChatID", cfg.GroupChatHandler.Delete)
  protected.GET("/groupchats/:groupChatID/participants", cfg.GroupChatHandler.ListParticipants)
  protected.GET("/groupchats/:groupChatID/messages", cfg.GroupChatHandler.ListMessages)
  protected.POST("/groupchats/:groupChatID/messages", cfg.GroupChatHandler.SendMessage)
  protected.POST("/groupchats/:groupChatID/generate", cfg.GroupChatHandler.GenerateResponse)

  return router
}
