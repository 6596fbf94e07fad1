package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"regbot/database"
	"regbot/models"
	"regbot/services"
)

// ChatController handles the HTTP requests of the chat API. It depends on the
// ChatService for the actual pipeline and on the SessionStore for history
// management.
type ChatController struct {
	chatService *services.ChatService
	sessions    *database.SessionStore
}

func NewChatController(chatService *services.ChatService, sessions *database.SessionStore) *ChatController {
	return &ChatController{
		chatService: chatService,
		sessions:    sessions,
	}
}

// Health is the liveness probe. It checks nothing beyond the process being
// up.
func (c *ChatController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, true)
}

// Chat is the Gin handler for POST /chat. A missing session_id gets a fresh
// server-generated one, returned in the response.
func (c *ChatController) Chat(ctx *gin.Context) {
	var req models.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	response, sources, err := c.chatService.GenerateChatResponse(ctx.Request.Context(), req.Query, sessionID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, models.ChatResponse{
		Response:  response,
		SessionID: sessionID,
		Sources:   sources,
	})
}

// DeleteHistory is the Gin handler for DELETE /history/:session_id. Deleting
// a session removes all of its turns.
func (c *ChatController) DeleteHistory(ctx *gin.Context) {
	sessionID := ctx.Param("session_id")

	if err := c.sessions.Delete(sessionID); err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session"})
		return
	}

	ctx.JSON(http.StatusOK, models.MessageResponse{
		Message: "Session " + sessionID + " deleted",
	})
}

// Register wires the API routes onto the router.
func (c *ChatController) Register(router *gin.Engine) {
	router.GET("/health", c.Health)
	router.POST("/chat", c.Chat)
	router.DELETE("/history/:session_id", c.DeleteHistory)
}
