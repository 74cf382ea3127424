package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hubtc/portal/internal/app/controllers"
	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/middleware"
	"github.com/hubtc/portal/internal/pkg/websocket"
)

// Controllers groups the handlers mounted under /api/v1
type Controllers struct {
	Conversation *controllers.ConversationController
	Message      *controllers.MessageController
	Reaction     *controllers.ReactionController
	Typing       *controllers.TypingController
	Notification *controllers.NotificationController
	User         *controllers.UserController
}

// TypingRate configures the per-user typing signal limiter
type TypingRate struct {
	RPS   float64
	Burst int
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	ctrls Controllers,
	authMiddleware *middleware.AuthMiddleware,
	wsHandler *websocket.Handler,
	typingRate TypingRate,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth(), authMiddleware.ActiveUserRequired())
	{
		conversations := authenticated.Group("/conversations")
		{
			conversations.GET("", ctrls.Conversation.ListConversations)
			conversations.POST("", ctrls.Conversation.CreateConversation)
			conversations.PATCH("/:id/settings", ctrls.Conversation.UpdateSettings)

			// Messages
			conversations.GET("/:id/messages", ctrls.Message.GetMessages)
			conversations.POST("/:id/messages", ctrls.Message.SendMessage)
			conversations.PATCH("/:id/messages/:msgId", ctrls.Message.EditMessage)
			conversations.DELETE("/:id/messages/:msgId", ctrls.Message.DeleteMessage)

			// Reactions and read receipts
			conversations.POST("/:id/messages/:msgId/reactions", ctrls.Reaction.React)
			conversations.DELETE("/:id/messages/:msgId/reactions", ctrls.Reaction.RemoveReaction)
			conversations.POST("/:id/messages/:msgId/read", ctrls.Reaction.MarkRead)

			// Typing indicator, rate limited per user
			conversations.POST("/:id/typing",
				middleware.TypingLimiter(typingRate.RPS, typingRate.Burst),
				ctrls.Typing.SignalTyping)
			conversations.GET("/:id/typing", ctrls.Typing.GetTypingUsers)

			// Change stream hints
			if wsHandler != nil {
				conversations.GET("/:id/ws", wsHandler.HandleConnection)
			}
		}

		notifications := authenticated.Group("/notifications")
		{
			notifications.GET("", ctrls.Notification.ListNotifications)
			notifications.PATCH("/:id/read", ctrls.Notification.MarkNotificationRead)
		}

		authenticated.GET("/users", ctrls.User.SearchUsers)
	}

	// Health check endpoints (public)
	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	}
	v1.GET("/health", health)
	router.GET("/health", health)
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
}
