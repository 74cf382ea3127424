package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/hubtc/portal/internal/app/controllers"
	"github.com/hubtc/portal/internal/middleware"
	"github.com/hubtc/portal/internal/pkg/websocket"
)

func TestSetupRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	ctrls := Controllers{
		Conversation: controllers.NewConversationController(nil, zerolog.Nop()),
		Message:      controllers.NewMessageController(nil, 0, zerolog.Nop()),
		Reaction:     controllers.NewReactionController(nil, zerolog.Nop()),
		Typing:       controllers.NewTypingController(nil),
		Notification: controllers.NewNotificationController(nil),
		User:         controllers.NewUserController(nil),
	}
	ws := websocket.NewHandler(websocket.NewHub(zerolog.Nop()), nil, zerolog.Nop())
	SetupRouter(router, ctrls, middleware.NewAuthMiddleware(nil, nil), ws, TypingRate{RPS: 1, Burst: 3})
	SetupSwagger(router)

	registered := make(map[string]bool)
	for _, r := range router.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /api/v1/conversations",
		"POST /api/v1/conversations",
		"PATCH /api/v1/conversations/:id/settings",
		"GET /api/v1/conversations/:id/messages",
		"POST /api/v1/conversations/:id/messages",
		"PATCH /api/v1/conversations/:id/messages/:msgId",
		"DELETE /api/v1/conversations/:id/messages/:msgId",
		"POST /api/v1/conversations/:id/messages/:msgId/reactions",
		"DELETE /api/v1/conversations/:id/messages/:msgId/reactions",
		"POST /api/v1/conversations/:id/messages/:msgId/read",
		"POST /api/v1/conversations/:id/typing",
		"GET /api/v1/conversations/:id/typing",
		"GET /api/v1/conversations/:id/ws",
		"GET /api/v1/notifications",
		"PATCH /api/v1/notifications/:id/read",
		"GET /api/v1/users",
		"GET /api/v1/health",
		"GET /health",
		"GET /ping",
		"GET /swagger/*any",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "pong", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
