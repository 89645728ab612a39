package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/shopfront-backend/internal/middleware"
	ws "github.com/ikkim/shopfront-backend/internal/websocket"
)

type OrderStreamController struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewOrderStreamController allows upgrades from allowedOrigins, or from any
// origin when the list contains "*".
func NewOrderStreamController(hub *ws.Hub, allowedOrigins []string) *OrderStreamController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &OrderStreamController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Connect upgrades to a websocket that receives the caller's order events.
// The token arrives as a query parameter and is never logged.
// GET /api/v1/ws/orders
func (ctrl *OrderStreamController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("Failed to upgrade to websocket", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	ctrl.hub.Serve(conn, userID)
	log.Info("Order stream connected", map[string]interface{}{
		"user_id": userID,
	})
}
