package handler

import (
	"net/http"
	"strings"

	"taskboard/internal/auth"
	"taskboard/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients carry the token instead of an Origin worth trusting;
	// the token check below is the real gate.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler struct {
	hub       *ws.Hub
	jwtSecret string
	authorize ws.JoinAuthorizer
}

func NewWSHandler(hub *ws.Hub, jwtSecret string, authorize ws.JoinAuthorizer) *WSHandler {
	return &WSHandler{hub: hub, jwtSecret: jwtSecret, authorize: authorize}
}

// Serve upgrades the connection. The token comes from the Authorization
// header or, for browser WebSocket clients that cannot set headers, the
// token query parameter.
func (h *WSHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		respondErrorMsg(c, http.StatusUnauthorized, "Authorization token is required")
		return
	}

	userID, err := auth.ParseToken(token, h.jwtSecret)
	if err != nil {
		respondErrorMsg(c, http.StatusUnauthorized, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	ws.NewClient(h.hub, conn, userID, h.authorize)
}
