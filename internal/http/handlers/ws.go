package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"nhooyr.io/websocket"

	"chatsync/internal/chat"
	"chatsync/internal/ws"
)

type WSHandler struct {
	Hub                  *ws.Hub
	Broadcaster          *ws.Broadcaster
	Service              *chat.Service
	JWTSecret            string
	WSInsecureSkipVerify bool
}

func (h *WSHandler) Handle(c *gin.Context) {
	// Browser WebSocket clients cannot set an Authorization header, so
	// the token rides in a query param.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
		return
	}

	userID, err := parseUserIDFromJWT(tokenStr, h.JWTSecret)
	if err != nil || userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return
	}

	opts := &websocket.AcceptOptions{}
	// Accept rejects cross-origin by default; dev frontends run on a
	// different origin. Production should configure OriginPatterns
	// instead of this switch.
	if h.WSInsecureSkipVerify {
		opts.InsecureSkipVerify = true
	}

	conn, err := websocket.Accept(c.Writer, c.Request, opts)
	if err != nil {
		return // Accept already wrote the error response
	}

	client, becameOnline := h.Hub.AddClient(userID, conn)
	if becameOnline {
		h.Broadcaster.AnnouncePresence()
	}

	// Blocks until the client disconnects; inbound join/leave commands
	// are handled here.
	h.Hub.ReadCommands(c.Request.Context(), client, h.Service, nil)

	if h.Hub.RemoveClient(client) {
		h.Broadcaster.AnnouncePresence()
	}
}

func parseUserIDFromJWT(tokenStr, secret string) (uint, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, jwt.ErrTokenMalformed
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, jwt.ErrTokenInvalidClaims
	}

	switch v := claims["user_id"].(type) {
	case float64:
		return uint(v), nil
	case string:
		if id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64); err == nil {
			return uint(id), nil
		}
	}
	return 0, jwt.ErrTokenInvalidClaims
}
