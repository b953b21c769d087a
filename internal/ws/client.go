package ws

import (
	"context"
	"log/slog"

	"nhooyr.io/websocket/wsjson"

	"chatsync/internal/chat"
)

// Live commands clients may send over the socket.
const (
	CmdJoinConversation  = "join-conversation"
	CmdLeaveConversation = "leave-conversation"
)

type Command struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversation_id"`
}

// Memberships vets join-conversation commands; the chat service
// implements it.
type Memberships interface {
	IsParticipant(conversationID, userID uint) (bool, error)
}

// ReadCommands processes inbound live commands until the connection
// drops. Joining a room requires conversation membership; everything
// else inbound is ignored.
func (h *Hub) ReadCommands(ctx context.Context, c *Client, members Memberships, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}

	for {
		var cmd Command
		if err := wsjson.Read(ctx, c.Conn, &cmd); err != nil {
			return
		}

		switch cmd.Type {
		case CmdJoinConversation:
			ok, err := members.IsParticipant(cmd.ConversationID, c.UserID)
			if err != nil {
				log.Warn("membership check failed", "user", c.UserID, "conversation", cmd.ConversationID, "err", err)
				continue
			}
			if !ok {
				log.Warn("join refused, not a participant", "user", c.UserID, "conversation", cmd.ConversationID)
				continue
			}
			h.JoinRoom(c, chat.RoomName(cmd.ConversationID))
		case CmdLeaveConversation:
			h.LeaveRoom(c, chat.RoomName(cmd.ConversationID))
		default:
			log.Debug("unknown live command", "type", cmd.Type, "user", c.UserID)
		}
	}
}
