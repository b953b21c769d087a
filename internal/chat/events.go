package chat

import "fmt"

// Event types pushed over the live channel. Conversation-scoped types
// fan out to the conversation room; the rest go to every online
// connection of each target user.
const (
	EventNewMessage          = "receive-message"
	EventMessageStatus       = "message-status-updated"
	EventConversationUpdated = "conversation-updated"
	EventConversationRead    = "conversation-read"
	EventConversationDeleted = "conversation-deleted-for-user"
	EventMembershipChanged   = "membership-changed"
	EventUserBlocked         = "user-blocked"
	EventUserUnblocked       = "user-unblocked"
	EventOnlineUsers         = "online-users-update"
)

// Event is one unit of live fan-out. Exactly one of Room / Targets is
// set: Room routes to connections joined to that conversation room,
// Targets routes to all online connections of the listed users.
type Event struct {
	Type    string      `json:"type"`
	Room    string      `json:"-"`
	Targets []uint      `json:"-"`
	Data    interface{} `json:"data"`
}

// EventSink accepts events for delivery. Delivery is best-effort and
// at-most-once; Publish must never block the caller.
type EventSink interface {
	Publish(ev Event)
}

// RoomPresence is the view of live-room membership the engine needs for
// the read guard. The websocket hub implements it.
type RoomPresence interface {
	InRoom(userID uint, room string) bool
}

// RoomName is the live-room identifier for a conversation.
func RoomName(conversationID uint) string {
	return fmt.Sprintf("conversation:%d", conversationID)
}
