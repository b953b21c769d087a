package ws

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"chatsync/internal/chat"
	"chatsync/internal/models"
)

// End-to-end over real sockets: A sends, B joins the room and reads,
// A's live connection observes the read receipt.
func TestSendThenReadReceiptReachesSender(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.BlockRelation{},
		&models.ConversationDeletion{},
	))

	hub := NewHub(16)
	b := startBroadcaster(t, hub)
	svc := chat.NewService(db, hub, b, nil)

	alice := models.User{Name: "alice", Email: "alice@example.com", PasswordHash: "x"}
	bob := models.User{Name: "bob", Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)

	conv, err := svc.CreateDirect(alice.ID, bob.ID)
	require.NoError(t, err)
	room := chat.RoomName(conv.ID)

	aliceServer, aliceClient := wsPair(t)
	bobServer, _ := wsPair(t)

	aliceConn, _ := hub.AddClient(alice.ID, aliceServer)
	bobConn, _ := hub.AddClient(bob.ID, bobServer)
	hub.JoinRoom(aliceConn, room)
	hub.JoinRoom(bobConn, room)

	msg, err := svc.Send(conv.ID, alice.ID, chat.SendInput{Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, msg.Status)

	ev := readEvent(t, aliceClient)
	assert.Equal(t, chat.EventNewMessage, ev.Type)

	// conversation-updated follows, account-scoped to both participants
	ev = readEvent(t, aliceClient)
	assert.Equal(t, chat.EventConversationUpdated, ev.Type)

	n, err := svc.MarkRead(conv.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ev = readEvent(t, aliceClient)
	assert.Equal(t, chat.EventMessageStatus, ev.Type)
	assert.Equal(t, models.StatusRead, ev.Data["status"])
	assert.Equal(t, []interface{}{float64(msg.ID)}, ev.Data["message_ids"])

	ev = readEvent(t, aliceClient)
	assert.Equal(t, chat.EventConversationRead, ev.Type)
}
