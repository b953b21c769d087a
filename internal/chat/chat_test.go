package chat

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"chatsync/internal/models"
)

// stubPresence marks (user, room) pairs as joined.
type stubPresence struct {
	joined map[string]map[uint]bool
}

func newStubPresence() *stubPresence {
	return &stubPresence{joined: map[string]map[uint]bool{}}
}

func (p *stubPresence) join(userID uint, room string) {
	if p.joined[room] == nil {
		p.joined[room] = map[uint]bool{}
	}
	p.joined[room][userID] = true
}

func (p *stubPresence) InRoom(userID uint, room string) bool {
	return p.joined[room][userID]
}

// sinkRecorder captures published events for assertions.
type sinkRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (s *sinkRecorder) Publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *sinkRecorder) ofType(t string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, ev := range s.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a second pooled connection would see a different :memory: database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.BlockRelation{},
		&models.ConversationDeletion{},
	))
	return db
}

func newTestService(t *testing.T) (*Service, *stubPresence, *sinkRecorder) {
	t.Helper()

	presence := newStubPresence()
	sink := &sinkRecorder{}
	svc := NewService(newTestDB(t), presence, sink, slog.Default())
	return svc, presence, sink
}

func createUser(t *testing.T, svc *Service, name string) uint {
	t.Helper()

	u := models.User{Name: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, svc.db.Create(&u).Error)
	return u.ID
}

func createDirect(t *testing.T, svc *Service, a, b uint) uint {
	t.Helper()

	conv, err := svc.CreateDirect(a, b)
	require.NoError(t, err)
	return conv.ID
}
