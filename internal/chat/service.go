// Package chat is the conversation synchronization engine: block gate,
// visibility ledger, message state machine, and the domain events they
// emit. Live delivery and room membership stay behind the EventSink and
// RoomPresence interfaces so the engine never touches sockets directly.
package chat

import (
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"chatsync/internal/chaterr"
	"chatsync/internal/models"
)

type Service struct {
	db       *gorm.DB
	presence RoomPresence
	events   EventSink
	log      *slog.Logger
}

func NewService(db *gorm.DB, presence RoomPresence, events EventSink, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: db, presence: presence, events: events, log: log}
}

func (s *Service) publish(ev Event) {
	if s.events != nil {
		s.events.Publish(ev)
	}
}

func (s *Service) userExists(userID uint) (bool, error) {
	var n int64
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return false, chaterr.Unavailable(err, "query user")
	}
	return n > 0, nil
}

func (s *Service) conversation(conversationID uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.Preload("Participants").First(&conv, conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, chaterr.NotFoundf("conversation %d", conversationID)
	}
	if err != nil {
		return nil, chaterr.Unavailable(err, "query conversation")
	}
	return &conv, nil
}

// IsParticipant reports whether the user belongs to the conversation.
// The websocket layer uses this to vet join-conversation commands.
func (s *Service) IsParticipant(conversationID, userID uint) (bool, error) {
	var n int64
	err := s.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&n).Error
	if err != nil {
		return false, chaterr.Unavailable(err, "query participant")
	}
	return n > 0, nil
}

func participantIDs(conv *models.Conversation) []uint {
	ids := make([]uint, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}
