package chat

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"chatsync/internal/chaterr"
	"chatsync/internal/metrics"
	"chatsync/internal/models"
)

type SendInput struct {
	Type     string `json:"type"`
	Body     string `json:"body"`
	MediaURL string `json:"media_url"`
}

// Send creates a message with status "sent", bumps the conversation's
// last-message pointer, and restores the sender's visibility if they had
// hidden the conversation, all in one transaction so a failed send
// never leaves a partial record. For direct conversations the block gate
// runs first; group membership is exposure-accepted at join time, so
// group sends skip it.
func (s *Service) Send(conversationID, senderID uint, in SendInput) (*models.Message, error) {
	if in.Type == "" {
		in.Type = models.MessageText
	}
	switch in.Type {
	case models.MessageText:
		if strings.TrimSpace(in.Body) == "" {
			return nil, chaterr.InvalidArgumentf("empty message body")
		}
	case models.MessageImage, models.MessageAudio, models.MessageVideo, models.MessageFile, models.MessageVoice:
		if in.MediaURL == "" {
			return nil, chaterr.InvalidArgumentf("%s message requires media_url", in.Type)
		}
	default:
		return nil, chaterr.InvalidArgumentf("unknown message type %q", in.Type)
	}

	conv, err := s.conversation(conversationID)
	if err != nil {
		return nil, err
	}

	sender := false
	for _, p := range conv.Participants {
		if p.UserID == senderID {
			sender = true
			break
		}
	}
	if !sender {
		return nil, chaterr.Forbiddenf("user %d is not in conversation %d", senderID, conversationID)
	}

	if conv.Type == models.ConversationDirect {
		for _, p := range conv.Participants {
			if p.UserID == senderID {
				continue
			}
			ok, err := s.CanInteract(senderID, p.UserID)
			if err != nil {
				return nil, err
			}
			if !ok {
				metrics.BlockedSends.Inc()
				return nil, chaterr.Forbiddenf("messaging between %d and %d is blocked", senderID, p.UserID)
			}
		}
	}

	msg := models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Type:           in.Type,
		Body:           in.Body,
		MediaURL:       in.MediaURL,
		Status:         models.StatusSent,
		CreatedAt:      time.Now(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		// last-writer-wins on the pointer is fine, it's a denormalized
		// convenience field; history order comes from the messages table
		upd := map[string]interface{}{"last_message_id": msg.ID, "updated_at": time.Now()}
		if err := tx.Model(&models.Conversation{}).Where("id = ?", conversationID).Updates(upd).Error; err != nil {
			return err
		}
		return restoreOnSend(tx, conversationID, senderID)
	})
	if err != nil {
		return nil, chaterr.Unavailable(err, "create message")
	}

	metrics.MessagesSent.Inc()

	s.publish(Event{
		Type: EventNewMessage,
		Room: RoomName(conversationID),
		Data: msg,
	})
	s.publish(Event{
		Type:    EventConversationUpdated,
		Targets: participantIDs(conv),
		Data:    map[string]uint{"conversation_id": conversationID},
	})
	return &msg, nil
}

// MarkDelivered advances every listed message that is still "sent" and
// was not sent by the acting user to "delivered". Already-advanced
// messages and the actor's own are skipped, so retries and overlapping
// batches are harmless. Returns the number actually changed.
func (s *Service) MarkDelivered(messageIDs []uint, actorID uint) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}

	var matched []models.Message
	err := s.db.
		Where("id IN ? AND status = ? AND sender_id <> ?", messageIDs, models.StatusSent, actorID).
		Find(&matched).Error
	if err != nil {
		return 0, chaterr.Unavailable(err, "query messages")
	}
	if len(matched) == 0 {
		return 0, nil
	}

	ids := make([]uint, 0, len(matched))
	byConv := map[uint][]uint{}
	for _, m := range matched {
		ids = append(ids, m.ID)
		byConv[m.ConversationID] = append(byConv[m.ConversationID], m.ID)
	}

	res := s.db.Model(&models.Message{}).
		Where("id IN ? AND status = ?", ids, models.StatusSent).
		Update("status", models.StatusDelivered)
	if res.Error != nil {
		return 0, chaterr.Unavailable(res.Error, "update message status")
	}

	metrics.StatusTransitions.WithLabelValues(models.StatusDelivered).Add(float64(res.RowsAffected))

	for convID, msgIDs := range byConv {
		s.publish(Event{
			Type: EventMessageStatus,
			Room: RoomName(convID),
			Data: map[string]interface{}{"message_ids": msgIDs, "status": models.StatusDelivered},
		})
	}
	return res.RowsAffected, nil
}

// MarkRead transitions every unread message from other senders in the
// conversation to "read", but only when the actor is currently joined to
// the conversation's live room. A background fetch that never joined the
// room must not mark anything read, so without the room membership this
// is a no-op returning zero.
func (s *Service) MarkRead(conversationID, actorID uint) (int64, error) {
	conv, err := s.conversation(conversationID)
	if err != nil {
		return 0, err
	}
	ok := false
	for _, p := range conv.Participants {
		if p.UserID == actorID {
			ok = true
			break
		}
	}
	if !ok {
		return 0, chaterr.Forbiddenf("user %d is not in conversation %d", actorID, conversationID)
	}

	if s.presence == nil || !s.presence.InRoom(actorID, RoomName(conversationID)) {
		return 0, nil
	}

	var ids []uint
	err = s.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND status <> ?", conversationID, actorID, models.StatusRead).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, chaterr.Unavailable(err, "query unread messages")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := s.db.Model(&models.Message{}).
		Where("id IN ? AND status <> ?", ids, models.StatusRead).
		Update("status", models.StatusRead)
	if res.Error != nil {
		return 0, chaterr.Unavailable(res.Error, "update message status")
	}

	metrics.StatusTransitions.WithLabelValues(models.StatusRead).Add(float64(res.RowsAffected))

	s.publish(Event{
		Type: EventMessageStatus,
		Room: RoomName(conversationID),
		Data: map[string]interface{}{"message_ids": ids, "status": models.StatusRead},
	})
	s.publish(Event{
		Type:    EventConversationRead,
		Targets: participantIDs(conv),
		Data:    map[string]uint{"conversation_id": conversationID, "reader_id": actorID},
	})
	return res.RowsAffected, nil
}
