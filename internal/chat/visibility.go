package chat

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"chatsync/internal/chaterr"
	"chatsync/internal/models"
)

// Hide raises the visibility floor of the conversation for one user:
// everything created up to now disappears from that user's history.
// Re-hiding refreshes the floor instead of adding a second row. Nothing
// is destroyed; the other participants see the full history unchanged.
func (s *Service) Hide(conversationID, userID uint) error {
	if _, err := s.conversation(conversationID); err != nil {
		return err
	}
	ok, err := s.IsParticipant(conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return chaterr.Forbiddenf("user %d is not in conversation %d", userID, conversationID)
	}

	del := models.ConversationDeletion{ConversationID: conversationID, UserID: userID}
	err = s.db.Where(&del).
		Assign(map[string]interface{}{"deleted_at": time.Now(), "hidden": true}).
		FirstOrCreate(&del).Error
	if err != nil {
		return chaterr.Unavailable(err, "upsert deletion record")
	}

	s.publish(Event{
		Type:    EventConversationDeleted,
		Targets: []uint{userID},
		Data:    map[string]uint{"conversation_id": conversationID},
	})
	return nil
}

func (s *Service) IsHidden(conversationID, userID uint) (bool, error) {
	var n int64
	err := s.db.Model(&models.ConversationDeletion{}).
		Where("conversation_id = ? AND user_id = ? AND hidden = ?", conversationID, userID, true).
		Count(&n).Error
	if err != nil {
		return false, chaterr.Unavailable(err, "query deletion record")
	}
	return n > 0, nil
}

// restoreOnSend clears the sender's hidden flag inside the send
// transaction. Only the sender's: a recipient who independently hid the
// conversation stays hidden. The floor itself survives, so history from
// before the hide does not come back.
func restoreOnSend(tx *gorm.DB, conversationID, userID uint) error {
	return tx.Model(&models.ConversationDeletion{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("hidden", false).Error
}

// VisibleHistory returns the messages the user may see, ascending by id,
// honoring the deletion floor. limit caps the page; beforeID pages
// backwards through history when nonzero.
func (s *Service) VisibleHistory(conversationID, userID uint, limit int, beforeID uint) ([]models.Message, error) {
	if _, err := s.conversation(conversationID); err != nil {
		return nil, err
	}
	ok, err := s.IsParticipant(conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, chaterr.Forbiddenf("user %d is not in conversation %d", userID, conversationID)
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	q := s.db.Where("conversation_id = ?", conversationID).Order("id desc").Limit(limit)

	var del models.ConversationDeletion
	err = s.db.Where("conversation_id = ? AND user_id = ?", conversationID, userID).First(&del).Error
	switch {
	case err == nil:
		q = q.Where("created_at > ?", del.DeletedAt)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no floor, full history
	default:
		return nil, chaterr.Unavailable(err, "query deletion record")
	}

	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}

	var msgs []models.Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, chaterr.Unavailable(err, "query messages")
	}

	// query runs desc for the limit, flip back to ascending
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
