package chat

import (
	"gorm.io/gorm"

	"chatsync/internal/chaterr"
	"chatsync/internal/models"
)

// ConversationView is a conversation as one user sees it: the shared
// record plus that user's unread count and last visible message.
type ConversationView struct {
	models.Conversation
	UnreadCount int64           `json:"unread_count"`
	LastMessage *models.Message `json:"last_message,omitempty"`
}

// CreateDirect returns the existing direct conversation between the two
// users, or creates one. Both orders of the pair resolve to the same
// conversation.
func (s *Service) CreateDirect(userID, otherID uint) (*models.Conversation, error) {
	if userID == otherID {
		return nil, chaterr.InvalidArgumentf("cannot start a conversation with yourself")
	}
	ok, err := s.userExists(otherID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, chaterr.NotFoundf("user %d", otherID)
	}

	var existing models.Conversation
	err = s.db.
		Joins("JOIN conversation_participants a ON a.conversation_id = conversations.id AND a.user_id = ?", userID).
		Joins("JOIN conversation_participants b ON b.conversation_id = conversations.id AND b.user_id = ?", otherID).
		Where("conversations.type = ?", models.ConversationDirect).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}

	conv := models.Conversation{Type: models.ConversationDirect}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return err
		}
		parts := []models.ConversationParticipant{
			{ConversationID: conv.ID, UserID: userID, Role: models.RoleMember},
			{ConversationID: conv.ID, UserID: otherID, Role: models.RoleMember},
		}
		return tx.Create(&parts).Error
	})
	if err != nil {
		return nil, chaterr.Unavailable(err, "create conversation")
	}

	s.publish(Event{
		Type:    EventConversationUpdated,
		Targets: []uint{userID, otherID},
		Data:    map[string]uint{"conversation_id": conv.ID},
	})
	return &conv, nil
}

// CreateGroup creates a group conversation with the creator as admin.
// Groups need at least three participants including the creator.
func (s *Service) CreateGroup(creatorID uint, name string, memberIDs []uint) (*models.Conversation, error) {
	if name == "" {
		return nil, chaterr.InvalidArgumentf("group name required")
	}

	seen := map[uint]bool{creatorID: true}
	members := []uint{creatorID}
	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		ok, err := s.userExists(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, chaterr.NotFoundf("user %d", id)
		}
		seen[id] = true
		members = append(members, id)
	}
	if len(members) < 3 {
		return nil, chaterr.InvalidArgumentf("a group needs at least 3 participants")
	}

	conv := models.Conversation{Type: models.ConversationGroup, Name: name, AdminID: &creatorID}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return err
		}
		parts := make([]models.ConversationParticipant, 0, len(members))
		for _, id := range members {
			role := models.RoleMember
			if id == creatorID {
				role = models.RoleAdmin
			}
			parts = append(parts, models.ConversationParticipant{
				ConversationID: conv.ID, UserID: id, Role: role,
			})
		}
		return tx.Create(&parts).Error
	})
	if err != nil {
		return nil, chaterr.Unavailable(err, "create group")
	}

	s.publish(Event{
		Type:    EventConversationUpdated,
		Targets: members,
		Data:    map[string]uint{"conversation_id": conv.ID},
	})
	return &conv, nil
}

// AddGroupMember adds a user to a group. Only admins may add.
func (s *Service) AddGroupMember(conversationID, actorID, userID uint) error {
	conv, err := s.conversation(conversationID)
	if err != nil {
		return err
	}
	if conv.Type != models.ConversationGroup {
		return chaterr.InvalidArgumentf("conversation %d is not a group", conversationID)
	}
	if !s.isAdmin(conv, actorID) {
		return chaterr.Forbiddenf("user %d is not an admin of conversation %d", actorID, conversationID)
	}
	ok, err := s.userExists(userID)
	if err != nil {
		return err
	}
	if !ok {
		return chaterr.NotFoundf("user %d", userID)
	}

	p := models.ConversationParticipant{ConversationID: conversationID, UserID: userID}
	if err := s.db.Where(&p).Attrs(models.ConversationParticipant{Role: models.RoleMember}).FirstOrCreate(&p).Error; err != nil {
		return chaterr.Unavailable(err, "add participant")
	}

	s.publish(Event{
		Type:    EventMembershipChanged,
		Targets: append(participantIDs(conv), userID),
		Data:    map[string]interface{}{"conversation_id": conversationID, "user_id": userID, "joined": true},
	})
	return nil
}

// RemoveGroupMember removes a user from a group. Admins may remove
// anyone; members may only remove themselves (leave).
func (s *Service) RemoveGroupMember(conversationID, actorID, userID uint) error {
	conv, err := s.conversation(conversationID)
	if err != nil {
		return err
	}
	if conv.Type != models.ConversationGroup {
		return chaterr.InvalidArgumentf("conversation %d is not a group", conversationID)
	}
	if actorID != userID && !s.isAdmin(conv, actorID) {
		return chaterr.Forbiddenf("user %d is not an admin of conversation %d", actorID, conversationID)
	}

	err = s.db.
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Delete(&models.ConversationParticipant{}).Error
	if err != nil {
		return chaterr.Unavailable(err, "remove participant")
	}

	s.publish(Event{
		Type:    EventMembershipChanged,
		Targets: participantIDs(conv),
		Data:    map[string]interface{}{"conversation_id": conversationID, "user_id": userID, "joined": false},
	})
	return nil
}

func (s *Service) isAdmin(conv *models.Conversation, userID uint) bool {
	if conv.AdminID != nil && *conv.AdminID == userID {
		return true
	}
	for _, p := range conv.Participants {
		if p.UserID == userID && p.Role == models.RoleAdmin {
			return true
		}
	}
	return false
}

// SetMuted toggles notification muting for one participant. Muting never
// affects fan-out, only how the client treats the event.
func (s *Service) SetMuted(conversationID, userID uint, muted bool) error {
	res := s.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("muted", muted)
	if res.Error != nil {
		return chaterr.Unavailable(res.Error, "update mute flag")
	}
	if res.RowsAffected == 0 {
		return chaterr.NotFoundf("user %d in conversation %d", userID, conversationID)
	}
	return nil
}

// ListConversations returns the user's conversations newest-activity
// first. A hidden conversation stays out of the list until it has
// activity newer than the user's deletion floor.
func (s *Service) ListConversations(userID uint) ([]ConversationView, error) {
	var parts []models.ConversationParticipant
	if err := s.db.Where("user_id = ?", userID).Find(&parts).Error; err != nil {
		return nil, chaterr.Unavailable(err, "query participants")
	}
	if len(parts) == 0 {
		return []ConversationView{}, nil
	}

	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		ids = append(ids, p.ConversationID)
	}

	var convs []models.Conversation
	err := s.db.Where("id IN ?", ids).Order("updated_at desc").Find(&convs).Error
	if err != nil {
		return nil, chaterr.Unavailable(err, "query conversations")
	}

	var dels []models.ConversationDeletion
	err = s.db.Where("user_id = ? AND conversation_id IN ?", userID, ids).Find(&dels).Error
	if err != nil {
		return nil, chaterr.Unavailable(err, "query deletion records")
	}
	floors := map[uint]models.ConversationDeletion{}
	for _, d := range dels {
		floors[d.ConversationID] = d
	}

	views := make([]ConversationView, 0, len(convs))
	for _, conv := range convs {
		q := s.db.Model(&models.Message{}).Where("conversation_id = ?", conv.ID)
		if floor, ok := floors[conv.ID]; ok {
			if floor.Hidden {
				var newer int64
				err := s.db.Model(&models.Message{}).
					Where("conversation_id = ? AND created_at > ?", conv.ID, floor.DeletedAt).
					Count(&newer).Error
				if err != nil {
					return nil, chaterr.Unavailable(err, "query messages")
				}
				if newer == 0 {
					continue
				}
			}
			q = q.Where("created_at > ?", floor.DeletedAt)
		}

		var unread int64
		err := q.Where("sender_id <> ? AND status <> ?", userID, models.StatusRead).Count(&unread).Error
		if err != nil {
			return nil, chaterr.Unavailable(err, "count unread")
		}

		view := ConversationView{Conversation: conv, UnreadCount: unread}
		if conv.LastMessageID != nil {
			var last models.Message
			if err := s.db.First(&last, *conv.LastMessageID).Error; err == nil {
				view.LastMessage = &last
			}
		}
		views = append(views, view)
	}
	return views, nil
}
