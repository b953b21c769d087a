package chat

import (
	"chatsync/internal/chaterr"
	"chatsync/internal/models"
)

type BlockStatus struct {
	IBlocked  bool `json:"i_blocked"`
	BlockedMe bool `json:"blocked_me"`
}

// Block records blocker→target. Re-blocking an already-blocked user is a
// no-op success. The conversation and its history are untouched; the
// relation only gates future sends.
func (s *Service) Block(blockerID, targetID uint) error {
	if blockerID == targetID {
		return chaterr.InvalidArgumentf("cannot block yourself")
	}
	ok, err := s.userExists(targetID)
	if err != nil {
		return err
	}
	if !ok {
		return chaterr.NotFoundf("user %d", targetID)
	}

	rel := models.BlockRelation{BlockerID: blockerID, BlockedID: targetID}
	if err := s.db.Where(&rel).FirstOrCreate(&rel).Error; err != nil {
		return chaterr.Unavailable(err, "create block relation")
	}

	s.publish(Event{
		Type:    EventUserBlocked,
		Targets: []uint{targetID},
		Data:    map[string]uint{"user_id": blockerID},
	})
	return nil
}

// Unblock removes blocker→target if present; removing an absent relation
// is a no-op success.
func (s *Service) Unblock(blockerID, targetID uint) error {
	if blockerID == targetID {
		return chaterr.InvalidArgumentf("cannot unblock yourself")
	}
	err := s.db.
		Where("blocker_id = ? AND blocked_id = ?", blockerID, targetID).
		Delete(&models.BlockRelation{}).Error
	if err != nil {
		return chaterr.Unavailable(err, "delete block relation")
	}

	s.publish(Event{
		Type:    EventUserUnblocked,
		Targets: []uint{targetID},
		Data:    map[string]uint{"user_id": blockerID},
	})
	return nil
}

// CanInteract is false when a block exists in either direction.
func (s *Service) CanInteract(a, b uint) (bool, error) {
	var n int64
	err := s.db.Model(&models.BlockRelation{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&n).Error
	if err != nil {
		return false, chaterr.Unavailable(err, "query block relations")
	}
	return n == 0, nil
}

func (s *Service) BlockStatus(userID, targetID uint) (BlockStatus, error) {
	var rels []models.BlockRelation
	err := s.db.
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userID, targetID, targetID, userID).
		Find(&rels).Error
	if err != nil {
		return BlockStatus{}, chaterr.Unavailable(err, "query block relations")
	}

	var st BlockStatus
	for _, r := range rels {
		if r.BlockerID == userID {
			st.IBlocked = true
		} else {
			st.BlockedMe = true
		}
	}
	return st, nil
}
