package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:120;not null" json:"name"`
	Email        string    `gorm:"size:190;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	AvatarURL    string    `gorm:"size:500" json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	ConversationDirect = "direct"
	ConversationGroup  = "group"
)

type Conversation struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Type string `gorm:"size:20;not null" json:"type"` // "direct" | "group"
	Name string `gorm:"size:120" json:"name,omitempty"`
	// AdminID is the group owner; nil for direct conversations.
	AdminID       *uint     `gorm:"index" json:"admin_id,omitempty"`
	LastMessageID *uint     `gorm:"index" json:"last_message_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Participants []ConversationParticipant `json:"-"`
}

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type ConversationParticipant struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"uniqueIndex:idx_conv_user;not null" json:"conversation_id"`
	UserID         uint      `gorm:"uniqueIndex:idx_conv_user;index;not null" json:"user_id"`
	Role           string    `gorm:"size:20;not null;default:member" json:"role"`
	Muted          bool      `gorm:"not null;default:false" json:"muted"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	MessageText  = "text"
	MessageImage = "image"
	MessageAudio = "audio"
	MessageVideo = "video"
	MessageFile  = "file"
	MessageVoice = "voice"
)

const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"index;not null" json:"conversation_id"`
	SenderID       uint      `gorm:"index;not null" json:"sender_id"`
	Type           string    `gorm:"size:20;not null;default:text" json:"type"`
	Body           string    `gorm:"type:text" json:"body"`
	MediaURL       string    `gorm:"size:500" json:"media_url,omitempty"`
	Status         string    `gorm:"size:20;not null;default:sent" json:"status"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

type BlockRelation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BlockerID uint      `gorm:"uniqueIndex:idx_blocker_blocked;not null" json:"blocker_id"`
	BlockedID uint      `gorm:"uniqueIndex:idx_blocker_blocked;index;not null" json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationDeletion is the visibility ledger: at most one row per
// (conversation, user). Messages created at or before DeletedAt are
// hidden from that user. Sending a message clears Hidden for the sender
// but keeps the floor, so history from before the hide stays gone.
type ConversationDeletion struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"uniqueIndex:idx_del_conv_user;not null" json:"conversation_id"`
	UserID         uint      `gorm:"uniqueIndex:idx_del_conv_user;not null" json:"user_id"`
	DeletedAt      time.Time `gorm:"not null" json:"deleted_at"`
	Hidden         bool      `gorm:"not null;default:true" json:"hidden"`
}
